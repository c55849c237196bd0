// Package ingesterr defines the failure taxonomy of the ingestion pipeline.
// Callers use IsUserError and HTTPStatus to tell user-actionable failures
// apart from infrastructure failures without matching on messages.
package ingesterr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrMissingUser is returned when an ingest call carries no user identifier.
var ErrMissingUser = errors.New("user id is required")

// ConfigError reports an unknown source key or a malformed source definition.
type ConfigError struct {
	Source string // format key or file name
	Field  string // offending field, empty when the whole definition is at fault
	Err    error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config error")
	if e.Source != "" {
		b.WriteString(" in ")
		b.WriteString(e.Source)
	}
	if e.Field != "" {
		b.WriteString(" (field ")
		b.WriteString(e.Field)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// SchemaMismatchError reports that a file does not fit the schema it was parsed with.
type SchemaMismatchError struct {
	Source  string
	Missing []string // canonical columns that could not be located
	Reason  string
}

func (e *SchemaMismatchError) Error() string {
	msg := "schema mismatch"
	if e.Source != "" {
		msg += " for " + e.Source
	}
	if len(e.Missing) > 0 {
		msg += ": missing columns " + strings.Join(e.Missing, ", ")
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// NoFormatMatchedError is returned when auto-detect exhausted every registered format.
type NoFormatMatchedError struct {
	Attempts []string
	Last     error
}

func (e *NoFormatMatchedError) Error() string {
	if len(e.Attempts) == 0 {
		return "no source format matched: registry is empty"
	}
	return fmt.Sprintf("no source format matched after %d attempts (%s): %v",
		len(e.Attempts), strings.Join(e.Attempts, ", "), e.Last)
}

func (e *NoFormatMatchedError) Unwrap() error { return e.Last }

// ClassificationUnavailableError reports that the inference backend could not
// produce labels for a batch.
type ClassificationUnavailableError struct {
	Batch int
	Err   error
}

func (e *ClassificationUnavailableError) Error() string {
	return fmt.Sprintf("classification unavailable for batch %d: %v", e.Batch, e.Err)
}

func (e *ClassificationUnavailableError) Unwrap() error { return e.Err }

// PersistenceError is an infrastructure failure of the persistence gateway.
// Duplicate rejections are never reported as PersistenceError.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsUserError reports whether err was caused by the caller's input.
func IsUserError(err error) bool {
	if err == nil {
		return false
	}
	var (
		cfgErr    *ConfigError
		schemaErr *SchemaMismatchError
		noMatch   *NoFormatMatchedError
	)
	switch {
	case errors.Is(err, ErrMissingUser):
		return true
	case errors.As(err, &cfgErr), errors.As(err, &schemaErr), errors.As(err, &noMatch):
		return true
	}
	return false
}

// HTTPStatus maps an error to the status class a transport should answer with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var (
		cfgErr    *ConfigError
		schemaErr *SchemaMismatchError
		noMatch   *NoFormatMatchedError
		classErr  *ClassificationUnavailableError
	)
	switch {
	case errors.Is(err, ErrMissingUser):
		return http.StatusUnauthorized
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest
	case errors.As(err, &schemaErr), errors.As(err, &noMatch):
		return http.StatusUnprocessableEntity
	case errors.As(err, &classErr):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Kind returns a short label for metrics and logs.
func Kind(err error) string {
	var (
		cfgErr     *ConfigError
		schemaErr  *SchemaMismatchError
		noMatch    *NoFormatMatchedError
		classErr   *ClassificationUnavailableError
		persistErr *PersistenceError
	)
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrMissingUser):
		return "missing_user"
	case errors.As(err, &cfgErr):
		return "config"
	case errors.As(err, &noMatch):
		return "no_format_matched"
	case errors.As(err, &schemaErr):
		return "schema_mismatch"
	case errors.As(err, &classErr):
		return "classification_unavailable"
	case errors.As(err, &persistErr):
		return "persistence"
	}
	return "internal"
}
