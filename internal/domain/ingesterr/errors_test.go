package ingesterr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	schema := &SchemaMismatchError{Source: "chase", Missing: []string{"date"}}

	tests := []struct {
		name   string
		err    error
		user   bool
		status int
		kind   string
	}{
		{"missing user", fmt.Errorf("ingest: %w", ErrMissingUser), true, http.StatusUnauthorized, "missing_user"},
		{"config", &ConfigError{Source: "nope", Err: errors.New("unknown source")}, true, http.StatusBadRequest, "config"},
		{"schema", schema, true, http.StatusUnprocessableEntity, "schema_mismatch"},
		{"no match", &NoFormatMatchedError{Attempts: []string{"a", "b"}, Last: schema}, true, http.StatusUnprocessableEntity, "no_format_matched"},
		{"classification", &ClassificationUnavailableError{Err: errors.New("timeout")}, false, http.StatusServiceUnavailable, "classification_unavailable"},
		{"persistence", &PersistenceError{Op: "insert", Err: errors.New("conn reset")}, false, http.StatusInternalServerError, "persistence"},
		{"plain", errors.New("boom"), false, http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.user, IsUserError(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.kind, Kind(tt.err))
		})
	}
}

func TestNoFormatMatchedError_CarriesLastCause(t *testing.T) {
	last := &SchemaMismatchError{Source: "b", Reason: "no rows survived"}
	err := &NoFormatMatchedError{Attempts: []string{"a", "b"}, Last: last}

	var target *SchemaMismatchError
	assert.True(t, errors.As(err, &target))
	assert.Equal(t, "b", target.Source)
	assert.Contains(t, err.Error(), "2 attempts")

	empty := &NoFormatMatchedError{}
	assert.Contains(t, empty.Error(), "registry is empty")
}

func TestConfigError_Message(t *testing.T) {
	err := &ConfigError{Source: "bank.yaml", Field: "columns", Err: errors.New("required when has_header is false")}
	assert.Equal(t, "config error in bank.yaml (field columns): required when has_header is false", err.Error())
}
