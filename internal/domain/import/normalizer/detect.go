package normalizer

import (
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/registry"
	"github.com/FACorreiaa/statement-ingest/internal/domain/ingesterr"
	"github.com/FACorreiaa/statement-ingest/internal/domain/transaction"
)

// Formats is the read side of a registry.
type Formats interface {
	All() []registry.Entry
	Lookup(key string) (registry.SourceFormat, error)
}

// Detector tries registered formats in order until one normalizes cleanly.
type Detector struct {
	// OnAttempt, when set, is called after every attempt with its outcome.
	OnAttempt func(key string, err error)
}

// MatchFormat runs auto-detect with a default Detector.
func MatchFormat(raw []byte, formats Formats) ([]transaction.Transaction, string, error) {
	res, key, err := Detector{}.Match(raw, formats)
	if err != nil {
		return nil, "", err
	}
	return res.Rows, key, nil
}

// Match returns the rows and key of the first format, in registry order, that
// normalizes raw without error. Every attempt reads raw from its start. Only
// schema mismatches move on to the next format; any other error is returned.
func (d Detector) Match(raw []byte, formats Formats) (*Result, string, error) {
	var (
		attempts []string
		last     error
	)
	for _, entry := range formats.All() {
		attempts = append(attempts, entry.Key)
		res, err := NormalizeSource(entry.Key, raw, entry.Format)
		if d.OnAttempt != nil {
			d.OnAttempt(entry.Key, err)
		}
		if err == nil {
			return res, entry.Key, nil
		}
		if !IsSchemaMismatch(err) {
			return nil, entry.Key, err
		}
		last = err
	}
	return nil, "", &ingesterr.NoFormatMatchedError{Attempts: attempts, Last: last}
}
