package normalizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/registry"
	"github.com/FACorreiaa/statement-ingest/internal/domain/ingesterr"
)

// recordingFormats wraps a registry and records every format handed out.
type recordingFormats struct {
	*registry.Registry
	listed int
}

func (r *recordingFormats) All() []registry.Entry {
	r.listed++
	return r.Registry.All()
}

func TestMatchFormat_FirstSuccessWins(t *testing.T) {
	formats := &recordingFormats{Registry: loadFormats(t)}

	var attempts []string
	detector := Detector{OnAttempt: func(key string, err error) {
		attempts = append(attempts, key)
	}}

	res, key, err := detector.Match(readFixture(t, "chase_credit.csv"), formats)
	require.NoError(t, err)

	assert.Equal(t, "chase_credit", key)
	assert.Equal(t, []string{"amex", "chase_checking", "chase_credit"}, attempts, "nothing is tried after the first success")
	assert.Equal(t, 1, formats.listed)
	require.Len(t, res.Rows, 4)
	assert.Equal(t, "Food & Dining", res.Rows[0].Category)
}

func TestMatchFormat_Headerless(t *testing.T) {
	rows, key, err := MatchFormat(readFixture(t, "wells_fargo.csv"), loadFormats(t))
	require.NoError(t, err)
	assert.Equal(t, "wells_fargo", key)
	assert.Len(t, rows, 2)
}

func TestMatchFormat_NoMatch(t *testing.T) {
	raw := []byte("When,What\nyesterday,coffee\n")

	_, _, err := MatchFormat(raw, loadFormats(t))

	var noMatch *ingesterr.NoFormatMatchedError
	require.True(t, errors.As(err, &noMatch))
	assert.Equal(t, []string{"amex", "chase_checking", "chase_credit", "discover", "wells_fargo"}, noMatch.Attempts)

	var schemaErr *ingesterr.SchemaMismatchError
	require.True(t, errors.As(err, &schemaErr), "last cause is kept for diagnostics")
	assert.Equal(t, "wells_fargo", schemaErr.Source)
}

func TestMatchFormat_EmptyRegistry(t *testing.T) {
	_, _, err := MatchFormat([]byte("a,b\n"), registry.New(nil))

	var noMatch *ingesterr.NoFormatMatchedError
	require.True(t, errors.As(err, &noMatch))
	assert.Empty(t, noMatch.Attempts)
	assert.Nil(t, noMatch.Last)
}

func TestMatchFormat_StopsOnConfigError(t *testing.T) {
	broken := registry.SourceFormat{
		HasHeader:     true,
		DatePattern:   "%Q",
		ColumnAliases: map[string][]string{"date": {"Date"}, "amount": {"Amount"}, "description": {"Description"}},
	}
	formats := registry.New(map[string]registry.SourceFormat{"a_broken": broken, "b_never_tried": broken})

	var attempts []string
	detector := Detector{OnAttempt: func(key string, err error) { attempts = append(attempts, key) }}
	_, key, err := detector.Match([]byte("Date,Description,Amount\n2025-01-02,TEA,-1\n"), formats)

	var cfgErr *ingesterr.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "a_broken", key)
	assert.Equal(t, []string{"a_broken"}, attempts)
}
