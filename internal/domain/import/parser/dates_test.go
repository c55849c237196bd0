package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertDatePattern(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"%m/%d/%Y", "1/2/2006"},
		{"%Y-%m-%d", "2006-1-2"},
		{"%d.%m.%y", "2.1.06"},
		{"%-m/%-d/%Y", "1/2/2006"},
		{"%d %b %Y", "2 Jan 2006"},
		{"%Y-%m-%d %H:%M:%S", "2006-1-2 15:04:05"},
		{"100%%", "100%"},
		{"2006-01-02", "2006-01-02"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := ConvertDatePattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ConvertDatePattern("%Q")
	assert.Error(t, err)
	_, err = ConvertDatePattern("%Y-%")
	assert.Error(t, err)
}

func TestDateParser_Explicit(t *testing.T) {
	p, err := NewDateParser("%m/%d/%Y")
	require.NoError(t, err)

	got, err := p.Parse("07/26/2025")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 26, 0, 0, 0, 0, time.UTC), got)

	got, err = p.Parse("7/6/2025")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 6, 0, 0, 0, 0, time.UTC), got)

	_, err = p.Parse("2025-07-26")
	assert.Error(t, err, "explicit pattern must not fall back to guessing")
}

func TestDateParser_Permissive(t *testing.T) {
	p, err := NewDateParser("")
	require.NoError(t, err)

	want := time.Date(2025, 7, 26, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2025-07-26",
		"2025-07-26T10:30:00Z",
		"2025-07-26 10:30:00",
		"2025/07/26",
		"07/26/2025",
		"7/26/25",
		"26/07/2025",
		"26.07.2025",
		"26 Jul 2025",
		"Jul 26, 2025",
		"20250726",
		" 2025-07-26 ",
	} {
		t.Run(in, func(t *testing.T) {
			got, err := p.Parse(in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	t.Run("month first wins when ambiguous", func(t *testing.T) {
		got, err := p.Parse("03/04/2025")
		require.NoError(t, err)
		assert.Equal(t, time.March, got.Month())
	})

	for _, bad := range []string{"", "not a date", "2025-13-45", "32/13/2025"} {
		_, err := p.Parse(bad)
		assert.Error(t, err, bad)
	}
}
