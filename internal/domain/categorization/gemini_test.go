package categorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassification(t *testing.T) {
	raw := "```json\n" +
		`[{"index": 1, "labels": [{"label": "Shopping", "confidence": 0.2}, {"label": "Food & Dining", "confidence": 0.7}]},` +
		`{"index": 9, "labels": [{"label": "Other", "confidence": 1}]}]` +
		"\n```"

	out, err := parseClassification(raw, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Empty(t, out[0], "missing items stay empty")
	require.Len(t, out[1], 2)
	assert.Equal(t, CategoryFood, out[1][0].Label)
	assert.Equal(t, CategoryShopping, out[1][1].Label)
}

func TestParseClassification_Invalid(t *testing.T) {
	_, err := parseClassification("I cannot help with that", 1)
	assert.Error(t, err)
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"plain", `[1, 2]`, `[1, 2]`},
		{"fenced", "```json\n[1]\n```", `[1]`},
		{"chatter", "Here you go: [1] hope it helps", `[1]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cleanModelJSON(tt.raw))
		})
	}
}

func TestBuildClassificationPrompt(t *testing.T) {
	prompt := buildClassificationPrompt([]string{"STARBUCKS", "UBER TRIP"}, []string{CategoryFood, CategoryTransport})

	assert.Contains(t, prompt, "Allowed labels: Food & Dining, Transport & Travel")
	assert.Contains(t, prompt, "0. STARBUCKS\n")
	assert.Contains(t, prompt, "1. UBER TRIP\n")
}
