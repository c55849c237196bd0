package categorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelMapper_Map(t *testing.T) {
	m := NewLabelMapper(map[string]string{"Coffee": CategoryFood})

	tests := []struct {
		label    string
		expected string
	}{
		{"Food & Dining", CategoryFood},
		{"Utilities", CategoryBills},
		{"  food & dining ", CategoryFood},
		{"TRAVEL", CategoryTransport},
		{"Coffee", CategoryFood},
		{"Pets", CategoryOther},
		{"", CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.expected, m.Map(tt.label))
		})
	}
}

func TestAllowedSet(t *testing.T) {
	labels, set := allowedSet(nil)
	assert.Equal(t, DefaultCategories, labels)
	assert.Len(t, set, 8)
	assert.True(t, set[CategoryBills])
	assert.False(t, set["Utilities"])

	labels, set = allowedSet([]string{"A", "B"})
	assert.Equal(t, []string{"A", "B"}, labels)
	assert.Len(t, set, 2)
}
