package categorization

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules_Match(t *testing.T) {
	rules := DefaultRules()
	assert.Equal(t, 10, rules.Len())

	_, all := allowedSet(nil)

	tests := []struct {
		name     string
		text     string
		category string
		tier     string
		ok       bool
	}{
		{"merchant override", "STARBUCKS #1234 SEATTLE WA", CategoryFood, TierMerchant, true},
		{"money movement wins over merchant", "ZELLE TO STARBUCKS", CategoryTransfer, TierMoneyMovement, true},
		{"income", "ACME CORP PAYROLL", CategoryIncome, TierMoneyMovement, true},
		{"transport", "UBER TRIP", CategoryTransport, TierMerchant, true},
		{"case insensitive", "netflix.com", CategoryBills, TierMerchant, true},
		{"accented cafe", "CAFÉ DU MONDE", CategoryFood, TierMerchant, true},
		{"accented cafe at end", "LE PETIT CAFÉ", CategoryFood, TierMerchant, true},
		{"lowercase accented cafe", "blue café 12", CategoryFood, TierMerchant, true},
		{"plain cafe", "CAFE NERO", CategoryFood, TierMerchant, true},
		{"cafe inside a word", "CAFÉS R US", "", "", false},
		{"no match", "MYSTERY VENDOR LLC", "", "", false},
		{"empty", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, tier, ok := rules.Match(tt.text, all)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.tier, tier)
		})
	}
}

func TestRules_MatchRespectsAllowed(t *testing.T) {
	rules := DefaultRules()
	allowed := map[string]bool{CategoryFood: true}

	category, tier, ok := rules.Match("ZELLE TO STARBUCKS", allowed)
	require.True(t, ok)
	assert.Equal(t, CategoryFood, category)
	assert.Equal(t, TierMerchant, tier)
}

func TestParseRules_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad regex", "merchant:\n  - pattern: '(unclosed'\n    category: Shopping\n"},
		{"missing category", "money_movement:\n  - pattern: 'PAYROLL'\n"},
		{"not yaml", "merchant: [unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRules([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("merchant:\n  - pattern: '\\bBLUE BOTTLE\\b'\n    category: Food & Dining\n"), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, 1, rules.Len())

	category, _, ok := rules.Match("SQ *BLUE BOTTLE", map[string]bool{CategoryFood: true})
	assert.True(t, ok)
	assert.Equal(t, CategoryFood, category)

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRules_Literals(t *testing.T) {
	literals := DefaultRules().Literals()

	assert.Contains(t, literals[CategoryIncome], "PAYROLL")
	assert.Contains(t, literals[CategoryIncome], "DIRECT DEPOSIT")
	assert.Contains(t, literals[CategoryFood], "STARBUCKS")
	assert.NotContains(t, literals[CategoryTransfer], "CASH ?APP")
	assert.NotContains(t, literals[CategoryTransport], "GAS( STATION)?")
}
