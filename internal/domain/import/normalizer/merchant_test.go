package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerchantSanitizer_Sanitize(t *testing.T) {
	sanitizer := NewMerchantSanitizer()

	tests := []struct {
		name         string
		input        string
		expectedName string
	}{
		{"starbucks with store number", "STARBUCKS STORE #1234 SEATTLE WA", "Starbucks"},
		{"uber eats before uber", "UBER EATS HELP.UBER.COM", "Uber Eats"},
		{"uber ride", "UBER *TRIP 12/01", "Uber"},
		{"amazon marketplace", "AMZN Mktp US*2K4LL1234", "Amazon"},
		{"zelle", "Zelle payment to JOHN", "Zelle"},
		{"unknown merchant gets title case", "SQ *BLUE BOTTLE COFFEE 456789", "Blue Bottle Coffee"},
		{"trailing date and state", "CORNER DELI 08/14 NY", "Corner Deli"},
		{"purchase prefix", "PURCHASE AUTHORIZED ON 08/14 LOCAL BAKERY", "Local Bakery"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := sanitizer.Sanitize(tt.input)
			assert.Equal(t, tt.input, info.Original)
			assert.Equal(t, tt.expectedName, info.Name)
		})
	}
}

func TestMerchantSanitizer_FallsBackToRaw(t *testing.T) {
	sanitizer := NewMerchantSanitizer()
	assert.Equal(t, "123456", sanitizer.Name("123456"))
}
