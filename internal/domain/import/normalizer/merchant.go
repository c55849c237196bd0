package normalizer

import (
	"regexp"
	"strings"
)

// MerchantInfo is the display form of a raw statement description.
type MerchantInfo struct {
	Original string `json:"original"`
	Name     string `json:"name"`
}

// MerchantPattern maps a recognizable merchant to its display name.
type MerchantPattern struct {
	Pattern *regexp.Regexp
	Name    string
}

// MerchantSanitizer turns noisy card-processor descriptions into short
// merchant names used as simplified_description.
type MerchantSanitizer struct {
	patterns []MerchantPattern
}

func NewMerchantSanitizer() *MerchantSanitizer {
	return &MerchantSanitizer{patterns: defaultMerchantPatterns()}
}

var (
	processorPrefix = regexp.MustCompile(`(?i)^(?:SQ\s*\*|TST\*\s*|PAYPAL\s*\*|SP\s*\*?\s|POS\s+(?:PURCHASE\s+)?|DEBIT\s+CARD\s+PURCHASE\s+|PURCHASE\s+(?:AUTHORIZED\s+)?(?:ON\s+\d{1,2}/\d{1,2}\s+)?|CHECKCARD\s+\d{4}\s+|RECURRING\s+PAYMENT\s+)`)
	storeNumber     = regexp.MustCompile(`\s*#\s*\d+`)
	trailingRef     = regexp.MustCompile(`\s+[A-Z]*\d{4,}[A-Z0-9]*$`)
	trailingDate    = regexp.MustCompile(`\s+\d{1,2}/\d{1,2}(?:/\d{2,4})?$`)
	trailingState   = regexp.MustCompile(`\s+[A-Z]{2}$`)
	cardFragment    = regexp.MustCompile(`(?i)\s+CARD\s*\d+`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// Sanitize returns the display name for raw.
func (s *MerchantSanitizer) Sanitize(raw string) MerchantInfo {
	info := MerchantInfo{Original: raw}

	upper := strings.ToUpper(strings.TrimSpace(raw))
	for _, p := range s.patterns {
		if p.Pattern.MatchString(upper) {
			info.Name = p.Name
			return info
		}
	}

	info.Name = titleCase(cleanMerchantName(raw))
	if info.Name == "" {
		info.Name = strings.TrimSpace(raw)
	}
	return info
}

// Name is a shortcut for Sanitize(raw).Name.
func (s *MerchantSanitizer) Name(raw string) string {
	return s.Sanitize(raw).Name
}

func cleanMerchantName(raw string) string {
	result := strings.ToUpper(strings.TrimSpace(raw))
	result = processorPrefix.ReplaceAllString(result, "")
	result = cardFragment.ReplaceAllString(result, "")
	result = storeNumber.ReplaceAllString(result, "")

	// strip trailing noise until stable: "STORE 1234 08/14 CA"
	for {
		before := result
		result = trailingDate.ReplaceAllString(result, "")
		result = trailingRef.ReplaceAllString(result, "")
		if f := strings.Fields(result); len(f) > 1 {
			result = trailingState.ReplaceAllString(result, "")
		}
		if result == before {
			break
		}
	}

	result = whitespaceRun.ReplaceAllString(result, " ")
	return strings.Trim(result, " *-")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}

func defaultMerchantPatterns() []MerchantPattern {
	return []MerchantPattern{
		// delivery before rideshare so UBER EATS is not read as a ride
		{regexp.MustCompile(`UBER\s*EATS`), "Uber Eats"},
		{regexp.MustCompile(`DOORDASH|DD\s*\*\s*DOORDASH`), "DoorDash"},
		{regexp.MustCompile(`GRUBHUB`), "Grubhub"},
		{regexp.MustCompile(`STARBUCKS`), "Starbucks"},
		{regexp.MustCompile(`DUNKIN`), "Dunkin'"},
		{regexp.MustCompile(`MC\s*DONALD`), "McDonald's"},
		{regexp.MustCompile(`CHIPOTLE`), "Chipotle"},
		{regexp.MustCompile(`SAFEWAY`), "Safeway"},
		{regexp.MustCompile(`TRADER\s*JOE`), "Trader Joe's"},
		{regexp.MustCompile(`WHOLE\s*FOODS|WHOLEFDS`), "Whole Foods"},
		{regexp.MustCompile(`KROGER`), "Kroger"},

		{regexp.MustCompile(`\bUBER\b`), "Uber"},
		{regexp.MustCompile(`\bLYFT\b`), "Lyft"},
		{regexp.MustCompile(`SHELL\s+OIL|\bSHELL\b`), "Shell"},
		{regexp.MustCompile(`CHEVRON`), "Chevron"},
		{regexp.MustCompile(`DELTA\s+AIR`), "Delta Air Lines"},
		{regexp.MustCompile(`UNITED\s+AIRLINES|UNITED\s+\d{10,}`), "United Airlines"},

		{regexp.MustCompile(`AMAZON|AMZN`), "Amazon"},
		{regexp.MustCompile(`TARGET`), "Target"},
		{regexp.MustCompile(`WAL-?MART|WM\s+SUPERCENTER`), "Walmart"},
		{regexp.MustCompile(`COSTCO`), "Costco"},
		{regexp.MustCompile(`BEST\s*BUY`), "Best Buy"},
		{regexp.MustCompile(`APPLE\.COM|APPLE\s+STORE`), "Apple"},

		{regexp.MustCompile(`NETFLIX`), "Netflix"},
		{regexp.MustCompile(`SPOTIFY`), "Spotify"},
		{regexp.MustCompile(`COMCAST|XFINITY`), "Xfinity"},
		{regexp.MustCompile(`VERIZON`), "Verizon"},
		{regexp.MustCompile(`AT\s*&\s*T`), "AT&T"},
		{regexp.MustCompile(`PG\s*&\s*E`), "PG&E"},

		{regexp.MustCompile(`VENMO`), "Venmo"},
		{regexp.MustCompile(`ZELLE`), "Zelle"},
		{regexp.MustCompile(`PAYPAL`), "PayPal"},
	}
}
