// Package money converts statement amount text into integer cents and back.
// Parsing goes through shopspring/decimal so no value ever passes through a
// float; display uses go-money for ISO-4217 aware formatting.
package money

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// USD is the default display currency (ISO-4217).
const USD = "USD"

var (
	// ErrEmptyAmount is returned for blank amount cells.
	ErrEmptyAmount = errors.New("empty amount")
	// ErrAmountOutOfRange is returned when cents do not fit in an int64.
	ErrAmountOutOfRange = errors.New("amount out of range")
)

var (
	isoCodeRe   = regexp.MustCompile(`(?i)^[a-z]{3}\s*|\s*[a-z]{3}$`)
	numericBody = regexp.MustCompile(`^[0-9.,']+$`)
	hundred     = decimal.NewFromInt(100)
	maxCents    = decimal.NewFromInt(math.MaxInt64)
	minCents    = decimal.NewFromInt(math.MinInt64)
)

// ParseDecimal parses a bank amount cell.
// Accepts "1,234.56", "-12.50", "(12.50)", "12.50-", "$ 3.10", "EUR 4.00" and,
// when decimalComma is set, "1.234,56".
func ParseDecimal(raw string, decimalComma bool) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	s = isoCodeRe.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, s)

	negative := false
	switch {
	case strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"):
		negative = true
		s = s[1 : len(s)-1]
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasSuffix(s, "-"):
		negative = true
		s = s[:len(s)-1]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	if s == "" || !numericBody.MatchString(s) {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}

	s = strings.ReplaceAll(s, "'", "")
	if decimalComma {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// ToCents converts a decimal amount to integer cents.
// Half-cent values round half away from zero: 1.005 -> 101, -6.455 -> -646.
func ToCents(d decimal.Decimal) (int64, error) {
	c := d.Mul(hundred).Round(0)
	if c.GreaterThan(maxCents) || c.LessThan(minCents) {
		return 0, fmt.Errorf("%w: %s", ErrAmountOutOfRange, d.String())
	}
	return c.IntPart(), nil
}

// ParseCents is ParseDecimal followed by ToCents.
func ParseCents(raw string, decimalComma bool) (int64, error) {
	d, err := ParseDecimal(raw, decimalComma)
	if err != nil {
		return 0, err
	}
	return ToCents(d)
}

// FromCents returns the exact decimal value of cents.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Format renders cents for humans, e.g. Format(-645, "USD") == "-$6.45".
// Unknown currency codes fall back to a plain two-decimal rendering.
func Format(cents int64, currencyCode string) string {
	if money.GetCurrency(currencyCode) == nil {
		return FromCents(cents).StringFixed(2)
	}
	return money.New(cents, currencyCode).Display()
}
