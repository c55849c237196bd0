package categorization

import "strings"

// Canonical categories.
const (
	CategoryIncome    = "Income"
	CategoryTransfer  = "Transfer"
	CategoryBills     = "Bills & Utilities"
	CategoryFood      = "Food & Dining"
	CategoryShopping  = "Shopping"
	CategoryTransport = "Transport & Travel"
	CategoryFees      = "Fees & Taxes"
	CategoryOther     = "Other"

	// Uncategorized is the fuzzy-mode label for rows no keyword matched.
	Uncategorized = "uncategorized"
)

// DefaultCategories is the allowed label set used when a caller supplies none.
var DefaultCategories = []string{
	CategoryIncome,
	CategoryTransfer,
	CategoryBills,
	CategoryFood,
	CategoryShopping,
	CategoryTransport,
	CategoryFees,
	CategoryOther,
}

// defaultLabelAliases maps labels that classifiers tend to produce onto the
// canonical set.
var defaultLabelAliases = map[string]string{
	"Utilities":      CategoryBills,
	"Bills":          CategoryBills,
	"Subscriptions":  CategoryBills,
	"Groceries":      CategoryFood,
	"Dining":         CategoryFood,
	"Restaurants":    CategoryFood,
	"Food & Drink":   CategoryFood,
	"Travel":         CategoryTransport,
	"Transport":      CategoryTransport,
	"Transportation": CategoryTransport,
	"Fees":           CategoryFees,
	"Taxes":          CategoryFees,
	"Salary":         CategoryIncome,
	"Transfers":      CategoryTransfer,
}

// LabelMapper translates backend-native labels into canonical categories.
type LabelMapper struct {
	exact  map[string]string
	folded map[string]string
}

// NewLabelMapper builds a mapper over the canonical set plus the default
// aliases; extra aliases take precedence over the defaults.
func NewLabelMapper(extra map[string]string) *LabelMapper {
	m := &LabelMapper{
		exact:  make(map[string]string),
		folded: make(map[string]string),
	}
	add := func(label, category string) {
		m.exact[label] = category
		m.folded[strings.ToLower(strings.TrimSpace(label))] = category
	}
	for _, c := range DefaultCategories {
		add(c, c)
	}
	for label, c := range defaultLabelAliases {
		add(label, c)
	}
	for label, c := range extra {
		add(label, c)
	}
	return m
}

// Map returns the canonical category for label, or Other when unknown.
func (m *LabelMapper) Map(label string) string {
	if c, ok := m.exact[label]; ok {
		return c
	}
	if c, ok := m.folded[strings.ToLower(strings.TrimSpace(label))]; ok {
		return c
	}
	return CategoryOther
}

// allowedSet returns the effective label list and its membership set.
func allowedSet(allowed []string) ([]string, map[string]bool) {
	if len(allowed) == 0 {
		allowed = DefaultCategories
	}
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}
	return allowed, set
}
