package categorization

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule tiers, in evaluation order.
const (
	TierMoneyMovement = "money_movement"
	TierMerchant      = "merchant"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// OverrideRule assigns Category to any description Pattern matches.
type OverrideRule struct {
	Pattern  *regexp.Regexp
	Category string
}

// Rules holds the deterministic override tables. Money movement (income,
// transfers) is evaluated before merchant patterns.
type Rules struct {
	MoneyMovement []OverrideRule
	Merchant      []OverrideRule
}

type ruleDefinition struct {
	Pattern  string `yaml:"pattern"`
	Category string `yaml:"category"`
}

type rulesFile struct {
	MoneyMovement []ruleDefinition `yaml:"money_movement"`
	Merchant      []ruleDefinition `yaml:"merchant"`
}

// DefaultRules returns the built-in override tables.
func DefaultRules() *Rules {
	r, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("categorization: embedded rules are invalid: %v", err))
	}
	return r
}

// LoadRules reads override tables from a YAML file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	r, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	return r, nil
}

// ParseRules compiles a rules document. Patterns are case-insensitive.
func ParseRules(data []byte) (*Rules, error) {
	var doc rulesFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	mm, err := compileTier(TierMoneyMovement, doc.MoneyMovement)
	if err != nil {
		return nil, err
	}
	merchant, err := compileTier(TierMerchant, doc.Merchant)
	if err != nil {
		return nil, err
	}
	return &Rules{MoneyMovement: mm, Merchant: merchant}, nil
}

func compileTier(tier string, defs []ruleDefinition) ([]OverrideRule, error) {
	out := make([]OverrideRule, 0, len(defs))
	for i, d := range defs {
		if strings.TrimSpace(d.Pattern) == "" || strings.TrimSpace(d.Category) == "" {
			return nil, fmt.Errorf("%s[%d]: pattern and category are required", tier, i)
		}
		re, err := regexp.Compile("(?i)" + d.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", tier, i, err)
		}
		out = append(out, OverrideRule{Pattern: re, Category: d.Category})
	}
	return out, nil
}

// Match returns the first allowed category whose pattern matches text,
// checking money movement before merchants.
func (r *Rules) Match(text string, allowed map[string]bool) (category, tier string, ok bool) {
	if r == nil || text == "" {
		return "", "", false
	}
	for _, rule := range r.MoneyMovement {
		if allowed[rule.Category] && rule.Pattern.MatchString(text) {
			return rule.Category, TierMoneyMovement, true
		}
	}
	for _, rule := range r.Merchant {
		if allowed[rule.Category] && rule.Pattern.MatchString(text) {
			return rule.Category, TierMerchant, true
		}
	}
	return "", "", false
}

// Len returns the number of rules across both tiers.
func (r *Rules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.MoneyMovement) + len(r.Merchant)
}

var literalAlternation = regexp.MustCompile(`^\\b\((.*)\)\\b$`)

// Literals returns, per category, the plain-word alternatives of each
// pattern of the form \b(A|B|C)\b. Regex-bearing alternatives are skipped.
// Used to seed local classifiers.
func (r *Rules) Literals() map[string][]string {
	out := make(map[string][]string)
	for _, tier := range [][]OverrideRule{r.MoneyMovement, r.Merchant} {
		for _, rule := range tier {
			src := strings.TrimPrefix(rule.Pattern.String(), "(?i)")
			m := literalAlternation.FindStringSubmatch(src)
			if m == nil {
				continue
			}
			for _, alt := range strings.Split(m[1], "|") {
				if alt == "" || strings.ContainsAny(alt, `\?[]()+*.`) {
					continue
				}
				out[rule.Category] = append(out[rule.Category], alt)
			}
		}
	}
	return out
}
