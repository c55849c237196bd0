package normalizer

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// ExclusionMatcher flags noise rows (autopay confirmations and the like) by
// case-insensitive substring match. All patterns are matched in a single
// Aho-Corasick pass over the description.
type ExclusionMatcher struct {
	matcher  *ahocorasick.Matcher
	patterns []string // upper-cased, in matcher order
}

// NewExclusionMatcher builds a matcher; blank and repeated patterns are ignored.
func NewExclusionMatcher(patterns []string) *ExclusionMatcher {
	m := &ExclusionMatcher{}
	seen := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		m.patterns = append(m.patterns, p)
	}
	if len(m.patterns) == 0 {
		return m
	}

	dict := make([][]byte, len(m.patterns))
	for i, p := range m.patterns {
		dict[i] = []byte(p)
	}
	m.matcher = ahocorasick.NewMatcher(dict)
	return m
}

// Match returns the first configured pattern found in description.
func (m *ExclusionMatcher) Match(description string) (string, bool) {
	if m == nil || m.matcher == nil {
		return "", false
	}
	hits := m.matcher.Match([]byte(strings.ToUpper(description)))
	if len(hits) == 0 {
		return "", false
	}
	best := hits[0]
	for _, idx := range hits[1:] {
		if idx < best {
			best = idx
		}
	}
	return m.patterns[best], true
}

// Excluded reports whether description matches any pattern.
func (m *ExclusionMatcher) Excluded(description string) bool {
	_, ok := m.Match(description)
	return ok
}

// Len returns the number of distinct patterns.
func (m *ExclusionMatcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.patterns)
}
