package categorization

import (
	"math"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultFuzzyThreshold is the score a keyword must exceed to be accepted.
const DefaultFuzzyThreshold = 80

// Scorer returns a similarity score in [0,100] between a cleaned
// description and an upper-cased keyword.
type Scorer func(text, keyword string) int

// FuzzyMatch is the outcome of matching one description.
type FuzzyMatch struct {
	Keyword  string
	Category string
	Score    int
}

// KeywordMatcher resolves descriptions against the keyword dictionary by
// partial-ratio similarity. It is read-only after construction.
type KeywordMatcher struct {
	keywords  []Keyword // phrases upper-cased
	threshold int
	score     Scorer
}

// NewKeywordMatcher builds a matcher; a nil scorer means PartialRatio.
func NewKeywordMatcher(keywords Keywords, threshold int, score Scorer) *KeywordMatcher {
	if score == nil {
		score = PartialRatio
	}
	km := &KeywordMatcher{
		keywords:  make([]Keyword, len(keywords)),
		threshold: threshold,
		score:     score,
	}
	for i, kw := range keywords {
		km.keywords[i] = Keyword{Phrase: strings.ToUpper(kw.Phrase), Category: kw.Category}
	}
	return km
}

// Match returns the first highest-scoring keyword whose score is strictly
// above the threshold.
func (km *KeywordMatcher) Match(description string) (FuzzyMatch, bool) {
	text := AggressiveClean(description)

	var best FuzzyMatch
	found := false
	for _, kw := range km.keywords {
		score := km.score(text, kw.Phrase)
		if score <= km.threshold {
			continue
		}
		if !found || score > best.Score {
			best = FuzzyMatch{Keyword: kw.Phrase, Category: kw.Category, Score: score}
			found = true
		}
	}
	return best, found
}

// Len returns the number of dictionary phrases.
func (km *KeywordMatcher) Len() int {
	return len(km.keywords)
}

// PartialRatio scores how well the shorter string fits anywhere inside the
// longer one: 100 for containment, otherwise the best Levenshtein similarity
// over every window of the longer string with the shorter string's length.
func PartialRatio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if strings.Contains(string(long), string(short)) {
		return 100
	}

	n := len(short)
	needle := string(short)
	best := n
	for i := 0; i+n <= len(long); i++ {
		if d := fuzzy.LevenshteinDistance(needle, string(long[i:i+n])); d < best {
			best = d
			if best == 0 {
				break
			}
		}
	}
	return int(math.Round(100 * float64(n-best) / float64(n)))
}
