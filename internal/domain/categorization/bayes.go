package categorization

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jbrukh/bayesian"
)

// BayesClassifier is a local naive Bayes backend trained from phrase lists.
// It is never retrained after construction, so concurrent Classify calls
// only read shared state.
type BayesClassifier struct {
	cl      *bayesian.Classifier
	classes []bayesian.Class
	vocab   map[string]bool
}

// NewBayesClassifier trains one class per category from its example phrases.
func NewBayesClassifier(training map[string][]string) (*BayesClassifier, error) {
	names := make([]string, 0, len(training))
	for category, phrases := range training {
		if len(phrases) > 0 {
			names = append(names, category)
		}
	}
	if len(names) < 2 {
		return nil, fmt.Errorf("bayes classifier needs at least two trained categories, got %d", len(names))
	}
	sort.Strings(names)

	b := &BayesClassifier{
		classes: make([]bayesian.Class, len(names)),
		vocab:   make(map[string]bool),
	}
	for i, n := range names {
		b.classes[i] = bayesian.Class(n)
	}
	b.cl = bayesian.NewClassifier(b.classes...)

	for _, n := range names {
		for _, phrase := range training[n] {
			terms := tokenize(phrase)
			if len(terms) == 0 {
				continue
			}
			for _, t := range terms {
				b.vocab[t] = true
			}
			b.cl.Learn(terms, bayesian.Class(n))
		}
	}
	return b, nil
}

// TrainingSet merges keyword phrases and rule literals per category.
func TrainingSet(keywords Keywords, rules *Rules) map[string][]string {
	out := keywords.ByCategory()
	if rules != nil {
		for category, literals := range rules.Literals() {
			out[category] = append(out[category], literals...)
		}
	}
	return out
}

// Classify ranks the trained categories that appear in labels. Texts with no
// known term get an empty ranking.
func (b *BayesClassifier) Classify(ctx context.Context, texts []string, labels []string) ([][]LabelScore, error) {
	_, want := allowedSet(labels)
	out := make([][]LabelScore, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		terms := b.known(tokenize(text))
		if len(terms) == 0 {
			continue
		}
		probs, _, _ := b.cl.ProbScores(terms)
		ranked := make([]LabelScore, 0, len(probs))
		for j, p := range probs {
			label := string(b.classes[j])
			if want[label] {
				ranked = append(ranked, LabelScore{Label: label, Confidence: p})
			}
		}
		out[i] = rankScores(ranked)
	}
	return out, nil
}

func (b *BayesClassifier) known(terms []string) []string {
	out := terms[:0]
	for _, t := range terms {
		if b.vocab[t] {
			out = append(out, t)
		}
	}
	return out
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(AggressiveClean(s)))
}
