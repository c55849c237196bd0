package categorization

import (
	"context"
	"sort"
)

// LabelScore is one candidate label with the backend's confidence.
type LabelScore struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classifier is a batched text classifier. For every input text it returns
// candidate labels ranked by descending confidence, index-aligned with texts.
// Implementations must be safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, texts []string, labels []string) ([][]LabelScore, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, texts []string, labels []string) ([][]LabelScore, error)

func (f ClassifierFunc) Classify(ctx context.Context, texts []string, labels []string) ([][]LabelScore, error) {
	return f(ctx, texts, labels)
}

func rankScores(scores []LabelScore) []LabelScore {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Confidence > scores[j].Confidence
	})
	return scores
}
