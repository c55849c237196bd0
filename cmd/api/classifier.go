package api

import (
	"context"
	"fmt"

	"github.com/FACorreiaa/statement-ingest/internal/domain/categorization"
	"github.com/FACorreiaa/statement-ingest/pkg/config"
)

// newClassifierFactory returns the factory for the configured backend. The
// factory runs once, on the first classification request.
func newClassifierFactory(cfg *config.Config, keywords categorization.Keywords, rules *categorization.Rules) (categorization.ClassifierFactory, error) {
	switch cfg.Ingest.Backend {
	case "bayes":
		return func(context.Context) (categorization.Classifier, error) {
			return categorization.NewBayesClassifier(categorization.TrainingSet(keywords, rules))
		}, nil
	case "gemini":
		apiKey, model := cfg.Gemini.APIKey, cfg.Gemini.Model
		return func(ctx context.Context) (categorization.Classifier, error) {
			return categorization.NewGeminiClassifier(ctx, apiKey, model)
		}, nil
	}
	return nil, fmt.Errorf("unknown classifier backend %q", cfg.Ingest.Backend)
}
