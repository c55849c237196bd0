package categorization

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/statement-ingest/internal/domain/ingesterr"
	"github.com/FACorreiaa/statement-ingest/pkg/metrics"
)

// Mode selects how rows without an override are resolved.
type Mode string

const (
	ModeML    Mode = "ml"
	ModeFuzzy Mode = "fuzzy"
)

// FailurePolicy decides what happens when the classifier is unavailable.
type FailurePolicy string

const (
	// PolicyDegrade assigns Other to every unresolved row of a failed batch.
	PolicyDegrade FailurePolicy = "degrade"
	// PolicyFail aborts with ClassificationUnavailableError.
	PolicyFail FailurePolicy = "fail"
)

// Tiers reported in Resolution besides the rule tiers.
const (
	TierModel    = "model"
	TierKeyword  = "keyword"
	TierDefault  = "default"
	TierDegraded = "degraded"
)

const (
	DefaultBatchSize   = 16
	DefaultConcurrency = 4
)

// Options configures a Resolver. Zero values select defaults.
type Options struct {
	Mode        Mode
	BatchSize   int
	Concurrency int
	Threshold   int
	Policy      FailurePolicy
	// LabelAliases extends the built-in label mapping.
	LabelAliases map[string]string
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeML
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultFuzzyThreshold
	}
	if o.Policy == "" {
		o.Policy = PolicyDegrade
	}
	return o
}

// Resolution is the category decision for one description.
type Resolution struct {
	Category string
	Tier     string
	// Keyword and Score are set for fuzzy keyword matches.
	Keyword string
	Score   int
}

// Resolver assigns categories: override rules first, then either the
// classifier (ml mode) or the keyword matcher (fuzzy mode).
type Resolver struct {
	opts       Options
	rules      *Rules
	keywords   *KeywordMatcher
	classifier Classifier
	mapper     *LabelMapper
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewResolver wires a resolver. rules may be nil for the built-in tables;
// classifier is required in ml mode only.
func NewResolver(rules *Rules, keywords Keywords, classifier Classifier, opts Options, logger *slog.Logger, m *metrics.Metrics) (*Resolver, error) {
	opts = opts.withDefaults()
	switch opts.Mode {
	case ModeML:
		if classifier == nil {
			return nil, errors.New("ml mode requires a classifier")
		}
	case ModeFuzzy:
	default:
		return nil, fmt.Errorf("unknown categorization mode %q", opts.Mode)
	}
	if opts.Policy != PolicyDegrade && opts.Policy != PolicyFail {
		return nil, fmt.Errorf("unknown failure policy %q", opts.Policy)
	}
	if rules == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		opts:       opts,
		rules:      rules,
		keywords:   NewKeywordMatcher(keywords, opts.Threshold, nil),
		classifier: classifier,
		mapper:     NewLabelMapper(opts.LabelAliases),
		logger:     logger,
		metrics:    m,
	}, nil
}

// Mode returns the configured resolution mode.
func (r *Resolver) Mode() Mode { return r.opts.Mode }

// Categories is Resolve reduced to category names.
func (r *Resolver) Categories(ctx context.Context, descriptions []string, allowed []string) ([]string, error) {
	res, err := r.Resolve(ctx, descriptions, allowed)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(res))
	for i, x := range res {
		out[i] = x.Category
	}
	return out, nil
}

// Resolve returns one Resolution per description, index-aligned. An empty
// allowed list means DefaultCategories.
func (r *Resolver) Resolve(ctx context.Context, descriptions []string, allowed []string) ([]Resolution, error) {
	if len(descriptions) == 0 {
		return nil, nil
	}
	labels, set := allowedSet(allowed)
	out := make([]Resolution, len(descriptions))

	var (
		pending []int
		texts   []string
	)
	for i, desc := range descriptions {
		clean := Preclean(desc)
		if category, tier, ok := r.rules.Match(clean, set); ok {
			out[i] = Resolution{Category: category, Tier: tier}
			continue
		}

		if r.opts.Mode == ModeFuzzy {
			if m, ok := r.keywords.Match(desc); ok {
				out[i] = Resolution{Category: m.Category, Tier: TierKeyword, Keyword: m.Keyword, Score: m.Score}
			} else {
				out[i] = Resolution{Category: Uncategorized, Tier: TierDefault}
			}
			continue
		}

		text := clean
		if text == "" {
			text = desc
		}
		pending = append(pending, i)
		texts = append(texts, text)
	}

	if len(pending) > 0 {
		if err := r.classify(ctx, pending, texts, labels, set, out); err != nil {
			return nil, err
		}
	}

	for _, x := range out {
		r.metrics.CategoryDecision(x.Tier)
	}
	return out, nil
}

// classify runs the pending texts through the classifier in concurrent
// batches, writing each result back to its original index.
func (r *Resolver) classify(ctx context.Context, pending []int, texts, labels []string, allowed map[string]bool, out []Resolution) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	for batch, start := 0, 0; start < len(texts); batch, start = batch+1, start+r.opts.BatchSize {
		end := min(start+r.opts.BatchSize, len(texts))

		g.Go(func() error {
			began := time.Now()
			ranked, err := r.classifier.Classify(gctx, texts[start:end], labels)
			if err == nil && len(ranked) != end-start {
				err = fmt.Errorf("classifier returned %d results for %d texts", len(ranked), end-start)
			}
			r.metrics.ClassifierBatch(time.Since(began), err)

			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if r.opts.Policy == PolicyFail {
					return &ingesterr.ClassificationUnavailableError{Batch: batch, Err: err}
				}
				r.logger.Warn("Classifier unavailable, assigning default category",
					"batch", batch,
					"rows", end-start,
					"error", err)
				for k := start; k < end; k++ {
					out[pending[k]] = Resolution{Category: CategoryOther, Tier: TierDegraded}
				}
				return nil
			}

			for k, scores := range ranked {
				out[pending[start+k]] = r.pick(scores, allowed)
			}
			return nil
		})
	}
	return g.Wait()
}

// pick maps each ranked label (unknown labels become Other) and returns the
// first mapped category that is allowed.
func (r *Resolver) pick(scores []LabelScore, allowed map[string]bool) Resolution {
	for _, s := range scores {
		if allowed[s.Label] {
			return Resolution{Category: s.Label, Tier: TierModel}
		}
		if mapped := r.mapper.Map(s.Label); allowed[mapped] {
			return Resolution{Category: mapped, Tier: TierModel}
		}
	}
	return Resolution{Category: CategoryOther, Tier: TierDefault}
}
