package categorization

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClassifierFactory builds the inference backend on first use.
type ClassifierFactory func(ctx context.Context) (Classifier, error)

// ClientOptions tunes an InferenceClient.
type ClientOptions struct {
	// Timeout bounds every Classify call. Zero disables the bound.
	Timeout time.Duration
	// RatePerSecond limits backend calls; zero means unlimited.
	RatePerSecond float64
	Burst         int
}

// InferenceClient owns the inference backend for the lifetime of the
// service. The backend is built once, on the first Classify, behind a single
// initialization barrier; a failed build is retried on the next call.
type InferenceClient struct {
	factory ClassifierFactory
	limiter *rate.Limiter
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	done    bool
	backend Classifier
}

// NewInferenceClient creates a client; nothing is loaded until first use.
func NewInferenceClient(factory ClassifierFactory, opts ClientOptions, logger *slog.Logger) *InferenceClient {
	if logger == nil {
		logger = slog.Default()
	}
	c := &InferenceClient{
		factory: factory,
		timeout: opts.Timeout,
		logger:  logger,
	}
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return c
}

// StaticClient wraps an already built backend.
func StaticClient(backend Classifier, opts ClientOptions, logger *slog.Logger) *InferenceClient {
	return NewInferenceClient(func(context.Context) (Classifier, error) { return backend, nil }, opts, logger)
}

func (c *InferenceClient) ensure(ctx context.Context) (Classifier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return c.backend, nil
	}

	start := time.Now()
	backend, err := c.factory(ctx)
	if err != nil {
		c.logger.Warn("Failed to initialize classifier", "error", err)
		return nil, fmt.Errorf("failed to initialize classifier: %w", err)
	}
	c.backend = backend
	c.done = true
	c.logger.Info("Classifier initialized", "duration", time.Since(start))
	return backend, nil
}

// Ready reports whether the backend has been built.
func (c *InferenceClient) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Classify builds the backend if needed, waits for the rate limiter and
// calls the backend under the configured timeout.
func (c *InferenceClient) Classify(ctx context.Context, texts []string, labels []string) ([][]LabelScore, error) {
	backend, err := c.ensure(ctx)
	if err != nil {
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("failed waiting for rate limiter: %w", err)
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := backend.Classify(ctx, texts, labels)
	if err != nil {
		return nil, err
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("classifier returned %d results for %d texts", len(out), len(texts))
	}
	return out, nil
}
