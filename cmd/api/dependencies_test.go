package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-ingest/internal/domain/categorization"
	"github.com/FACorreiaa/statement-ingest/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RateLimitPerSecond: 100, RateLimitBurst: 100, AllowedOrigins: []string{"*"}},
		Ingest: config.IngestConfig{
			FormatsDir:        "../../configs/formats",
			KeywordsFile:      "../../configs/keywords.yaml",
			Mode:              "ml",
			Backend:           "bayes",
			BatchSize:         16,
			Concurrency:       2,
			FuzzyThreshold:    80,
			ClassifierTimeout: time.Second,
			FailurePolicy:     "degrade",
		},
		Inbox:         config.InboxConfig{Enabled: true, Dir: "inbox", Schedule: "@every 1h"},
		Observability: config.ObservabilityConfig{MetricsEnabled: true},
	}
}

func TestInitDependencies_InMemory(t *testing.T) {
	deps, err := InitDependencies(testConfig(), NewLogger(io.Discard, "error", false))
	require.NoError(t, err)
	defer deps.Close()

	assert.Nil(t, deps.DB)
	assert.NotNil(t, deps.TransactionRepo)
	assert.Equal(t, categorization.ModeML, deps.Resolver.Mode())
	assert.NotNil(t, deps.Scheduler)
	assert.False(t, deps.Classifier.Ready(), "backend is built lazily")
	assert.Equal(t, 5, deps.Formats.Len())
}

func TestInitDependencies_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"missing formats", func(c *config.Config) { c.Ingest.FormatsDir = "does-not-exist" }},
		{"missing keywords", func(c *config.Config) { c.Ingest.KeywordsFile = "does-not-exist.yaml" }},
		{"unknown backend", func(c *config.Config) { c.Ingest.Backend = "oracle" }},
		{"unknown mode", func(c *config.Config) { c.Ingest.Mode = "psychic" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			_, err := InitDependencies(cfg, NewLogger(io.Discard, "error", false))
			assert.Error(t, err)
		})
	}
}

func TestClassifierFactory_Bayes(t *testing.T) {
	deps, err := InitDependencies(testConfig(), NewLogger(io.Discard, "error", false))
	require.NoError(t, err)

	factory, err := newClassifierFactory(deps.Config, deps.Keywords, deps.Rules)
	require.NoError(t, err)
	cl, err := factory(context.Background())
	require.NoError(t, err)

	scores, err := cl.Classify(context.Background(), []string{"NETFLIX"}, categorization.DefaultCategories)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	require.NotEmpty(t, scores[0])
	assert.Equal(t, categorization.CategoryBills, scores[0][0].Label)
}

func TestRouter_Health(t *testing.T) {
	deps, err := InitDependencies(testConfig(), NewLogger(io.Discard, "error", false))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	deps.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","classifier_ready":false}`, rec.Body.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
