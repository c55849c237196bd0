// Package e2etest provides end-to-end tests for statement ingestion flows.
package e2etest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/statement-ingest/cmd/api"
	"github.com/FACorreiaa/statement-ingest/internal/domain/categorization"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/fixtures"
	"github.com/FACorreiaa/statement-ingest/pkg/config"
)

const (
	configsDir  = "../../configs"
	testDataDir = "../../internal/domain/import/normalizer/testdata"
)

func testConfig(mode string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			RateLimitPerSecond: 1000,
			RateLimitBurst:     1000,
			AllowedOrigins:     []string{"*"},
			MaxUploadBytes:     1 << 20,
		},
		Database: config.DatabaseConfig{Enabled: false},
		Ingest: config.IngestConfig{
			FormatsDir:        filepath.Join(configsDir, "formats"),
			KeywordsFile:      filepath.Join(configsDir, "keywords.yaml"),
			Mode:              mode,
			Backend:           "bayes",
			BatchSize:         4,
			Concurrency:       2,
			FuzzyThreshold:    80,
			ClassifierTimeout: 5 * time.Second,
			FailurePolicy:     "degrade",
		},
		Observability: config.ObservabilityConfig{LogLevel: "error", MetricsEnabled: true},
	}
}

func newServer(t *testing.T, mode string) (*api.Dependencies, *httptest.Server) {
	t.Helper()
	logger := api.NewLogger(io.Discard, "error", false)
	deps, err := api.InitDependencies(testConfig(mode), logger)
	require.NoError(t, err)
	t.Cleanup(deps.Close)

	srv := httptest.NewServer(deps.Router())
	t.Cleanup(srv.Close)
	return deps, srv
}

type uploadResult struct {
	Source             string `json:"source"`
	InsertedCount      int    `json:"inserted_count"`
	SkippedAsDuplicate int    `json:"skipped_as_duplicate"`
	Transactions       []struct {
		Date                  string `json:"date"`
		Amount                string `json:"amount"`
		Description           string `json:"description"`
		Category              string `json:"category"`
		SimplifiedDescription string `json:"simplified_description"`
	} `json:"transactions"`
}

func upload(t *testing.T, srv *httptest.Server, user, source string, data []byte) (int, uploadResult) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "statement.csv")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	if source != "" {
		require.NoError(t, mw.WriteField("source", source))
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/transactions/upload", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-ID", user)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out uploadResult
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func TestIngest_FuzzyModeOverHTTP(t *testing.T) {
	_, srv := newServer(t, "fuzzy")

	data, err := os.ReadFile(filepath.Join(testDataDir, "chase_credit.csv"))
	require.NoError(t, err)

	status, first := upload(t, srv, "alice", "", data)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "chase_credit", first.Source)
	assert.Equal(t, 4, first.InsertedCount)
	for _, tx := range first.Transactions {
		assert.NotEmpty(t, tx.Category, tx.Description)
		assert.NotEmpty(t, tx.SimplifiedDescription, tx.Description)
	}

	status, second := upload(t, srv, "alice", "chase_credit", data)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, second.InsertedCount)
	assert.Equal(t, 4, second.SkippedAsDuplicate)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/transactions?format=csv", nil)
	require.NoError(t, err)
	req.Header.Set("X-User-ID", "alice")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	csvBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, bytes.Count(csvBody, []byte("\n")), "header plus four rows")
}

func TestIngest_BayesModeWithGeneratedStatement(t *testing.T) {
	deps, srv := newServer(t, "ml")

	f, err := deps.Formats.Lookup("wells_fargo")
	require.NoError(t, err)
	rows := fixtures.NewStatementGeneratorWithSeed(3).Rows(25)
	// no override rule covers this one, so the classifier must run
	rows = append(rows, fixtures.Row{
		Date:        time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		AmountCents: -1299,
		Description: "WALGREENS #4411",
	})
	data, err := fixtures.CSV(f, rows)
	require.NoError(t, err)

	status, res := upload(t, srv, "bob", "wells_fargo", data)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "wells_fargo", res.Source)
	assert.Equal(t, len(res.Transactions), res.InsertedCount)
	assert.True(t, deps.Classifier.Ready(), "classifier is built on first use")

	allowed := make(map[string]bool)
	for _, c := range categorization.DefaultCategories {
		allowed[c] = true
	}
	for _, tx := range res.Transactions {
		assert.True(t, allowed[tx.Category], "unexpected category %q", tx.Category)
	}
}

func TestIngest_UserErrorsOverHTTP(t *testing.T) {
	_, srv := newServer(t, "fuzzy")

	status, _ := upload(t, srv, "alice", "", []byte("nothing,to,see\n1,2,3\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = upload(t, srv, "alice", "no_such_bank", []byte("a,b\n"))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = upload(t, srv, "", "amex", []byte("a,b\n"))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestMetricsEndpoint(t *testing.T) {
	_, srv := newServer(t, "fuzzy")

	data, err := os.ReadFile(filepath.Join(testDataDir, "wells_fargo.csv"))
	require.NoError(t, err)
	status, _ := upload(t, srv, "carol", "wells_fargo", data)
	require.Equal(t, http.StatusOK, status)

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}
