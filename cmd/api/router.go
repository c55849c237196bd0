package api

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/statement-ingest/pkg/middleware"
)

// Router builds the HTTP surface: API routes behind CORS, rate limiting,
// tracing and request logging, plus health and metrics endpoints.
func (d *Dependencies) Router() http.Handler {
	mux := http.NewServeMux()
	d.ImportHandler.Register(mux)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":           "ok",
			"classifier_ready": d.Classifier == nil || d.Classifier.Ready(),
		})
	})
	if d.Config.Observability.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.HandlerFor(d.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	srv := d.Config.Server
	limiter := rate.NewLimiter(rate.Limit(srv.RateLimitPerSecond), srv.RateLimitBurst)

	return middleware.Chain(mux,
		middleware.CORS(srv.AllowedOrigins),
		middleware.RateLimit(limiter),
		middleware.Tracing,
		middleware.Logging(d.Logger),
	)
}
