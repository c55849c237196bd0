// Package service orchestrates statement ingestion: normalize, categorize,
// fingerprint, dedupe and persist.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/statement-ingest/internal/domain/categorization"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/normalizer"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/repository"
	"github.com/FACorreiaa/statement-ingest/internal/domain/ingesterr"
	"github.com/FACorreiaa/statement-ingest/internal/domain/transaction"
	"github.com/FACorreiaa/statement-ingest/pkg/metrics"
)

var tracer = otel.Tracer("statement-ingest/service")

// CategoryResolver resolves index-aligned categories for descriptions.
type CategoryResolver interface {
	Resolve(ctx context.Context, descriptions []string, allowed []string) ([]categorization.Resolution, error)
}

// IngestResult summarizes one Ingest call.
type IngestResult struct {
	IngestID           uuid.UUID
	SourceKey          string
	InsertedCount      int
	SkippedAsDuplicate int
	DroppedInBatch     int
	Stats              normalizer.Stats
	Rows               []transaction.Transaction
}

// Options tunes an IngestService. Zero values are valid.
type Options struct {
	// Allowed restricts the categories the resolver may assign; empty means
	// the canonical set.
	Allowed []string
}

// IngestService runs the ingestion pipeline for one statement at a time.
// It holds no per-request state and is safe for concurrent use.
type IngestService struct {
	formats   normalizer.Formats
	resolver  CategoryResolver
	repo      repository.TransactionRepository
	merchants *normalizer.MerchantSanitizer
	opts      Options
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewIngestService(
	formats normalizer.Formats,
	resolver CategoryResolver,
	repo repository.TransactionRepository,
	opts Options,
	logger *slog.Logger,
	m *metrics.Metrics,
) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{
		formats:   formats,
		resolver:  resolver,
		repo:      repo,
		merchants: normalizer.NewMerchantSanitizer(),
		opts:      opts,
		logger:    logger,
		metrics:   m,
	}
}

// Ingest turns raw statement bytes into persisted transactions for userID.
// An empty sourceKey selects auto-detection. Re-ingesting the same file
// inserts nothing and reports every row as a duplicate.
func (s *IngestService) Ingest(ctx context.Context, raw []byte, userID, sourceKey string) (result *IngestResult, err error) {
	ingestID := uuid.New()
	ctx, span := tracer.Start(ctx, "ingest",
		trace.WithAttributes(
			attribute.String("ingest.id", ingestID.String()),
			attribute.String("ingest.source", sourceKey),
			attribute.Int("ingest.bytes", len(raw)),
		),
	)
	start := time.Now()
	defer func() {
		s.metrics.IngestDuration(time.Since(start))
		if err != nil {
			s.metrics.IngestFailed(ingesterr.Kind(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, ingesterr.Kind(err))
		}
		span.End()
	}()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ingesterr.ErrMissingUser
	}

	logger := s.logger.With(
		slog.String("ingest_id", ingestID.String()),
		slog.String("user_id", userID),
	)

	norm, key, err := s.normalize(ctx, raw, sourceKey, logger)
	if err != nil {
		logger.Warn("statement rejected", "source", sourceKey, "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.String("ingest.source", key))
	s.recordStats(key, norm.Stats)

	rows := norm.Rows
	if err := s.categorize(ctx, rows); err != nil {
		logger.Error("categorization failed", "source", key, "error", err)
		return nil, err
	}

	transaction.Stamp(rows, userID)
	unique, dropped := transaction.DedupeBatch(rows)

	inserted, err := s.persist(ctx, unique)
	if err != nil {
		logger.Error("failed to persist transactions", "source", key, "rows", len(unique), "error", err)
		return nil, err
	}

	skipped := len(unique) - inserted + dropped
	s.metrics.Persisted(inserted, skipped)

	logger.Info("statement ingested",
		slog.String("source", key),
		slog.Int("rows", len(rows)),
		slog.Int("inserted", inserted),
		slog.Int("duplicates", skipped),
		slog.Int("dropped_in_batch", dropped),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &IngestResult{
		IngestID:           ingestID,
		SourceKey:          key,
		InsertedCount:      inserted,
		SkippedAsDuplicate: skipped,
		DroppedInBatch:     dropped,
		Stats:              norm.Stats,
		Rows:               unique,
	}, nil
}

// Transactions returns everything stored for userID.
func (s *IngestService) Transactions(ctx context.Context, userID string) ([]transaction.Transaction, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ingesterr.ErrMissingUser
	}
	ctx, span := tracer.Start(ctx, "transactions.find")
	defer span.End()

	rows, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return rows, nil
}

func (s *IngestService) normalize(ctx context.Context, raw []byte, sourceKey string, logger *slog.Logger) (*normalizer.Result, string, error) {
	_, span := tracer.Start(ctx, "ingest.normalize")
	defer span.End()

	if sourceKey != "" {
		f, err := s.formats.Lookup(sourceKey)
		if err != nil {
			return nil, "", err
		}
		res, err := normalizer.NormalizeSource(sourceKey, raw, f)
		if err != nil {
			return nil, "", err
		}
		return res, sourceKey, nil
	}

	d := normalizer.Detector{
		OnAttempt: func(key string, err error) {
			if err != nil {
				logger.Debug("format did not match", "source", key, "error", err)
			}
		},
	}
	res, key, err := d.Match(raw, s.formats)
	if err != nil {
		return nil, "", err
	}
	span.SetAttributes(attribute.String("ingest.detected_source", key))
	logger.Debug("format detected", "source", key)
	return res, key, nil
}

// categorize fills Category for unresolved rows and SimplifiedDescription for all rows.
func (s *IngestService) categorize(ctx context.Context, rows []transaction.Transaction) error {
	ctx, span := tracer.Start(ctx, "ingest.categorize")
	defer span.End()

	var (
		pending []int
		descs   []string
	)
	for i := range rows {
		if !rows[i].Resolved() {
			pending = append(pending, i)
			descs = append(descs, rows[i].Description)
		}
	}
	span.SetAttributes(attribute.Int("categorize.pending", len(pending)))

	keywordFor := make(map[int]string, len(pending))
	if len(pending) > 0 {
		resolutions, err := s.resolver.Resolve(ctx, descs, s.opts.Allowed)
		if err != nil {
			span.RecordError(err)
			return err
		}
		if len(resolutions) != len(pending) {
			return fmt.Errorf("resolver returned %d categories for %d rows", len(resolutions), len(pending))
		}
		for j, idx := range pending {
			rows[idx].Category = resolutions[j].Category
			if resolutions[j].Keyword != "" {
				keywordFor[idx] = resolutions[j].Keyword
			}
		}
	}

	for i := range rows {
		if kw, ok := keywordFor[i]; ok {
			rows[i].SimplifiedDescription = kw
			continue
		}
		rows[i].SimplifiedDescription = s.merchants.Name(rows[i].Description)
	}
	return nil
}

func (s *IngestService) persist(ctx context.Context, rows []transaction.Transaction) (int, error) {
	ctx, span := tracer.Start(ctx, "ingest.persist", trace.WithAttributes(attribute.Int("persist.rows", len(rows))))
	defer span.End()

	inserted, err := s.repo.InsertMany(ctx, rows)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	span.SetAttributes(attribute.Int("persist.inserted", inserted))
	return inserted, nil
}

func (s *IngestService) recordStats(source string, st normalizer.Stats) {
	s.metrics.RowsNormalized(source, st.Kept)
	s.metrics.RowsDropped(source, "bad_date", st.BadDate)
	s.metrics.RowsDropped(source, "bad_amount", st.BadAmount)
	s.metrics.RowsDropped(source, "empty_description", st.EmptyDescription)
	s.metrics.RowsDropped(source, "short_row", st.Short)
	s.metrics.RowsDropped(source, "excluded", st.Excluded)
}
