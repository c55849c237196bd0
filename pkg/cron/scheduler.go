// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/service"
	"github.com/FACorreiaa/statement-ingest/internal/domain/ingesterr"
)

const (
	processedDir = "processed"
	failedDir    = "failed"
	// sourceSeparator splits "<source>__<name>.csv" file names.
	sourceSeparator = "__"
)

// Ingester is the pipeline entry point the inbox job feeds.
type Ingester interface {
	Ingest(ctx context.Context, raw []byte, userID, sourceKey string) (*service.IngestResult, error)
}

// Summary counts the outcome of one inbox sweep.
type Summary struct {
	Processed int
	Failed    int
	Retried   int // left in place after an infrastructure error
	Inserted  int
}

// Scheduler periodically ingests statements dropped into <dir>/<user_id>/.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	dir      string
	ingester Ingester
	logger   *slog.Logger

	// sweeps never overlap
	mu sync.Mutex
}

// NewScheduler creates a new inbox scheduler.
func NewScheduler(dir, schedule string, ingester Ingester, logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		schedule: schedule,
		dir:      dir,
		ingester: ingester,
		logger:   logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create inbox dir: %w", err)
	}
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return fmt.Errorf("failed to schedule inbox job %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.String("inbox", s.dir),
		slog.String("schedule", s.schedule),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers an inbox sweep.
func (s *Scheduler) RunNow() {
	go s.sweep()
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("inbox sweep failed", slog.Any("error", err))
	}
}

// RunOnce ingests every pending file in the inbox. Successful files move to
// <user>/processed, rejected ones to <user>/failed. Files that failed for
// infrastructure reasons stay put and are retried on the next sweep.
func (s *Scheduler) RunOnce(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum Summary
	users, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return sum, nil
		}
		return sum, fmt.Errorf("failed to read inbox: %w", err)
	}

	s.logger.Info("starting inbox sweep", slog.String("inbox", s.dir))

	for _, u := range users {
		if !u.IsDir() {
			continue
		}
		userID := u.Name()
		files, err := pendingFiles(filepath.Join(s.dir, userID))
		if err != nil {
			s.logger.Warn("failed to list user inbox", slog.String("user_id", userID), slog.Any("error", err))
			continue
		}
		for _, path := range files {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			s.ingestFile(ctx, userID, path, &sum)
		}
	}

	s.logger.Info("inbox sweep completed",
		slog.Int("processed", sum.Processed),
		slog.Int("failed", sum.Failed),
		slog.Int("retried", sum.Retried),
		slog.Int("inserted", sum.Inserted),
	)
	return sum, nil
}

func (s *Scheduler) ingestFile(ctx context.Context, userID, path string, sum *Summary) {
	name := filepath.Base(path)
	logger := s.logger.With(slog.String("user_id", userID), slog.String("file", name))

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read inbox file", slog.Any("error", err))
		sum.Retried++
		return
	}

	result, err := s.ingester.Ingest(ctx, raw, userID, SourceFromName(name))
	if err != nil {
		if !ingesterr.IsUserError(err) {
			logger.Warn("inbox file will be retried", slog.Any("error", err))
			sum.Retried++
			return
		}
		logger.Warn("inbox file rejected", slog.Any("error", err))
		sum.Failed++
		if err := moveTo(path, failedDir); err != nil {
			logger.Error("failed to move rejected file", slog.Any("error", err))
		}
		return
	}

	logger.Debug("inbox file ingested",
		slog.String("source", result.SourceKey),
		slog.Int("inserted", result.InsertedCount),
		slog.Int("duplicates", result.SkippedAsDuplicate),
	)
	sum.Processed++
	sum.Inserted += result.InsertedCount
	if err := moveTo(path, processedDir); err != nil {
		logger.Error("failed to move processed file", slog.Any("error", err))
	}
}

// SourceFromName returns the format key encoded as "<key>__rest" in a file
// name, or "" to request auto-detection.
func SourceFromName(name string) string {
	key, _, found := strings.Cut(filepath.Base(name), sourceSeparator)
	if !found || key == "" {
		return ""
	}
	return key
}

func pendingFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".xlsx":
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func moveTo(path, sub string) error {
	dest := filepath.Join(filepath.Dir(path), sub)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	return os.Rename(path, filepath.Join(dest, filepath.Base(path)))
}
