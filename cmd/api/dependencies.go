// Package api wires configuration, storage, the ingestion pipeline and its
// callers into one dependency graph shared by the server and the CLI.
package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/FACorreiaa/statement-ingest/internal/domain/categorization"
	importhandler "github.com/FACorreiaa/statement-ingest/internal/domain/import/handler"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/registry"
	importrepo "github.com/FACorreiaa/statement-ingest/internal/domain/import/repository"
	importservice "github.com/FACorreiaa/statement-ingest/internal/domain/import/service"
	"github.com/FACorreiaa/statement-ingest/pkg/config"
	"github.com/FACorreiaa/statement-ingest/pkg/cron"
	"github.com/FACorreiaa/statement-ingest/pkg/db"
	"github.com/FACorreiaa/statement-ingest/pkg/metrics"
	"github.com/FACorreiaa/statement-ingest/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	DB      *db.DB // nil when Postgres is disabled
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// MetricsRegistry backs the /metrics endpoint.
	MetricsRegistry *prometheus.Registry

	// Configuration data
	Formats  *registry.Registry
	Keywords categorization.Keywords
	Rules    *categorization.Rules

	// Repositories
	TransactionRepo importrepo.TransactionRepository

	// Services
	Classifier    *categorization.InferenceClient
	Resolver      *categorization.Resolver
	IngestService *importservice.IngestService
	Scheduler     *cron.Scheduler
	FileStorage   storage.Storage // nil when archiving is disabled

	// Handlers
	ImportHandler *importhandler.ImportHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.MetricsRegistry = prometheus.NewRegistry()
	deps.MetricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Metrics = metrics.New(deps.MetricsRegistry)

	if err := deps.initConfigData(); err != nil {
		return nil, fmt.Errorf("failed to load ingest configuration: %w", err)
	}

	if cfg.Database.Enabled {
		if err := deps.initDatabase(); err != nil {
			return nil, fmt.Errorf("failed to init database: %w", err)
		}
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initConfigData loads the format registry, keyword dictionary and override rules.
func (d *Dependencies) initConfigData() error {
	formats, err := registry.Load(d.Config.Ingest.FormatsDir)
	if err != nil {
		return err
	}
	d.Formats = formats

	keywords, err := categorization.LoadKeywords(d.Config.Ingest.KeywordsFile)
	if err != nil {
		return err
	}
	d.Keywords = keywords

	if d.Config.Ingest.RulesFile != "" {
		rules, err := categorization.LoadRules(d.Config.Ingest.RulesFile)
		if err != nil {
			return err
		}
		d.Rules = rules
	} else {
		d.Rules = categorization.DefaultRules()
	}

	d.Logger.Info("ingest configuration loaded",
		slog.Int("formats", formats.Len()),
		slog.Int("keywords", len(keywords)),
		slog.Int("rules", d.Rules.Len()),
	)
	return nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	// Run migrations
	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	if d.DB != nil {
		d.TransactionRepo = importrepo.NewPostgresRepository(d.DB.Pool)
	} else {
		d.Logger.Warn("postgres disabled, transactions are kept in memory")
		d.TransactionRepo = importrepo.NewMemoryRepository()
	}

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	ic := d.Config.Ingest
	mode := categorization.Mode(ic.Mode)

	var classifier categorization.Classifier
	if mode == categorization.ModeML {
		factory, err := newClassifierFactory(d.Config, d.Keywords, d.Rules)
		if err != nil {
			return err
		}
		d.Classifier = categorization.NewInferenceClient(factory, categorization.ClientOptions{
			Timeout:       ic.ClassifierTimeout,
			RatePerSecond: ic.ClassifierRate,
			Burst:         ic.Concurrency,
		}, d.Logger)
		classifier = d.Classifier
	}

	resolver, err := categorization.NewResolver(d.Rules, d.Keywords, classifier, categorization.Options{
		Mode:        mode,
		BatchSize:   ic.BatchSize,
		Concurrency: ic.Concurrency,
		Threshold:   ic.FuzzyThreshold,
		Policy:      categorization.FailurePolicy(ic.FailurePolicy),
	}, d.Logger, d.Metrics)
	if err != nil {
		return fmt.Errorf("failed to build resolver: %w", err)
	}
	d.Resolver = resolver

	d.IngestService = importservice.NewIngestService(
		d.Formats,
		d.Resolver,
		d.TransactionRepo,
		importservice.Options{},
		d.Logger,
		d.Metrics,
	)

	if d.Config.Storage.Enabled {
		fs, err := storage.NewLocalStorage(d.Config.Storage.LocalPath)
		if err != nil {
			return fmt.Errorf("failed to init file storage: %w", err)
		}
		d.FileStorage = fs
	}

	if d.Config.Inbox.Enabled {
		d.Scheduler = cron.NewScheduler(d.Config.Inbox.Dir, d.Config.Inbox.Schedule, d.IngestService, d.Logger)
	}

	d.Logger.Info("services initialized",
		slog.String("mode", ic.Mode),
		slog.String("backend", ic.Backend),
		slog.Bool("inbox", d.Scheduler != nil),
	)
	return nil
}

// initHandlers initializes all HTTP handlers
func (d *Dependencies) initHandlers() error {
	d.ImportHandler = importhandler.NewImportHandler(d.IngestService, d.FileStorage, d.Config.Server.MaxUploadBytes, d.Logger)

	d.Logger.Info("handlers initialized")
	return nil
}

// Close releases resources held by the dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
