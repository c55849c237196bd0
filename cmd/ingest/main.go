// Command ingest runs one statement through the ingestion pipeline and
// prints the resulting transactions.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/statement-ingest/cmd/api"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/fixtures"
	"github.com/FACorreiaa/statement-ingest/internal/domain/transaction"
	"github.com/FACorreiaa/statement-ingest/pkg/config"
	"github.com/FACorreiaa/statement-ingest/pkg/money"
)

func main() {
	var (
		file     = flag.String("file", "", "Statement file to ingest (CSV or XLSX)")
		source   = flag.String("source", "", "Source format key; empty means auto-detect")
		user     = flag.String("user", "", "User id the rows belong to (required)")
		fake     = flag.Int("fake", 0, "Ingest N generated rows in the given --source format instead of --file")
		output   = flag.String("output", "table", "Output format: table or csv")
		currency = flag.String("currency", money.USD, "ISO 4217 code used to display amounts")
		persist  = flag.Bool("persist", false, "Write to Postgres instead of an in-memory store")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	cfg.Database.Enabled = *persist
	cfg.Inbox.Enabled = false

	logger := api.NewLogger(os.Stderr, cfg.Observability.LogLevel, false)

	if *user == "" {
		logger.Error("--user is required")
		os.Exit(2)
	}
	if (*file == "") == (*fake == 0) {
		logger.Error("exactly one of --file or --fake is required")
		os.Exit(2)
	}

	deps, err := api.InitDependencies(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	raw, err := readInput(deps, *file, *source, *fake)
	if err != nil {
		logger.Error("failed to read input", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := deps.IngestService.Ingest(ctx, raw, *user, *source)
	if err != nil {
		logger.Error("ingestion failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ingestion completed",
		slog.String("source", result.SourceKey),
		slog.Int("inserted", result.InsertedCount),
		slog.Int("duplicates", result.SkippedAsDuplicate),
	)

	switch *output {
	case "csv":
		err = gocsv.Marshal(transaction.Records(result.Rows), os.Stdout)
	default:
		err = printTable(os.Stdout, result.Rows, *currency)
	}
	if err != nil {
		logger.Error("failed to write output", "error", err)
		os.Exit(1)
	}
}

func readInput(deps *api.Dependencies, file, source string, fake int) ([]byte, error) {
	if fake == 0 {
		return os.ReadFile(file)
	}
	if source == "" {
		return nil, fmt.Errorf("--fake needs --source to pick the layout")
	}
	f, err := deps.Formats.Lookup(source)
	if err != nil {
		return nil, err
	}
	return fixtures.CSV(f, fixtures.NewStatementGenerator().Rows(fake))
}

func printTable(w io.Writer, rows []transaction.Transaction, currency string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "DATE\tAMOUNT\tCATEGORY\tMERCHANT\t")
	var total int64
	for _, r := range rows {
		total += r.AmountCents
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			r.Date.Format(transaction.DateLayout),
			money.Format(r.AmountCents, currency),
			r.Category,
			r.SimplifiedDescription,
		)
	}
	fmt.Fprintf(tw, "\t%s\t\t%d rows\t\n", money.Format(total, currency), len(rows))
	return tw.Flush()
}
