// Package fixtures generates synthetic bank statements shaped like the
// registered source formats. Used by tests, benchmarks and the CLI demo mode.
package fixtures

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/registry"
	"github.com/FACorreiaa/statement-ingest/pkg/money"
)

// Row is one generated statement line in canonical form. Amount follows the
// canonical sign convention (negative = outflow).
type Row struct {
	Date        time.Time
	AmountCents int64
	Description string
}

// StatementGenerator builds realistic statement rows using gofakeit.
type StatementGenerator struct {
	faker *gofakeit.Faker
}

// NewStatementGenerator creates a generator with a random seed.
func NewStatementGenerator() *StatementGenerator {
	return &StatementGenerator{faker: gofakeit.New(0)}
}

// NewStatementGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewStatementGeneratorWithSeed(seed int64) *StatementGenerator {
	return &StatementGenerator{faker: gofakeit.New(seed)}
}

var cardMerchants = []string{
	"STARBUCKS #%d SEATTLE WA",
	"SQ *BLUE BOTTLE COFFEE",
	"AMAZON MKTPLACE PMTS",
	"UBER *TRIP %d",
	"SHELL OIL %d",
	"NETFLIX.COM",
	"SPOTIFY USA",
	"WHOLEFDS MKT #%d",
	"TARGET T-%d",
	"CHEVRON %d",
	"COMCAST CABLE COMM",
	"DELTA AIR LINES",
	"WALGREENS #%d",
	"LYFT *RIDE",
}

var deposits = []string{
	"PAYROLL %s",
	"DIRECT DEP %s",
	"ZELLE FROM %s",
}

// Row generates a single random row dated within the last year.
func (g *StatementGenerator) Row() Row {
	now := time.Now().UTC()
	date := g.faker.DateRange(now.AddDate(-1, 0, 0), now)
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	// One in five rows is a deposit.
	if g.faker.Number(1, 5) == 1 {
		tmpl := deposits[g.faker.Number(0, len(deposits)-1)]
		return Row{
			Date:        date,
			AmountCents: int64(g.faker.Number(50000, 500000)),
			Description: strings.ToUpper(fmt.Sprintf(tmpl, g.faker.Company())),
		}
	}

	tmpl := cardMerchants[g.faker.Number(0, len(cardMerchants)-1)]
	desc := tmpl
	if strings.Contains(tmpl, "%d") {
		desc = fmt.Sprintf(tmpl, g.faker.Number(100, 9999))
	}
	return Row{
		Date:        date,
		AmountCents: -int64(g.faker.Number(100, 25000)),
		Description: desc,
	}
}

// Rows generates n random rows.
func (g *StatementGenerator) Rows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = g.Row()
	}
	return rows
}

// CSV renders rows in the layout of f: header names from the first alias of
// each column, the format's date pattern, delimiter and sign convention.
func CSV(f registry.SourceFormat, rows []Row) ([]byte, error) {
	layout := "01/02/2006"
	if f.DatePattern != "" {
		l, err := parser.ConvertDatePattern(f.DatePattern)
		if err != nil {
			return nil, fmt.Errorf("failed to convert date pattern: %w", err)
		}
		layout = l
	}

	columns := f.Columns
	header := make([]string, 0, 4)
	if f.HasHeader {
		columns = nil
		for _, c := range []string{registry.ColumnDate, registry.ColumnDescription, registry.ColumnAmount, registry.ColumnCategory} {
			aliases := f.Aliases(c)
			if len(aliases) == 0 {
				continue
			}
			columns = append(columns, c)
			header = append(header, aliases[0])
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if f.Delimiter != 0 {
		w.Comma = f.Delimiter
	}
	if f.HasHeader {
		if err := w.Write(header); err != nil {
			return nil, err
		}
	}

	for _, r := range rows {
		cents := r.AmountCents
		if f.SignFlip {
			cents = -cents
		}
		amount := money.FromCents(cents).StringFixed(2)
		if f.DecimalComma {
			amount = strings.Replace(amount, ".", ",", 1)
		}

		record := make([]string, len(columns))
		for i, c := range columns {
			switch strings.ToLower(c) {
			case registry.ColumnDate:
				record[i] = r.Date.Format(layout)
			case registry.ColumnAmount:
				record[i] = amount
			case registry.ColumnDescription:
				record[i] = r.Description
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write statement: %w", err)
	}
	return buf.Bytes(), nil
}
