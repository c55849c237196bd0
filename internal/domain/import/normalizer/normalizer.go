// Package normalizer maps raw statement uploads onto canonical transaction
// rows using a registry source format, and auto-detects the format when the
// caller does not name one.
package normalizer

import (
	"errors"
	"math"
	"strings"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/parser"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/registry"
	"github.com/FACorreiaa/statement-ingest/internal/domain/import/sniffer"
	"github.com/FACorreiaa/statement-ingest/internal/domain/ingesterr"
	"github.com/FACorreiaa/statement-ingest/internal/domain/transaction"
	"github.com/FACorreiaa/statement-ingest/pkg/money"
)

// Other is the category assigned to source category codes with no translation.
const Other = "Other"

// Stats counts what happened to the data rows of one file.
type Stats struct {
	DataRows          int
	Kept              int
	BadDate           int
	BadAmount         int
	EmptyDescription  int
	Short             int // headerless rows with too few fields
	Excluded          int
	Translated        int
	HeaderFingerprint string
}

// Result is the output of a successful normalization.
type Result struct {
	Rows  []transaction.Transaction
	Stats Stats
}

// Normalize converts raw upload bytes into canonical rows using f.
// Only Date, AmountCents, Description and Category are populated.
func Normalize(raw []byte, f registry.SourceFormat) ([]transaction.Transaction, error) {
	res, err := NormalizeSource("", raw, f)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// NormalizeSource is Normalize with a source key for error reporting and
// per-row statistics.
func NormalizeSource(key string, raw []byte, f registry.SourceFormat) (*Result, error) {
	sample, err := sniffer.Sniff(raw)
	if err != nil {
		return nil, &ingesterr.SchemaMismatchError{Source: key, Reason: err.Error()}
	}
	records, err := parser.ReadRecords(sample, f.Delimiter)
	if err != nil {
		return nil, &ingesterr.SchemaMismatchError{Source: key, Reason: err.Error()}
	}
	if len(records) == 0 {
		return nil, &ingesterr.SchemaMismatchError{Source: key, Reason: "file has no records"}
	}

	dates, err := parser.NewDateParser(f.DatePattern)
	if err != nil {
		return nil, &ingesterr.ConfigError{Source: key, Field: "date_pattern", Err: err}
	}

	var (
		layout columnLayout
		body   [][]string
		stats  Stats
	)
	if f.HasHeader {
		stats.HeaderFingerprint = sniffer.HeaderFingerprint(records[0])
		layout = headerLayout(records[0], f)
		if missing := layout.missing(); len(missing) > 0 {
			return nil, &ingesterr.SchemaMismatchError{Source: key, Missing: missing}
		}
		body = records[1:]
	} else {
		layout = positionalLayout(f.Columns, f.OriginalCategoryColumn)
		body = records
	}

	exclusions := NewExclusionMatcher(f.ExcludedDescriptionPatterns)
	rows := make([]transaction.Transaction, 0, len(body))
	coerced := 0
	for _, record := range body {
		stats.DataRows++
		if !f.HasHeader && len(record) <= layout.maxRequired() {
			stats.Short++
			continue
		}

		date, err := dates.Parse(cell(record, layout.date))
		if err != nil {
			stats.BadDate++
			continue
		}
		cents, err := money.ParseCents(cell(record, layout.amount), f.DecimalComma)
		if err != nil || (f.SignFlip && cents == math.MinInt64) {
			stats.BadAmount++
			continue
		}
		coerced++
		desc := strings.TrimSpace(cell(record, layout.description))
		if desc == "" {
			stats.EmptyDescription++
			continue
		}
		if f.SignFlip {
			cents = -cents
		}
		if exclusions.Excluded(desc) {
			stats.Excluded++
			continue
		}

		tx := transaction.Transaction{
			Date:        date,
			AmountCents: cents,
			Description: desc,
		}
		if layout.category >= 0 {
			if code := strings.TrimSpace(cell(record, layout.category)); code != "" {
				tx.Category = translateCategory(code, f.CategoryTranslation)
				stats.Translated++
			}
		}
		rows = append(rows, tx)
	}

	stats.Kept = len(rows)
	// Rows dropped only by description checks or exclusions still prove the
	// format fits.
	if coerced == 0 {
		return nil, &ingesterr.SchemaMismatchError{Source: key, Reason: "no rows survived date and amount coercion"}
	}
	return &Result{Rows: rows, Stats: stats}, nil
}

// translateCategory maps a source category code to a canonical category.
// Exact keys win over case-insensitive ones, which the registry keeps unique;
// unmapped codes become Other.
func translateCategory(code string, table map[string]string) string {
	if c, ok := table[code]; ok {
		return c
	}
	for k, c := range table {
		if strings.EqualFold(strings.TrimSpace(k), code) {
			return c
		}
	}
	return Other
}

// columnLayout holds record indexes of the canonical columns, -1 when absent.
type columnLayout struct {
	date, amount, description, category int
}

func (l columnLayout) missing() []string {
	var out []string
	if l.date < 0 {
		out = append(out, registry.ColumnDate)
	}
	if l.amount < 0 {
		out = append(out, registry.ColumnAmount)
	}
	if l.description < 0 {
		out = append(out, registry.ColumnDescription)
	}
	return out
}

func (l columnLayout) maxRequired() int {
	return max(l.date, l.amount, l.description)
}

// headerLayout assigns each canonical column the first header token, in file
// order, that equals one of its aliases. A header column is claimed at most once.
func headerLayout(header []string, f registry.SourceFormat) columnLayout {
	tokens := make([]string, len(header))
	for i, h := range header {
		tokens[i] = strings.ToLower(strings.TrimSpace(h))
	}

	claimed := make(map[int]bool, 4)
	find := func(column string) int {
		aliases := f.Aliases(column)
		if len(aliases) == 0 {
			return -1
		}
		want := make(map[string]bool, len(aliases))
		for _, a := range aliases {
			want[strings.ToLower(strings.TrimSpace(a))] = true
		}
		for i, tok := range tokens {
			if want[tok] && !claimed[i] {
				claimed[i] = true
				return i
			}
		}
		return -1
	}

	return columnLayout{
		date:        find(registry.ColumnDate),
		amount:      find(registry.ColumnAmount),
		description: find(registry.ColumnDescription),
		category:    find(registry.ColumnCategory),
	}
}

func positionalLayout(columns []string, categoryColumn string) columnLayout {
	l := columnLayout{date: -1, amount: -1, description: -1, category: -1}
	categoryColumn = strings.ToLower(strings.TrimSpace(categoryColumn))
	for i, c := range columns {
		switch c {
		case registry.ColumnDate:
			l.date = i
		case registry.ColumnAmount:
			l.amount = i
		case registry.ColumnDescription:
			l.description = i
		}
		if c == registry.ColumnCategory || (categoryColumn != "" && c == categoryColumn) {
			l.category = i
		}
	}
	return l
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// IsSchemaMismatch reports whether err means the file does not fit the format.
func IsSchemaMismatch(err error) bool {
	var target *ingesterr.SchemaMismatchError
	return errors.As(err, &target)
}
