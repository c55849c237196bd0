// Package parser reads statement uploads into raw string records and coerces
// individual cells. Schema mapping lives in the normalizer package.
package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/sniffer"
)

// ReadRecords returns every non-blank record of a sniffed upload.
// delimiter overrides the sniffed one when non-zero.
func ReadRecords(sample *sniffer.Sample, delimiter rune) ([][]string, error) {
	if sample.Kind == sniffer.KindXLSX {
		return ReadXLSX(sample.Data)
	}
	if delimiter == 0 {
		delimiter = sample.Delimiter
	}
	return ReadCSV(sample.Data, delimiter)
}

// ReadCSV reads all records with lazy quotes and a variable field count.
func ReadCSV(data []byte, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if isBlank(record) {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
