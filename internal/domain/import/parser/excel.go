package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX returns the rows of the sheet most likely to hold transactions.
func ReadXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := findTransactionSheet(f.GetSheetList())
	if sheet == "" {
		return nil, fmt.Errorf("no sheets found")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		records = append(records, row)
	}
	return records, nil
}

// findTransactionSheet prefers well-known sheet names and falls back to the first sheet.
func findTransactionSheet(sheets []string) string {
	if len(sheets) == 0 {
		return ""
	}

	preferredNames := []string{"transactions", "statement", "activity", "sheet1"}
	for _, preferred := range preferredNames {
		for _, sheet := range sheets {
			if strings.EqualFold(sheet, preferred) {
				return sheet
			}
		}
	}
	return sheets[0]
}
