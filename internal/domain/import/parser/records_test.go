package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/statement-ingest/internal/domain/import/sniffer"
)

func TestReadCSV(t *testing.T) {
	data := []byte("Date,Description,Amount\n2025-01-01,\"COFFEE, LARGE\",-3.00\n\n,,\n2025-01-02,SHORT\n")

	records, err := ReadCSV(data, ',')
	require.NoError(t, err)
	require.Len(t, records, 3, "blank records are skipped")
	assert.Equal(t, []string{"2025-01-01", "COFFEE, LARGE", "-3.00"}, records[1])
	assert.Len(t, records[2], 2, "ragged rows are kept")
}

func TestReadRecords_UsesOverrideDelimiter(t *testing.T) {
	sample, err := sniffer.Sniff([]byte("a;b;c,d\n1;2;3,4\n"))
	require.NoError(t, err)

	records, err := ReadRecords(sample, ',')
	require.NoError(t, err)
	assert.Equal(t, []string{"a;b;c", "d"}, records[0])

	records, err = ReadRecords(sample, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c,d"}, records[0])
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet("Transactions")
	require.NoError(t, err)
	f.SetActiveSheet(idx)
	require.NoError(t, f.SetSheetRow("Transactions", "A1", &[]interface{}{"Date", "Description", "Amount"}))
	require.NoError(t, f.SetSheetRow("Transactions", "A2", &[]interface{}{"2025-07-26", "STARBUCKS", "-6.45"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	sample, err := sniffer.Sniff(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, sniffer.KindXLSX, sample.Kind)

	records, err := ReadRecords(sample, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Date", "Description", "Amount"}, records[0])
	assert.Equal(t, "STARBUCKS", records[1][1])
}

func TestFindTransactionSheet(t *testing.T) {
	assert.Equal(t, "Transactions", findTransactionSheet([]string{"Summary", "Transactions"}))
	assert.Equal(t, "Summary", findTransactionSheet([]string{"Summary", "Other"}))
	assert.Equal(t, "", findTransactionSheet(nil))
}
