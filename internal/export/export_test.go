package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/payreq-extractor/internal/extract"
)

func amount(v float64) *float64 { return &v }

var records = []extract.Record{
	{
		FileName:      "one.pdf",
		RequestNumber: "SU0150109",
		PayeeCode:     "0019990",
		Date:          "12/04/2025",
		Beneficiary:   "Ahmed Ali",
		Amount:        amount(15230),
		Description:   "Electricity invoices settlement",
	},
	{
		FileName:      "two.pdf",
		RequestNumber: "SU0150110",
		Beneficiary:   "شركة النيل للتوريدات",
	},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, utf8BOM), "missing BOM")

	rows, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{
		"one.pdf", "SU0150109", "0019990", "12/04/2025", "Ahmed Ali", "15230.00", "Electricity invoices settlement",
	}, rows[1])
	assert.Equal(t, "", rows[2][5], "absent amount renders empty")
	assert.Equal(t, "شركة النيل للتوريدات", rows[2][4])
}

func TestWriteCSV_NoRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteXLSX_ReadBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, records))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "SU0150109", rows[1][1])
	assert.Equal(t, "0019990", rows[1][2], "payee code keeps leading zeros")
	assert.Equal(t, "15230", rows[1][5])

	formatted, err := f.GetCellValue(SheetName, "F2")
	require.NoError(t, err)
	assert.Equal(t, "15,230.00", formatted)

	empty, err := f.GetCellValue(SheetName, "F3")
	require.NoError(t, err)
	assert.Empty(t, empty)

	view, err := f.GetSheetView(SheetName, 0)
	require.NoError(t, err)
	require.NotNil(t, view.RightToLeft)
	assert.True(t, *view.RightToLeft)
}

func TestFileNames(t *testing.T) {
	now := time.Date(2025, time.April, 12, 9, 5, 0, 0, time.UTC)
	xlsxName, csvName := FileNames(now)
	assert.Equal(t, "payment_requests_20250412_0905.xlsx", xlsxName)
	assert.Equal(t, "payment_requests_20250412_0905.csv", csvName)
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	now := time.Date(2025, time.April, 12, 9, 5, 0, 0, time.UTC)

	xlsxPath, csvPath, err := WriteFiles(dir, records, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "payment_requests_20250412_0905.xlsx"), xlsxPath)
	assert.Equal(t, filepath.Join(dir, "payment_requests_20250412_0905.csv"), csvPath)

	for _, p := range []string{xlsxPath, csvPath} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}
