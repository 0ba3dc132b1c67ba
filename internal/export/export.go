// Package export writes payment request records as an XLSX workbook and a
// UTF-8 CSV file.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/payreq-extractor/internal/extract"
)

// SheetName is the name of the single worksheet
const SheetName = "طلبات الصرف"

// Columns are the export headers, in order
var Columns = []string{"File_Name", "SU_Number", "PayTO", "Date", "Beneficiary", "Amount", "Description"}

// utf8BOM lets spreadsheet applications detect the encoding of the CSV file
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// amountFormat is the built-in "#,##0.00" number format
const amountFormat = 4

// amountColumn is the 1-based index of the Amount column
const amountColumn = 6

var columnWidths = map[string]float64{
	"A": 28, // file name
	"B": 14, // request number
	"C": 12, // payee code
	"D": 12, // date
	"E": 36, // beneficiary
	"F": 16, // amount
	"G": 60, // description
}

func row(r extract.Record) []string {
	return []string{
		r.FileName,
		r.RequestNumber,
		r.PayeeCode,
		r.Date,
		r.Beneficiary,
		r.AmountString(),
		r.Description,
	}
}

// Workbook builds the XLSX workbook for records. The caller must Close it.
func Workbook(records []extract.Record) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := fillSheet(f, records); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func fillSheet(f *excelize.File, records []extract.Record) error {
	for i, h := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for i, r := range records {
		rowNum := i + 2
		for col, v := range row(r) {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			var value any = v
			if col+1 == amountColumn {
				if !r.HasAmount() {
					continue
				}
				value = *r.Amount
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return fmt.Errorf("write row %d: %w", rowNum, err)
			}
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(Columns), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	if len(records) > 0 {
		amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: amountFormat})
		if err != nil {
			return fmt.Errorf("amount style: %w", err)
		}
		first, _ := excelize.CoordinatesToCellName(amountColumn, 2)
		last, _ := excelize.CoordinatesToCellName(amountColumn, len(records)+1)
		if err := f.SetCellStyle(SheetName, first, last, amountStyle); err != nil {
			return fmt.Errorf("apply amount style: %w", err)
		}
	}

	for col, width := range columnWidths {
		_ = f.SetColWidth(SheetName, col, col, width)
	}

	rtl := true
	if err := f.SetSheetView(SheetName, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return fmt.Errorf("sheet view: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	return nil
}

// WriteXLSX writes records as an XLSX workbook to w
func WriteXLSX(w io.Writer, records []extract.Record) error {
	f, err := Workbook(records)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// WriteCSV writes records as BOM-prefixed UTF-8 CSV to w
func WriteCSV(w io.Writer, records []extract.Record) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("csv write: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	return nil
}

// FileNames returns the timestamped XLSX and CSV file names for a run at now
func FileNames(now time.Time) (xlsxName, csvName string) {
	stamp := now.Format("20060102_1504")
	return "payment_requests_" + stamp + ".xlsx", "payment_requests_" + stamp + ".csv"
}

// WriteFiles writes both export files into dir and returns their paths
func WriteFiles(dir string, records []extract.Record, now time.Time) (xlsxPath, csvPath string, err error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}

	xlsxName, csvName := FileNames(now)
	xlsxPath = filepath.Join(dir, xlsxName)
	csvPath = filepath.Join(dir, csvName)

	if err := writeFile(xlsxPath, func(w io.Writer) error { return WriteXLSX(w, records) }); err != nil {
		return "", "", err
	}
	if err := writeFile(csvPath, func(w io.Writer) error { return WriteCSV(w, records) }); err != nil {
		return "", "", err
	}
	return xlsxPath, csvPath, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path) //nolint:gosec // path is built from the configured output directory
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", filepath.Base(path), cerr)
		}
	}()
	return write(f)
}
