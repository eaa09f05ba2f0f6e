package finance

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// sheetWriter wraps an excelize file with a row cursor per sheet.
type sheetWriter struct {
	file       *excelize.File
	sheet      string
	currentRow int
}

func newSheetWriter() *sheetWriter {
	return &sheetWriter{file: excelize.NewFile()}
}

func (w *sheetWriter) addSheet(name string) error {
	// Excel caps sheet names at 31 characters.
	if len(name) > 31 {
		name = name[:31]
	}
	if w.sheet == "" {
		w.file.SetSheetName("Sheet1", name)
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	w.sheet = name
	w.currentRow = 1
	return nil
}

func (w *sheetWriter) writeHeader(columns []string) error {
	if err := w.writeRow(toAny(columns)); err != nil {
		return err
	}
	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow-1)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow-1)
		_ = w.file.SetCellStyle(w.sheet, startCell, endCell, style)
	}
	return nil
}

func (w *sheetWriter) writeRow(row []any) error {
	if w.sheet == "" {
		return fmt.Errorf("no active sheet")
	}
	for i, value := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.sheet, cell, value); err != nil {
			return err
		}
	}
	w.currentRow++
	return nil
}

func (w *sheetWriter) skipRow() { w.currentRow++ }

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// ExportMonthly writes a monthly report as an xlsx workbook: a summary
// sheet, the per-client breakdown and the payment-method totals.
func ExportMonthly(out io.Writer, report *MonthlyReport) error {
	w := newSheetWriter()
	defer w.file.Close()

	if err := w.addSheet(fmt.Sprintf("%d-%02d", report.Year, int(report.Month))); err != nil {
		return err
	}
	if err := w.writeHeader([]string{"Metric", "Value"}); err != nil {
		return err
	}
	summary := [][]any{
		{"Total sessions", report.TotalSessions},
		{"Completed", report.Completed},
		{"Cancelled", report.Cancelled},
		{"No-shows", report.NoShows},
		{"Billed value", report.BilledValue},
		{"Paid value", report.PaidValue},
		{"Outstanding", report.Outstanding},
	}
	for _, row := range summary {
		if err := w.writeRow(row); err != nil {
			return err
		}
	}

	if err := w.addSheet("By client"); err != nil {
		return err
	}
	if err := w.writeHeader([]string{"Client", "Sessions", "Completed", "Billed", "Paid", "Outstanding"}); err != nil {
		return err
	}
	for _, line := range report.ByClient {
		row := []any{line.ClientName, line.Sessions, line.Completed,
			line.BilledValue, line.PaidValue, line.Outstanding}
		if err := w.writeRow(row); err != nil {
			return err
		}
	}

	if err := w.addSheet("By payment method"); err != nil {
		return err
	}
	if err := w.writeHeader([]string{"Method", "Paid"}); err != nil {
		return err
	}
	for method, value := range report.ByPaymentMethod {
		if err := w.writeRow([]any{method, value}); err != nil {
			return err
		}
	}
	w.skipRow()

	if err := w.file.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ExportAnnual writes an annual report as a single-sheet xlsx workbook.
func ExportAnnual(out io.Writer, report *AnnualReport) error {
	w := newSheetWriter()
	defer w.file.Close()

	if err := w.addSheet(fmt.Sprintf("%d", report.Year)); err != nil {
		return err
	}
	if err := w.writeHeader([]string{"Month", "Sessions", "Completed", "Billed", "Paid"}); err != nil {
		return err
	}
	for _, m := range report.Months {
		row := []any{m.Month.String(), m.Sessions, m.Completed, m.BilledValue, m.PaidValue}
		if err := w.writeRow(row); err != nil {
			return err
		}
	}
	w.skipRow()
	if err := w.writeRow([]any{"Total", "", "", report.BilledValue, report.PaidValue}); err != nil {
		return err
	}

	if err := w.file.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
