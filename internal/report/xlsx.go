package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXRenderer writes a workbook with Summary, Expenses and Transfers sheets.
type XLSXRenderer struct{}

func (XLSXRenderer) Format() string { return "xlsx" }
func (XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXRenderer) Render(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range r.Sheets() {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return fmt.Errorf("rename first sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet.Name, err)
		}
		if err := writeSheet(f, sheet); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet Sheet) error {
	header := make([]any, len(sheet.Header))
	for i, h := range sheet.Header {
		header[i] = h
	}
	rows := append([][]any{header}, sheet.Rows...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet.Name, i+1, err)
		}
	}
	return nil
}
