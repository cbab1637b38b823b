package report

import (
	"encoding/csv"
	"fmt"
	"io"
)

// csvWidth pads every row so spreadsheet tools see a rectangular table.
const csvWidth = 3

// CSVRenderer writes the single-sheet text report.
type CSVRenderer struct{}

func (CSVRenderer) Format() string      { return "csv" }
func (CSVRenderer) ContentType() string { return "text/csv; charset=utf-8" }

func (CSVRenderer) Render(w io.Writer, r Report) error {
	s := r.Settlement
	rows := [][]string{
		{r.Title},
		{},
		{"Total Expense", s.Total.String()},
		{"Per Person Share", s.ShareRounded().String()},
	}
	if s.Residual.Cents != 0 {
		rows = append(rows, []string{"Rounding Residual", s.Residual.String()})
	}
	rows = append(rows, []string{}, []string{"Name", "Spent"})
	for _, e := range r.Expenses {
		rows = append(rows, []string{e.Name, e.Spent.String()})
	}
	rows = append(rows,
		[]string{},
		[]string{"Exact Transfers (Who Pays Who)"},
		[]string{"Payer", "Receiver", "Amount"},
	)
	if len(s.Transfers) == 0 {
		rows = append(rows, []string{"-", "-", "0"})
	}
	for _, t := range s.Transfers {
		rows = append(rows, []string{t.Payer, t.Receiver, t.Amount.String()})
	}

	cw := csv.NewWriter(w)
	for _, row := range rows {
		for len(row) < csvWidth {
			row = append(row, "")
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
