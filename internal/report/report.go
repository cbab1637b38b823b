// Package report renders settlements as CSV, XLSX and plain text.
package report

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"tripsplit/internal/core"
)

// DefaultTitle heads every report.
const DefaultTitle = "Trip Expense Report"

// Sheet names shared by the workbook and Google Sheets exporters.
const (
	SheetSummary   = "Summary"
	SheetExpenses  = "Expenses"
	SheetTransfers = "Transfers"
)

// Report is the input of every renderer.
type Report struct {
	Title      string
	Expenses   []core.Entry
	Settlement core.Settlement
}

// New builds a report. Expenses are copied.
func New(title string, expenses []core.Entry, s core.Settlement) Report {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	return Report{Title: title, Expenses: slices.Clone(expenses), Settlement: s}
}

// Sheet is a header plus typed rows. Cells hold string or float64 values.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Sheets returns the Summary, Expenses and Transfers tables. Transfers
// always has at least one row: a "-", "-", 0 placeholder when nobody owes.
func (r Report) Sheets() []Sheet {
	summary := Sheet{
		Name:   SheetSummary,
		Header: []string{"Metric", "Value"},
		Rows: [][]any{
			{"Total Expense", r.Settlement.Total.Float()},
			{"Per Person Share", r.Settlement.ShareRounded().Float()},
		},
	}
	if res := r.Settlement.Residual; res.Cents != 0 {
		summary.Rows = append(summary.Rows, []any{"Rounding Residual", res.Float()})
	}

	expenses := Sheet{Name: SheetExpenses, Header: []string{"Name", "Spent"}}
	for _, e := range r.Expenses {
		expenses.Rows = append(expenses.Rows, []any{e.Name, e.Spent.Float()})
	}

	transfers := Sheet{Name: SheetTransfers, Header: []string{"Payer", "Receiver", "Amount"}}
	for _, t := range r.Settlement.Transfers {
		transfers.Rows = append(transfers.Rows, []any{t.Payer, t.Receiver, t.Amount.Float()})
	}
	if len(transfers.Rows) == 0 {
		transfers.Rows = [][]any{{"-", "-", 0.0}}
	}

	return []Sheet{summary, expenses, transfers}
}

// BalanceLines describes each participant's position in words.
func (r Report) BalanceLines() []string {
	lines := make([]string, 0, len(r.Settlement.Balances))
	for _, b := range r.Settlement.Balances {
		switch b.Status() {
		case core.Creditor:
			lines = append(lines, fmt.Sprintf("%s will GET %s", b.Name, b.Amount))
		case core.Debtor:
			lines = append(lines, fmt.Sprintf("%s will PAY %s", b.Name, b.Amount.Abs()))
		default:
			lines = append(lines, fmt.Sprintf("%s is settled", b.Name))
		}
	}
	return lines
}

// Renderer writes a report in one output format.
type Renderer interface {
	Format() string
	ContentType() string
	Render(w io.Writer, r Report) error
}

var renderers = map[string]Renderer{
	"csv":  CSVRenderer{},
	"xlsx": XLSXRenderer{},
	"txt":  TextRenderer{},
}

// ByFormat returns the renderer for csv, xlsx or txt.
func ByFormat(format string) (Renderer, error) {
	r, ok := renderers[strings.ToLower(strings.TrimPrefix(format, "."))]
	if !ok {
		return nil, fmt.Errorf("unknown report format %q", format)
	}
	return r, nil
}

// Filename is the download name for a rendered report.
func Filename(r Renderer) string {
	return "trip_report." + r.Format()
}
