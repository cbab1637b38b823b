package report

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// TextRenderer prints balances and transfers for a terminal.
type TextRenderer struct{}

func (TextRenderer) Format() string      { return "txt" }
func (TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }

func (TextRenderer) Render(w io.Writer, r Report) error {
	s := r.Settlement
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\n\n", r.Title)
	fmt.Fprintf(tw, "Total Expense:\t%s\n", s.Total)
	fmt.Fprintf(tw, "Per Person Share:\t%s\n", s.ShareRounded())
	if s.Residual.Cents != 0 {
		fmt.Fprintf(tw, "Rounding Residual:\t%s\n", s.Residual)
	}

	fmt.Fprintln(tw, "\nBalance (GET / PAY)")
	for _, line := range r.BalanceLines() {
		fmt.Fprintf(tw, "  %s\n", line)
	}

	fmt.Fprintln(tw, "\nExact Transfers (Who Pays Who)")
	if len(s.Transfers) == 0 {
		fmt.Fprintln(tw, "  Everyone is settled. No transfers needed.")
		return tw.Flush()
	}
	fmt.Fprintln(tw, "  Payer\tReceiver\tAmount")
	for _, t := range s.Transfers {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", t.Payer, t.Receiver, t.Amount)
	}
	return tw.Flush()
}
