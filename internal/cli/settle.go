package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tripsplit/internal/core"
	"tripsplit/internal/report"
)

func newSettleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settle NAME=AMOUNT NAME=AMOUNT...",
		Short: "Compute transfers for a one-off list of expenses",
		Long: `Settle splits the given expenses equally and prints who pays whom.
Repeating a name adds to that participant's total. Amounts accept either
a dot or a comma as decimal separator.`,
		Example: `  tripsplit settle Alice=500 Bob=200 Carol=0
  tripsplit settle Ann=12,50 Ben=30 --csv trip.csv --xlsx trip.xlsx`,
		Args: cobra.MinimumNArgs(2),
		RunE: runSettle,
	}
	cmd.Flags().String("title", "Trip Expense Report", "Report title")
	cmd.Flags().String("csv", "", "Also write the report as CSV to this file")
	cmd.Flags().String("xlsx", "", "Also write the report as an Excel workbook to this file")
	return cmd
}

func runSettle(cmd *cobra.Command, args []string) error {
	ledger, err := ledgerFromArgs(args)
	if err != nil {
		return err
	}
	entries := ledger.Snapshot()
	res, err := core.ComputeSettlement(entries)
	if err != nil {
		return err
	}

	title, _ := cmd.Flags().GetString("title")
	rep := report.New(title, entries, res)
	if err := (report.TextRenderer{}).Render(cmd.OutOrStdout(), rep); err != nil {
		return err
	}

	for _, flag := range []string{"csv", "xlsx"} {
		path, _ := cmd.Flags().GetString(flag)
		if path == "" {
			continue
		}
		renderer, err := report.ByFormat(flag)
		if err != nil {
			return err
		}
		if err := writeReportFile(path, renderer, rep); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nWrote %s\n", path)
	}
	return nil
}

// ledgerFromArgs parses NAME=AMOUNT pairs into a ledger.
func ledgerFromArgs(args []string) (*core.Ledger, error) {
	ledger := core.NewLedger()
	for _, arg := range args {
		name, amount, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("%w: expected NAME=AMOUNT, got %q", core.ErrInvalidInput, arg)
		}
		m, err := core.ParseMoney(amount)
		if err != nil {
			return nil, fmt.Errorf("%w for %q", err, strings.TrimSpace(name))
		}
		if err := ledger.RecordExpense(name, m); err != nil {
			return nil, err
		}
	}
	return ledger, nil
}

func writeReportFile(path string, renderer report.Renderer, rep report.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := renderer.Render(f, rep); err != nil {
		return fmt.Errorf("render %s report: %w", renderer.Format(), err)
	}
	return nil
}
