package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"tripsplit/internal/core"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSettlePrintsTransfers(t *testing.T) {
	out, err := runCmd(t, "settle", "Alice=500", "Bob=200", "Carol=0")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	for _, want := range []string{
		"Total Expense:",
		"700.00",
		"Alice will GET 266.67",
		"Bob will PAY 33.33",
		"Carol will PAY 233.33",
		"Rounding Residual:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	carol := strings.Index(out, "Carol  ")
	bob := strings.LastIndex(out, "Bob  ")
	if carol < 0 || bob < 0 || carol > bob {
		t.Errorf("expected Carol's transfer before Bob's:\n%s", out)
	}
}

func TestSettleAccumulatesRepeatedNames(t *testing.T) {
	ledger, err := ledgerFromArgs([]string{"Ann=10", "Ben=30", " Ann =12,50"})
	if err != nil {
		t.Fatalf("ledgerFromArgs: %v", err)
	}
	entries := ledger.Snapshot()
	if len(entries) != 2 || entries[0].Name != "Ann" || entries[0].Spent.Cents != 2250 {
		t.Fatalf("entries=%+v", entries)
	}
}

func TestSettleRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"missing separator", []string{"settle", "Alice", "Bob=1"}, core.ErrInvalidInput},
		{"negative amount", []string{"settle", "Alice=-1", "Bob=1"}, core.ErrInvalidInput},
		{"empty name", []string{"settle", "=5", "Bob=1"}, core.ErrInvalidInput},
		{"single participant", []string{"settle", "Alice=1", "Alice=2"}, core.ErrInsufficientParticipants},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err=%v, want %v", err, tt.want)
			}
		})
	}
}

func TestSettleWritesFiles(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "trip.csv")
	xlsxPath := filepath.Join(dir, "trip.xlsx")

	if _, err := runCmd(t, "settle", "Ann=10", "Ben=30", "--title", "Oslo", "--csv", csvPath, "--xlsx", xlsxPath); err != nil {
		t.Fatalf("settle: %v", err)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.HasPrefix(string(data), "Oslo,,\n") || !strings.Contains(string(data), "Ann,Ben,10.00") {
		t.Errorf("unexpected csv:\n%s", data)
	}

	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Transfers")
	if err != nil {
		t.Fatalf("transfers rows: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "Ann" || rows[1][1] != "Ben" {
		t.Errorf("transfers sheet=%v", rows)
	}
}
