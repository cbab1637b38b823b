package memory

import (
	"context"
	"testing"

	"tripsplit/internal/core"
	"tripsplit/internal/report"
)

func TestWriterOverwritesTabs(t *testing.T) {
	w := New()
	ctx := context.Background()

	entries := []core.Entry{
		{Name: "Alice", Spent: core.Money{Cents: 300}},
		{Name: "Bob", Spent: core.Money{Cents: 100}},
	}
	s, err := core.ComputeSettlement(entries)
	if err != nil {
		t.Fatal(err)
	}

	ref, err := w.WriteReport(ctx, "abc", report.New("", entries, s))
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if ref != "mem:abc" {
		t.Errorf("ref = %q", ref)
	}

	rows, ok := w.Tab("abc Transfers")
	if !ok || len(rows) != 2 {
		t.Fatalf("transfers tab = %v", rows)
	}
	if rows[1][0] != "Bob" || rows[1][1] != "Alice" {
		t.Errorf("transfer row = %v", rows[1])
	}

	even := []core.Entry{entries[0], {Name: "Bob", Spent: core.Money{Cents: 300}}}
	s, _ = core.ComputeSettlement(even)
	_, _ = w.WriteReport(ctx, "abc", report.New("", even, s))
	rows, _ = w.Tab("abc Transfers")
	if len(rows) != 2 || rows[1][0] != "-" {
		t.Errorf("transfers tab after rewrite = %v", rows)
	}
	if w.Writes() != 2 {
		t.Errorf("writes = %d", w.Writes())
	}
	if _, ok := w.Tab("Transfers"); ok {
		t.Error("unprefixed tab should not exist")
	}
}
