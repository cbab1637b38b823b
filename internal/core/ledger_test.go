package core

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestLedgerRecordAccumulates(t *testing.T) {
	l := NewLedger()
	steps := []struct {
		name  string
		cents int64
	}{
		{"Sameer", 50000},
		{"Aman", 20000},
		{" Sameer ", 1050},
		{"Riya", 0},
	}
	for _, s := range steps {
		if err := l.RecordExpense(s.name, Money{Cents: s.cents}); err != nil {
			t.Fatalf("RecordExpense(%q): %v", s.name, err)
		}
	}

	got := l.Snapshot()
	want := []Entry{
		{Name: "Sameer", Spent: Money{Cents: 51050}},
		{Name: "Aman", Spent: Money{Cents: 20000}},
		{Name: "Riya", Spent: Money{Cents: 0}},
	}
	if len(got) != len(want) {
		t.Fatalf("snapshot = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("snapshot[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if got := ledgerTotal(l); got != 71050 {
		t.Fatalf("total = %d", got)
	}
}

func TestLedgerRejectsInvalidInput(t *testing.T) {
	l := NewLedger()
	if err := l.RecordExpense("  ", Money{Cents: 100}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
	if err := l.RecordExpense("A", Money{Cents: -100}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative amount, got %v", err)
	}
	if n := len(l.Snapshot()); n != 0 {
		t.Fatalf("rejected writes must not create entries, len=%d", n)
	}
}

func TestLedgerSnapshotIsACopy(t *testing.T) {
	l := NewLedger()
	_ = l.RecordExpense("A", Money{Cents: 100})
	snap := l.Snapshot()
	snap[0].Spent.Cents = 999
	_ = l.RecordExpense("B", Money{Cents: 1})
	if l.Snapshot()[0].Spent.Cents != 100 {
		t.Fatal("mutating a snapshot leaked into the ledger")
	}
	if len(snap) != 1 {
		t.Fatal("snapshot grew after a later write")
	}
}

func TestLedgerReset(t *testing.T) {
	l := NewLedger()
	_ = l.RecordExpense("A", Money{Cents: 100})
	_ = l.RecordExpense("B", Money{Cents: 200})
	l.Reset()
	if len(l.Snapshot()) != 0 {
		t.Fatalf("reset left entries: %v", l.Snapshot())
	}
	_ = l.RecordExpense("B", Money{Cents: 5})
	if snap := l.Snapshot(); len(snap) != 1 || snap[0].Spent.Cents != 5 {
		t.Fatalf("unexpected snapshot after reset: %v", snap)
	}
}

func TestLedgerFromEntriesMergesDuplicates(t *testing.T) {
	l, err := LedgerFromEntries([]Entry{
		{Name: "A", Spent: Money{Cents: 100}},
		{Name: "B", Spent: Money{Cents: 50}},
		{Name: "A", Spent: Money{Cents: 25}},
	})
	if err != nil {
		t.Fatal(err)
	}
	snap := l.Snapshot()
	if len(snap) != 2 || snap[0].Spent.Cents != 125 {
		t.Fatalf("unexpected snapshot: %v", snap)
	}
	if _, err := LedgerFromEntries([]Entry{{Name: "", Spent: Money{}}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLedgerConcurrentWrites(t *testing.T) {
	l := NewLedger()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.RecordExpense("shared", Money{Cents: 2})
			_ = l.Snapshot()
		}()
	}
	wg.Wait()
	if got := ledgerTotal(l); got != 100 {
		t.Fatalf("total = %d, want 100", got)
	}
}

func ledgerTotal(l *Ledger) int64 {
	var total int64
	for _, e := range l.Snapshot() {
		total += e.Spent.Cents
	}
	return total
}

func TestLedgerRejectsOverflow(t *testing.T) {
	const big = math.MaxInt64/2 + 1

	tests := []struct {
		name   string
		first  string
		second string
	}{
		{"same participant", "A", "A"},
		{"ledger total", "A", "B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger()
			if err := l.RecordExpense(tt.first, Money{Cents: big}); err != nil {
				t.Fatalf("first write: %v", err)
			}
			err := l.RecordExpense(tt.second, Money{Cents: big})
			if !errors.Is(err, ErrAmountOverflow) || !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrAmountOverflow, got %v", err)
			}
			snap := l.Snapshot()
			if len(snap) != 1 || snap[0].Spent.Cents != big {
				t.Fatalf("rejected write changed the ledger: %v", snap)
			}
		})
	}
}

func TestLedgerResetClearsTotal(t *testing.T) {
	l := NewLedger()
	_ = l.RecordExpense("A", Money{Cents: math.MaxInt64})
	l.Reset()
	if err := l.RecordExpense("A", Money{Cents: math.MaxInt64}); err != nil {
		t.Fatalf("write after reset: %v", err)
	}
}
