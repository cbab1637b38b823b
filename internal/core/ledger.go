package core

import (
	"fmt"
	"sync"
)

// Ledger records cumulative spend per participant for a single trip.
// Entries keep their insertion order. A Ledger is safe for concurrent use;
// each trip or session owns its own instance.
type Ledger struct {
	mu    sync.RWMutex
	order []string
	spent map[string]int64
	total int64
}

func NewLedger() *Ledger {
	return &Ledger{spent: make(map[string]int64)}
}

// LedgerFromEntries rebuilds a ledger from a snapshot. Repeated names are
// summed, as if each entry had been recorded in turn.
func LedgerFromEntries(entries []Entry) (*Ledger, error) {
	l := NewLedger()
	for _, e := range entries {
		if err := l.RecordExpense(e.Name, e.Spent); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// RecordExpense adds amount to name's total, creating the entry on first use.
// The name is trimmed; empty names, negative amounts and writes that would
// overflow the ledger total are rejected with an error wrapping
// ErrInvalidInput and leave the ledger untouched.
func (l *Ledger) RecordExpense(name string, amount Money) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}
	if err := amount.Validate(); err != nil {
		return fmt.Errorf("%w for %q", err, name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.spent == nil {
		l.spent = make(map[string]int64)
	}
	// Entries are non-negative, so a bounded total bounds every entry.
	total, err := Money{Cents: l.total}.Add(amount)
	if err != nil {
		return fmt.Errorf("%w for %q", err, name)
	}
	if _, ok := l.spent[name]; !ok {
		l.order = append(l.order, name)
	}
	l.spent[name] += amount.Cents
	l.total = total.Cents
	return nil
}

// Reset clears every entry.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = nil
	l.spent = make(map[string]int64)
	l.total = 0
}

// Snapshot returns a copy of the entries in insertion order.
func (l *Ledger) Snapshot() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, Entry{Name: name, Spent: Money{Cents: l.spent[name]}})
	}
	return out
}
