// Package memory is a process-local trip store. Data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tripsplit/internal/core"
	"tripsplit/internal/trips"
)

type record struct {
	trip   trips.Trip // Entries left nil; the ledger is authoritative
	ledger *core.Ledger
}

// Store keeps one core.Ledger per trip. The map is guarded by mu; each
// ledger guards its own entries.
type Store struct {
	mu    sync.RWMutex
	trips map[string]*record
	now   func() time.Time
}

var _ trips.Store = (*Store)(nil)

func New() *Store {
	return &Store{trips: make(map[string]*record), now: time.Now}
}

func (s *Store) CreateTrip(_ context.Context, t trips.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.trips[t.ID]; exists {
		return fmt.Errorf("trip %s already exists", t.ID)
	}
	ledger, err := core.LedgerFromEntries(t.Entries)
	if err != nil {
		return err
	}
	t.Entries = nil
	s.trips[t.ID] = &record{trip: t, ledger: ledger}
	return nil
}

func (s *Store) GetTrip(_ context.Context, id string) (trips.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.trips[id]
	if !ok {
		return trips.Trip{}, trips.ErrTripNotFound
	}
	return rec.snapshot(), nil
}

func (s *Store) RecordExpense(_ context.Context, id, name string, amount core.Money) (trips.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.trips[id]
	if !ok {
		return trips.Trip{}, trips.ErrTripNotFound
	}
	if err := rec.ledger.RecordExpense(name, amount); err != nil {
		return trips.Trip{}, err
	}
	rec.touch(s.now())
	return rec.snapshot(), nil
}

func (s *Store) ResetTrip(_ context.Context, id string) (trips.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.trips[id]
	if !ok {
		return trips.Trip{}, trips.ErrTripNotFound
	}
	rec.ledger.Reset()
	rec.touch(s.now())
	return rec.snapshot(), nil
}

func (s *Store) Close() error { return nil }

func (r *record) touch(now time.Time) {
	r.trip.Version++
	r.trip.UpdatedAt = now.UTC()
}

func (r *record) snapshot() trips.Trip {
	t := r.trip
	t.Entries = r.ledger.Snapshot()
	return t
}
