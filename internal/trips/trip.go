// Package trips manages trip ledgers and their settlements.
package trips

import (
	"errors"
	"strings"
	"time"

	"tripsplit/internal/core"
)

var (
	ErrTripNotFound      = errors.New("trip not found")
	ErrExportUnavailable = errors.New("export queue not configured")
	ErrTripNameTooLong   = errors.New("trip name too long (max 100 characters)")
)

// DefaultTripName is used when a trip is created without a name.
const DefaultTripName = "Trip Diary"

// Trip is a snapshot of one trip's ledger. Version increases on every
// mutation and keys cached settlements.
type Trip struct {
	ID        string
	Name      string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Entries   []core.Entry
}

// Total returns the sum spent on the trip.
func (t Trip) Total() core.Money {
	var total int64
	for _, e := range t.Entries {
		total += e.Spent.Cents
	}
	return core.Money{Cents: total}
}

func normalizeTripName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultTripName, nil
	}
	if len(name) > 100 {
		return "", ErrTripNameTooLong
	}
	return name, nil
}
