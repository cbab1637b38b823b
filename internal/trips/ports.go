package trips

import (
	"context"

	"tripsplit/internal/core"
)

// Ports for trip persistence and export adapters.
type (
	// Store persists trip ledgers. Implementations must return
	// ErrTripNotFound for unknown ids and bump Version on every mutation.
	Store interface {
		CreateTrip(ctx context.Context, t Trip) error
		GetTrip(ctx context.Context, id string) (Trip, error)
		// RecordExpense adds amount to the participant's total. Name and
		// amount are already validated.
		RecordExpense(ctx context.Context, id, name string, amount core.Money) (Trip, error)
		ResetTrip(ctx context.Context, id string) (Trip, error)
		Close() error
	}

	// ExportPublisher queues a trip for asynchronous export.
	ExportPublisher interface {
		PublishExport(ctx context.Context, tripID string, version int64) error
	}
)
