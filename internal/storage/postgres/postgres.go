// Package postgres persists trips in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"tripsplit/internal/core"
	"tripsplit/internal/log"
	"tripsplit/internal/trips"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// ErrDuplicateTrip is returned when a trip id is already taken.
var ErrDuplicateTrip = errors.New("trip already exists")

const uniqueViolation = "23505"

type Repository struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

var _ trips.Store = (*Repository)(nil)

// Open connects to dsn and applies pending migrations.
func Open(ctx context.Context, dsn string, logger *log.Logger) (*Repository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Repository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
		now:    time.Now,
	}, nil
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) CreateTrip(ctx context.Context, t trips.Trip) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO trips (id, name, version, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.Name, t.Version, t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateTrip, t.ID)
		}
		return fmt.Errorf("insert trip: %w", err)
	}
	for i, e := range t.Entries {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO trip_entries (trip_id, name, spent_cents, position) VALUES ($1, $2, $3, $4)`,
			t.ID, e.Name, e.Spent.Cents, i+1)
		if err != nil {
			return fmt.Errorf("insert entry %q: %w", e.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.logger.DebugContext(ctx, "Trip saved to Postgres", log.FieldTripID, t.ID)
	return nil
}

func (r *Repository) GetTrip(ctx context.Context, id string) (trips.Trip, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return trips.Trip{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	return loadTrip(ctx, tx, id)
}

func (r *Repository) RecordExpense(ctx context.Context, id, name string, amount core.Money) (trips.Trip, error) {
	return r.mutate(ctx, id, func(tx *sql.Tx) error {
		var total int64
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(spent_cents), 0) FROM trip_entries WHERE trip_id = $1`, id).
			Scan(&total); err != nil {
			return fmt.Errorf("sum entries: %w", err)
		}
		if _, err := (core.Money{Cents: total}).Add(amount); err != nil {
			return fmt.Errorf("%w for %q", err, name)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO trip_entries (trip_id, name, spent_cents, position)
			VALUES ($1, $2, $3, (SELECT COALESCE(MAX(position), 0) + 1 FROM trip_entries WHERE trip_id = $1))
			ON CONFLICT (trip_id, name) DO UPDATE SET spent_cents = trip_entries.spent_cents + EXCLUDED.spent_cents`,
			id, name, amount.Cents)
		if err != nil {
			return fmt.Errorf("upsert entry: %w", err)
		}
		return nil
	})
}

func (r *Repository) ResetTrip(ctx context.Context, id string) (trips.Trip, error) {
	return r.mutate(ctx, id, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM trip_entries WHERE trip_id = $1`, id); err != nil {
			return fmt.Errorf("delete entries: %w", err)
		}
		return nil
	})
}

// mutate locks the trip row, bumps its version and runs fn in the same
// transaction.
func (r *Repository) mutate(ctx context.Context, id string, fn func(*sql.Tx) error) (trips.Trip, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return trips.Trip{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var version int64
	err = tx.QueryRowContext(ctx,
		`UPDATE trips SET version = version + 1, updated_at = $1 WHERE id = $2 RETURNING version`,
		r.now().UTC(), id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return trips.Trip{}, trips.ErrTripNotFound
	}
	if err != nil {
		return trips.Trip{}, fmt.Errorf("bump version: %w", err)
	}

	if err := fn(tx); err != nil {
		return trips.Trip{}, err
	}
	t, err := loadTrip(ctx, tx, id)
	if err != nil {
		return trips.Trip{}, err
	}
	if err := tx.Commit(); err != nil {
		return trips.Trip{}, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}

func loadTrip(ctx context.Context, tx *sql.Tx, id string) (trips.Trip, error) {
	var t trips.Trip
	err := tx.QueryRowContext(ctx,
		`SELECT id, name, version, created_at, updated_at FROM trips WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return trips.Trip{}, trips.ErrTripNotFound
	}
	if err != nil {
		return trips.Trip{}, fmt.Errorf("select trip: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT name, spent_cents FROM trip_entries WHERE trip_id = $1 ORDER BY position`, id)
	if err != nil {
		return trips.Trip{}, fmt.Errorf("select entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e core.Entry
		if err := rows.Scan(&e.Name, &e.Spent.Cents); err != nil {
			return trips.Trip{}, fmt.Errorf("scan entry: %w", err)
		}
		t.Entries = append(t.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return trips.Trip{}, fmt.Errorf("iterate entries: %w", err)
	}
	return t, nil
}
