// Package storage persists trips in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tripsplit/internal/core"
	"tripsplit/internal/log"
	"tripsplit/internal/trips"

	_ "modernc.org/sqlite"
)

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

var _ trips.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps read-modify-write transactions from racing.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(log.ComponentStorage),
		now:    time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateTrip(ctx context.Context, t trips.Trip) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO trips (id, name, version, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Version, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}
	for i, e := range t.Entries {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO trip_entries (trip_id, name, spent_cents, position) VALUES (?, ?, ?, ?)`,
			t.ID, e.Name, e.Spent.Cents, i+1)
		if err != nil {
			return fmt.Errorf("insert entry %q: %w", e.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.logger.DebugContext(ctx, "Trip saved to SQLite", log.FieldTripID, t.ID)
	return nil
}

func (r *SQLiteRepository) GetTrip(ctx context.Context, id string) (trips.Trip, error) {
	return loadTrip(ctx, r.db, id)
}

func (r *SQLiteRepository) RecordExpense(ctx context.Context, id, name string, amount core.Money) (trips.Trip, error) {
	return r.mutate(ctx, id, func(tx *sql.Tx) error {
		var total int64
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(spent_cents), 0) FROM trip_entries WHERE trip_id = ?`, id).
			Scan(&total); err != nil {
			return fmt.Errorf("sum entries: %w", err)
		}
		if _, err := (core.Money{Cents: total}).Add(amount); err != nil {
			return fmt.Errorf("%w for %q", err, name)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO trip_entries (trip_id, name, spent_cents, position)
			VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM trip_entries WHERE trip_id = ?))
			ON CONFLICT (trip_id, name) DO UPDATE SET spent_cents = spent_cents + excluded.spent_cents`,
			id, name, amount.Cents, id)
		if err != nil {
			return fmt.Errorf("upsert entry: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) ResetTrip(ctx context.Context, id string) (trips.Trip, error) {
	return r.mutate(ctx, id, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM trip_entries WHERE trip_id = ?`, id); err != nil {
			return fmt.Errorf("delete entries: %w", err)
		}
		return nil
	})
}

// mutate runs fn and bumps the trip version in one transaction, then
// returns the updated snapshot.
func (r *SQLiteRepository) mutate(ctx context.Context, id string, fn func(*sql.Tx) error) (trips.Trip, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return trips.Trip{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE trips SET version = version + 1, updated_at = ? WHERE id = ?`,
		formatTime(r.now()), id)
	if err != nil {
		return trips.Trip{}, fmt.Errorf("bump version: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return trips.Trip{}, fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return trips.Trip{}, trips.ErrTripNotFound
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

func loadTrip(ctx context.Context, q querier, id string) (trips.Trip, error) {
	var (
		t                trips.Trip
		created, updated string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, name, version, created_at, updated_at FROM trips WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Version, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return trips.Trip{}, trips.ErrTripNotFound
	}
	if err != nil {
		return trips.Trip{}, fmt.Errorf("select trip: %w", err)
	}
	t.CreatedAt = parseTime(created)
	t.UpdatedAt = parseTime(updated)

	rows, err := q.QueryContext(ctx,
		`SELECT name, spent_cents FROM trip_entries WHERE trip_id = ? ORDER BY position`, id)
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

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
