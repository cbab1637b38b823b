// Package backend builds the configured trip store.
package backend

import (
	"context"

	"tripsplit/internal/trips"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Pinger is implemented by stores with a remote dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackendResult contains the store and its cleanup function.
type BackendResult struct {
	Store   trips.Store
	Cleanup CleanupFunc
}

// Ready reports whether the store can serve requests.
func (r *BackendResult) Ready(ctx context.Context) error {
	if p, ok := r.Store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Factory creates stores based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	PostgresDSN  string
}

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
