package trips

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"tripsplit/internal/cache"
	"tripsplit/internal/core"
	"tripsplit/internal/log"
	"tripsplit/internal/metrics"
)

// Service orchestrates trip ledgers across the store, the settlement cache
// and the export queue.
type Service struct {
	store     Store
	publisher ExportPublisher
	cache     *cache.LRUCache[string, core.Settlement]
	metrics   *metrics.Metrics
	logger    *log.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithPublisher enables RequestExport.
func WithPublisher(p ExportPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithCache memoizes settlements per trip version.
func WithCache(c *cache.LRUCache[string, core.Settlement]) Option {
	return func(s *Service) { s.cache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l.WithComponent(log.ComponentTrips) }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: log.Discard().WithComponent(log.ComponentTrips),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTrip registers an empty trip. A blank name falls back to DefaultTripName.
func (s *Service) CreateTrip(ctx context.Context, name string) (Trip, error) {
	name, err := normalizeTripName(name)
	if err != nil {
		return Trip{}, fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	now := s.now().UTC()
	t := Trip{
		ID:        uuid.NewString(),
		Name:      name,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateTrip(ctx, t); err != nil {
		return Trip{}, fmt.Errorf("create trip: %w", err)
	}
	if s.metrics != nil {
		s.metrics.TripsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "Trip created",
		log.NewFields().WithOperation(log.OpCreate).WithTrip(t.ID, t.Version).ToSlice()...)
	return t, nil
}

// Trip returns the current snapshot of a trip.
func (s *Service) Trip(ctx context.Context, id string) (Trip, error) {
	t, err := s.store.GetTrip(ctx, id)
	if err != nil {
		return Trip{}, fmt.Errorf("get trip %s: %w", id, err)
	}
	return t, nil
}

// RecordExpense adds amount to the participant's total on the trip.
func (s *Service) RecordExpense(ctx context.Context, id, name string, amount core.Money) (Trip, error) {
	name, err := core.NormalizeName(name)
	if err != nil {
		return Trip{}, err
	}
	if err := amount.Validate(); err != nil {
		return Trip{}, fmt.Errorf("%w for %q", err, name)
	}

	t, err := s.store.RecordExpense(ctx, id, name, amount)
	if err != nil {
		return Trip{}, fmt.Errorf("record expense on trip %s: %w", id, err)
	}
	if s.metrics != nil {
		s.metrics.ExpensesRecorded.Inc()
	}
	s.logger.InfoContext(ctx, "Expense recorded",
		log.NewFields().
			WithOperation(log.OpRecord).
			WithTrip(t.ID, t.Version).
			WithExpense(name, amount.Cents).
			ToSlice()...)
	return t, nil
}

// Reset clears every entry of the trip.
func (s *Service) Reset(ctx context.Context, id string) (Trip, error) {
	t, err := s.store.ResetTrip(ctx, id)
	if err != nil {
		return Trip{}, fmt.Errorf("reset trip %s: %w", id, err)
	}
	if s.cache != nil {
		prefix := id + ":"
		s.cache.DeleteFunc(func(key string) bool {
			return len(key) > len(prefix) && key[:len(prefix)] == prefix
		})
	}
	if s.metrics != nil {
		s.metrics.TripResets.Inc()
	}
	s.logger.InfoContext(ctx, "Trip reset",
		log.NewFields().WithOperation(log.OpReset).WithTrip(t.ID, t.Version).ToSlice()...)
	return t, nil
}

// Settle computes the settlement of the trip's current ledger. Results are
// cached per trip version, so repeated calls without writes are free.
func (s *Service) Settle(ctx context.Context, id string) (Trip, core.Settlement, error) {
	t, err := s.Trip(ctx, id)
	if err != nil {
		return Trip{}, core.Settlement{}, err
	}

	key := settlementKey(t.ID, t.Version)
	if s.cache != nil {
		if res, ok := s.cache.Get(key); ok {
			s.observeCache("hit")
			return t, res, nil
		}
		s.observeCache("miss")
	}

	res, err := core.ComputeSettlement(t.Entries)
	if err != nil {
		s.observeSettlement(res, err)
		return t, core.Settlement{}, fmt.Errorf("settle trip %s: %w", id, err)
	}
	s.observeSettlement(res, nil)

	if s.cache != nil {
		s.cache.Set(key, res)
	}
	s.logger.DebugContext(ctx, "Settlement computed",
		log.NewFields().
			WithOperation(log.OpSettle).
			WithTrip(t.ID, t.Version).
			WithSettlement(res.Total.Cents, len(res.Transfers), res.Residual.Cents).
			ToSlice()...)
	return t, res, nil
}

// RequestExport queues the trip's current version for the export worker.
func (s *Service) RequestExport(ctx context.Context, id string) (Trip, error) {
	if s.publisher == nil {
		return Trip{}, ErrExportUnavailable
	}
	t, err := s.Trip(ctx, id)
	if err != nil {
		return Trip{}, err
	}
	if err := s.publisher.PublishExport(ctx, t.ID, t.Version); err != nil {
		if s.metrics != nil {
			s.metrics.Exports.WithLabelValues("queue", "error").Inc()
		}
		return Trip{}, fmt.Errorf("queue export for trip %s: %w", id, err)
	}
	if s.metrics != nil {
		s.metrics.Exports.WithLabelValues("queue", "ok").Inc()
	}
	s.logger.InfoContext(ctx, "Export queued",
		log.NewFields().WithOperation(log.OpExport).WithTrip(t.ID, t.Version).ToSlice()...)
	return t, nil
}

// Close releases the underlying store.
func (s *Service) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close trip store: %w", err)
	}
	return nil
}

func (s *Service) observeCache(result string) {
	if s.metrics != nil {
		s.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (s *Service) observeSettlement(res core.Settlement, err error) {
	if s.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, core.ErrInsufficientParticipants):
		s.metrics.Settlements.WithLabelValues("insufficient").Inc()
	case err != nil:
		s.metrics.Settlements.WithLabelValues("invalid").Inc()
	default:
		s.metrics.Settlements.WithLabelValues("ok").Inc()
		s.metrics.Transfers.Observe(float64(len(res.Transfers)))
		s.metrics.ResidualCents.Observe(float64(res.Residual.Abs().Cents))
	}
}

func settlementKey(id string, version int64) string {
	return id + ":" + strconv.FormatInt(version, 10)
}
