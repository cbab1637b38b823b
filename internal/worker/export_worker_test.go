package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"tripsplit/internal/amqp"
	"tripsplit/internal/core"
	"tripsplit/internal/metrics"
	"tripsplit/internal/report"
	sheetsmem "tripsplit/internal/sheets/memory"
	"tripsplit/internal/storage/memory"
	"tripsplit/internal/trips"
)

type failingWriter struct{}

func (failingWriter) WriteReport(context.Context, string, report.Report) (string, error) {
	return "", errors.New("quota exceeded")
}

func setup(t *testing.T) (*trips.Service, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	return trips.NewService(memory.New(), trips.WithMetrics(m)), m
}

func TestHandleExportMessage(t *testing.T) {
	ctx := context.Background()
	svc, m := setup(t)
	writer := sheetsmem.New()
	w := NewExportWorker(svc, writer, m, nil)

	trip, _ := svc.CreateTrip(ctx, "Lisbon")
	_, _ = svc.RecordExpense(ctx, trip.ID, "Alice", core.Money{Cents: 50000})
	_, _ = svc.RecordExpense(ctx, trip.ID, "Bob", core.Money{Cents: 20000})
	trip, _ = svc.RecordExpense(ctx, trip.ID, "Carol", core.Money{Cents: 0})

	if err := w.HandleExportMessage(ctx, amqp.NewExportMessage(trip.ID, trip.Version)); err != nil {
		t.Fatalf("HandleExportMessage: %v", err)
	}

	rows, ok := writer.Tab(tabPrefix(trip.ID) + " Transfers")
	if !ok {
		t.Fatal("transfers tab not written")
	}
	if len(rows) != 3 || rows[1][0] != "Carol" || rows[2][0] != "Bob" {
		t.Errorf("transfers = %v", rows)
	}
	if n := testutil.ToFloat64(m.Exports.WithLabelValues("sheets", "ok")); n != 1 {
		t.Errorf("exports ok = %v", n)
	}
}

func TestHandleExportMessageDiscards(t *testing.T) {
	ctx := context.Background()
	svc, m := setup(t)
	w := NewExportWorker(svc, sheetsmem.New(), m, nil)

	solo, _ := svc.CreateTrip(ctx, "solo")
	_, _ = svc.RecordExpense(ctx, solo.ID, "Alice", core.Money{Cents: 100})

	for name, id := range map[string]string{"unknown trip": "missing", "single participant": solo.ID} {
		t.Run(name, func(t *testing.T) {
			err := w.HandleExportMessage(ctx, amqp.NewExportMessage(id, 1))
			if !errors.Is(err, amqp.ErrDiscard) {
				t.Errorf("err = %v, want ErrDiscard", err)
			}
		})
	}
	if n := testutil.ToFloat64(m.Exports.WithLabelValues("sheets", "discarded")); n != 2 {
		t.Errorf("discarded = %v", n)
	}
}

func TestHandleExportMessageWriterFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	svc, m := setup(t)
	w := NewExportWorker(svc, failingWriter{}, m, nil)

	trip, _ := svc.CreateTrip(ctx, "x")
	_, _ = svc.RecordExpense(ctx, trip.ID, "Alice", core.Money{Cents: 100})
	trip, _ = svc.RecordExpense(ctx, trip.ID, "Bob", core.Money{Cents: 0})

	err := w.HandleExportMessage(ctx, amqp.NewExportMessage(trip.ID, trip.Version))
	if err == nil || errors.Is(err, amqp.ErrDiscard) {
		t.Errorf("err = %v, want retryable error", err)
	}
	if n := testutil.ToFloat64(m.Exports.WithLabelValues("sheets", "error")); n != 1 {
		t.Errorf("errors = %v", n)
	}
}

func TestTabPrefix(t *testing.T) {
	if got := tabPrefix("0123456789abcdef"); got != "01234567" {
		t.Errorf("tabPrefix = %q", got)
	}
	if got := tabPrefix("abc"); got != "abc" {
		t.Errorf("tabPrefix short = %q", got)
	}
}
