// Package worker turns queued export requests into spreadsheet reports.
package worker

import (
	"context"
	"errors"
	"fmt"

	"tripsplit/internal/amqp"
	"tripsplit/internal/core"
	"tripsplit/internal/log"
	"tripsplit/internal/metrics"
	"tripsplit/internal/report"
	"tripsplit/internal/sheets"
	"tripsplit/internal/trips"
)

// tabPrefixLen is how much of the trip id names the exported tabs.
const tabPrefixLen = 8

// ExportWorker writes the settlement report of a trip to a spreadsheet.
type ExportWorker struct {
	trips   *trips.Service
	writer  sheets.ReportWriter
	metrics *metrics.Metrics
	logger  *log.Logger
}

func NewExportWorker(svc *trips.Service, writer sheets.ReportWriter, m *metrics.Metrics, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		trips:   svc,
		writer:  writer,
		metrics: m,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleExportMessage exports the trip's current ledger. Messages for trips
// that no longer exist or cannot be settled are discarded; other failures
// are returned for redelivery.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ExportMessage) error {
	fields := log.NewFields().WithOperation(log.OpExport).WithTrip(msg.TripID, msg.Version)
	w.logger.InfoContext(ctx, "Processing export message", fields.ToSlice()...)

	t, settlement, err := w.trips.Settle(ctx, msg.TripID)
	switch {
	case errors.Is(err, trips.ErrTripNotFound),
		errors.Is(err, core.ErrInsufficientParticipants),
		errors.Is(err, core.ErrInvalidInput):
		w.observe("discarded")
		w.logger.WarnContext(ctx, "Export skipped", fields.WithError(err).ToSlice()...)
		return fmt.Errorf("%w: %w", amqp.ErrDiscard, err)
	case err != nil:
		w.observe("error")
		return fmt.Errorf("settle trip: %w", err)
	}

	if t.Version > msg.Version {
		w.logger.DebugContext(ctx, "Exporting newer trip version than requested",
			log.FieldTripID, t.ID, "requested", msg.Version, "current", t.Version)
	}

	ref, err := w.writer.WriteReport(ctx, tabPrefix(t.ID), report.New(t.Name, t.Entries, settlement))
	if err != nil {
		w.observe("error")
		return fmt.Errorf("write report: %w", err)
	}
	w.observe("ok")

	w.logger.InfoContext(ctx, "Trip exported",
		log.NewFields().
			WithOperation(log.OpExport).
			WithTrip(t.ID, t.Version).
			WithSettlement(settlement.Total.Cents, len(settlement.Transfers), settlement.Residual.Cents).
			ToSlice()...,
	)
	w.logger.DebugContext(ctx, "Export reference", log.FieldSheetsRef, ref)
	return nil
}

func (w *ExportWorker) observe(result string) {
	if w.metrics != nil {
		w.metrics.Exports.WithLabelValues("sheets", result).Inc()
	}
}

func tabPrefix(id string) string {
	if len(id) > tabPrefixLen {
		return id[:tabPrefixLen]
	}
	return id
}
