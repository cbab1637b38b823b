package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tripsplit/internal/amqp"
	"tripsplit/internal/backend"
	"tripsplit/internal/config"
	"tripsplit/internal/log"
	"tripsplit/internal/metrics"
	"tripsplit/internal/sheets"
	gsheet "tripsplit/internal/sheets/google"
	memsheet "tripsplit/internal/sheets/memory"
	"tripsplit/internal/trips"
	"tripsplit/internal/worker"
)

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume export requests and write trip reports to Google Sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return runWorker(ctx, cfg, metricsAddr, setupLogger(cfg))
		},
	}
	cmd.Flags().String("metrics-addr", ":9091", "Address for /metrics and /healthz (empty disables)")
	return cmd
}

func runWorker(ctx context.Context, cfg *config.Config, metricsAddr string, logger *log.Logger) error {
	if !cfg.ExportEnabled() {
		return errors.New("AMQP_URL is required to run the export worker")
	}
	if cfg.DataBackend == string(backend.MemoryBackend) {
		logger.Warn("Worker uses the memory backend and cannot see trips created by the server")
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Cleanup() }()

	writer, err := newReportWriter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	client, err := amqp.DialWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqpDialAttempts, logger)
	if err != nil {
		return fmt.Errorf("connect export queue: %w", err)
	}
	defer func() { _ = client.Close() }()

	reg := metrics.NewRegistry()
	m := metrics.New(reg)
	svc := trips.NewService(store.Store, trips.WithMetrics(m), trips.WithLogger(logger))
	exporter := worker.NewExportWorker(svc, writer, m, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Export worker started", "queue", cfg.AMQPQueue)
		err := client.ConsumeExports(gctx, exporter.HandleExportMessage)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if err := client.Ping(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("ok"))
		})
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Worker stopped gracefully")
	return nil
}

// newReportWriter targets Google Sheets when a spreadsheet is configured and
// an in-process writer otherwise.
func newReportWriter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.ReportWriter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set; reports are kept in memory only")
		return memsheet.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create Google Sheets client: %w", err)
	}
	return client, nil
}
