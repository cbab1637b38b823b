package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tripsplit/internal/amqp"
	"tripsplit/internal/backend"
	"tripsplit/internal/cache"
	"tripsplit/internal/config"
	"tripsplit/internal/core"
	apphttp "tripsplit/internal/http"
	"tripsplit/internal/log"
	"tripsplit/internal/metrics"
	"tripsplit/internal/trips"
)

const (
	shutdownTimeout   = 30 * time.Second
	cacheCleanupEvery = time.Minute
	amqpDialAttempts  = 5
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return runServe(ctx, cfg, setupLogger(cfg))
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Cleanup(); err != nil {
			logger.Error("Store cleanup failed", log.FieldError, err)
		}
	}()

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	settlements := cache.NewLRUCache[string, core.Settlement](cfg.CacheSize, cfg.CacheTTL)
	caches := cache.NewManager(logger)
	caches.Register(settlements)

	tripOpts := []trips.Option{
		trips.WithCache(settlements),
		trips.WithMetrics(m),
		trips.WithLogger(logger),
	}
	srvOpts := []apphttp.Option{
		apphttp.WithLogger(logger),
		apphttp.WithReadinessCheck("store", store.Ready),
	}
	if cfg.MetricsEnabled {
		srvOpts = append(srvOpts, apphttp.WithMetrics(reg))
	}

	if cfg.ExportEnabled() {
		client, err := amqp.DialWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqpDialAttempts, logger)
		if err != nil {
			return fmt.Errorf("connect export queue: %w", err)
		}
		defer func() { _ = client.Close() }()
		tripOpts = append(tripOpts, trips.WithPublisher(client))
		srvOpts = append(srvOpts, apphttp.WithReadinessCheck("amqp", client.Ping))
	} else {
		logger.Info("AMQP_URL not set; trip exports are disabled")
	}

	svc := trips.NewService(store.Store, tripOpts...)
	srv := apphttp.NewServer(":"+cfg.Port, svc, srvOpts...)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 35 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting tripsplit server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return caches.Run(gctx, cacheCleanupEvery)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
