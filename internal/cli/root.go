// Package cli wires configuration, storage and transports into the
// tripsplit commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"tripsplit/internal/config"
	"tripsplit/internal/log"
)

// NewRootCmd builds the tripsplit command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tripsplit",
		Short: "Split shared trip expenses into point-to-point transfers",
		Long: `tripsplit records what each participant spent on a trip and works out
who pays whom so that everyone ends up having paid an equal share.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "Path to a TOML config file (overrides "+config.EnvConfigFile+")")

	root.AddCommand(newServeCmd(), newWorkerCmd(), newSettleCmd())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads .env for local development, then the optional TOML file,
// then the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	_ = godotenv.Load()

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv(config.EnvConfigFile)
	}
	cfg, err := config.LoadWithFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// setupLogger builds the process logger and installs it as the slog default.
func setupLogger(cfg *config.Config) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
