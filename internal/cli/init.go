// Package cli provides the initialization steps shared by cmd/gastos,
// cmd/gastos-worker and cmd/gastosctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"gastos/internal/backend"
	"gastos/internal/config"
	"gastos/internal/log"
	"gastos/internal/services"
	"gastos/internal/storage"

	"github.com/joho/godotenv"
)

// SetupLogger builds the process logger at level and installs it as the
// slog default.
func SetupLogger(level string, out io.Writer) *log.Logger {
	if out == nil {
		out = os.Stdout
	}
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: log.ComponentApp,
		Output:    out,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and checks
// it, requiring the given keys on top of the defaults.
func LoadAndValidateConfig(required ...string) (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(required...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenStore opens the ledger store selected by DATA_BACKEND.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (storage.Store, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentStorage)).CreateStore(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open ledger store: %w", err)
	}
	return res.Store, nil
}

// OpenLedger opens the configured store and wraps it in a LedgerService
// running in the configured time zone.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger, opts ...services.Option) (*services.LedgerService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	opts = append([]services.Option{
		services.WithLocation(loc),
		services.WithLogger(logger.WithComponent(log.ComponentLedger)),
	}, opts...)
	return services.NewLedgerService(store, opts...), nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
