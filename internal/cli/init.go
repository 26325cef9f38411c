// Package cli provides the initialization steps shared by the expenditure
// subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expenditure/internal/backend"
	"expenditure/internal/config"
	"expenditure/internal/log"
	"expenditure/internal/logstore"
	"expenditure/internal/services"

	"github.com/joho/godotenv"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default logger. Logs go to stderr so command output stays clean.
func SetupLogger(level string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: log.ComponentCLI,
		Output:    os.Stderr,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Runtime bundles the log service with the resources it holds open.
type Runtime struct {
	Service  *services.LogService
	Backend  backend.Config
	cleanups []backend.CleanupFunc
}

// Close closes the service and releases the medium and the listeners.
func (r *Runtime) Close() error {
	errs := []error{r.Service.Close()}
	for _, c := range r.cleanups {
		if c != nil {
			errs = append(errs, c())
		}
	}
	return errors.Join(errs...)
}

// InitService opens the configured medium, loads the log and wires the
// optional change listeners into a LogService.
func InitService(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Runtime, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}

	factory := backend.NewFactory(logger)
	medium, err := factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	store, err := logstore.Open(ctx, medium.Medium, logger)
	if err != nil {
		if medium.Cleanup != nil {
			_ = medium.Cleanup()
		}
		return nil, err
	}

	listeners, err := factory.CreateListeners(ctx, bcfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create listeners: %w", err)
	}

	svc := services.NewLogService(store,
		services.WithZeroPolicy(cfg.ZeroPolicy()),
		services.WithNotifyTimeout(cfg.NotifyTimeout),
		services.WithListeners(listeners.Listeners...),
		services.WithLogger(logger),
	)

	return &Runtime{
		Service:  svc,
		Backend:  bcfg,
		cleanups: []backend.CleanupFunc{listeners.Cleanup},
	}, nil
}

// GracefulShutdown returns a context that is cancelled on SIGINT or SIGTERM.
// The returned done channel is closed once cleanup has finished or timed out.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Received shutdown signal",
			log.FieldOperation, log.OpShutdown,
			"signal", sig.String())
		cancel()

		cleanupDone := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(cleanupDone)
		}()

		select {
		case <-cleanupDone:
			logger.Info("Shutdown completed")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout exceeded")
		}
		close(done)
	}()

	return ctx, done
}
