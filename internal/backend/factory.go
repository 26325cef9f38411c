package backend

import (
	"context"
	"errors"
	"fmt"

	"expenditure/internal/amqp"
	"expenditure/internal/log"
	"expenditure/internal/logstore/csvfile"
	"expenditure/internal/logstore/memory"
	"expenditure/internal/logstore/sqlite"
	"expenditure/internal/services"
	gsheet "expenditure/internal/sheets/google"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		f.logger.InfoContext(ctx, "Initialized CSV backend", log.FieldPath, config.LogFilePath)
		return &BackendResult{Medium: csvfile.New(config.LogFilePath)}, nil
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		f.logger.WarnContext(ctx, "Initialized memory backend, nothing will be persisted")
		return &BackendResult{Medium: memory.New()}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := sqlite.NewRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", log.FieldPath, config.SQLiteDBPath)

	return &BackendResult{
		Medium:  repo,
		Cleanup: repo.Close,
	}, nil
}

// CreateListeners implements Factory.CreateListeners. A listener that fails
// to start is logged and left out; the log works without it.
func (f *DefaultFactory) CreateListeners(ctx context.Context, config Config) (*ListenersResult, error) {
	var listeners []services.ChangeListener
	var cleanups []CleanupFunc

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change events",
				log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				log.FieldExchange, config.AMQPExchange,
				"queue", config.AMQPQueue)
			listeners = append(listeners, client)
			cleanups = append(cleanups, client.Close)
		}
	}

	if config.GoogleSpreadsheetID != "" {
		mirror, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:      config.GoogleSpreadsheetID,
			SheetName:          config.GoogleSheetName,
			ServiceAccountFile: config.GoogleServiceAccountFile,
			ServiceAccountJSON: config.GoogleServiceAccountJSON,
		}, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize Google Sheets mirror, continuing without it",
				log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized Google Sheets mirror",
				"sheet", config.GoogleSheetName)
			listeners = append(listeners, mirror)
		}
	}

	return &ListenersResult{
		Listeners: listeners,
		Cleanup: func() error {
			var errs []error
			for _, c := range cleanups {
				errs = append(errs, c())
			}
			return errors.Join(errs...)
		},
	}, nil
}
