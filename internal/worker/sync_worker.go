// Package worker keeps the Google Sheet mirror in step with change events
// published by other expenditure processes.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"expenditure/internal/amqp"
	"expenditure/internal/core"
	"expenditure/internal/log"
)

// Loader reads the current log. logstore.Medium satisfies it.
type Loader interface {
	Load(ctx context.Context) ([]core.Record, error)
}

// Mirror receives the whole log. *google.Client satisfies it.
type Mirror interface {
	Mirror(ctx context.Context, records []core.Record) error
}

// SyncWorker rewrites the sheet whenever the log changes. Every message
// triggers a fresh load, so one mirror covers all events that happened
// before it started.
type SyncWorker struct {
	loader Loader
	mirror Mirror
	logger *log.Logger
	now    func() time.Time

	mu       sync.Mutex
	lastSync time.Time
}

func NewSyncWorker(loader Loader, mirror Mirror, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		loader: loader,
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentSheets),
		now:    time.Now,
	}
}

// HandleLogChange processes a single change message from AMQP. Messages
// older than the last completed sync are already reflected and skipped.
func (w *SyncWorker) HandleLogChange(ctx context.Context, msg *amqp.LogChangeMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.lastSync.IsZero() && msg.Timestamp.Before(w.lastSync) {
		w.logger.DebugContext(ctx, "Change already mirrored, skipping",
			log.FieldEvent, msg.Event,
			log.FieldRecordID, msg.ID)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing log change",
		log.FieldEvent, msg.Event,
		log.FieldRecordID, msg.ID,
		log.FieldCount, msg.Count)

	return w.syncLocked(ctx)
}

// StartupSync mirrors the log once so that events missed while the worker
// was down are covered.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.logger.InfoContext(ctx, "Running startup sync", log.FieldOperation, log.OpStartup)
	return w.syncLocked(ctx)
}

// LastSync returns when the last successful mirror started.
func (w *SyncWorker) LastSync() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSync
}

func (w *SyncWorker) syncLocked(ctx context.Context) error {
	started := w.now()

	records, err := w.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load log: %w", err)
	}

	if err := w.mirror.Mirror(ctx, records); err != nil {
		return fmt.Errorf("mirror log to sheets: %w", err)
	}

	w.lastSync = started
	w.logger.InfoContext(ctx, "Log mirrored",
		log.FieldOperation, log.OpMirror,
		log.FieldCount, len(records),
		log.FieldDurationMs, w.now().Sub(started).Milliseconds())
	return nil
}
