package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expenditure/internal/core"
	"expenditure/internal/log"
	"expenditure/internal/logstore"

	"golang.org/x/sync/errgroup"
)

// ErrConfirmationRequired is returned by ClearAll when the caller has not
// confirmed the deletion.
var ErrConfirmationRequired = errors.New("clearing the log requires confirmation")

// DefaultNotifyTimeout bounds how long listeners may take per change.
const DefaultNotifyTimeout = 10 * time.Second

// Entry is what the caller submits for a new record or an edit.
type Entry struct {
	Shop     string
	Item     string
	Quantity int
	Prices   core.PriceInput
}

// ChangeListener is told about every mutation after it has been flushed.
// records is the whole log after the change.
type ChangeListener interface {
	LogChanged(ctx context.Context, ev core.ChangeEvent, records []core.Record) error
}

// ListenerFunc adapts a function to ChangeListener.
type ListenerFunc func(ctx context.Context, ev core.ChangeEvent, records []core.Record) error

func (f ListenerFunc) LogChanged(ctx context.Context, ev core.ChangeEvent, records []core.Record) error {
	return f(ctx, ev, records)
}

// LogService exposes the caller-facing operations on the expenditure log.
type LogService struct {
	store         *logstore.Store
	policy        core.ZeroPolicy
	listeners     []ChangeListener
	notifyTimeout time.Duration
	now           func() time.Time
	logger        *log.Logger
}

// Option configures a LogService.
type Option func(*LogService)

// WithZeroPolicy sets how zero prices and discounts are read.
func WithZeroPolicy(p core.ZeroPolicy) Option {
	return func(s *LogService) { s.policy = p }
}

// WithListeners registers change listeners.
func WithListeners(l ...ChangeListener) Option {
	return func(s *LogService) { s.listeners = append(s.listeners, l...) }
}

// WithNotifyTimeout bounds each notification round.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *LogService) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *LogService) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(l *log.Logger) Option {
	return func(s *LogService) { s.logger = l }
}

func NewLogService(store *logstore.Store, opts ...Option) *LogService {
	s := &LogService{
		store:         store,
		policy:        core.DefaultZeroPolicy(),
		notifyTimeout: DefaultNotifyTimeout,
		now:           time.Now,
		logger:        log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentService)
	return s
}

// Preview resolves in without touching the log. It is meant to be called on
// every input change.
func (s *LogService) Preview(in core.PriceInput) (core.PriceSet, error) {
	return core.Resolve(in, s.policy)
}

// SubmitNewEntry resolves the prices, builds a record stamped with the
// current time and appends it.
func (s *LogService) SubmitNewEntry(ctx context.Context, e Entry) (core.Record, error) {
	prices, err := s.resolveEntry(e)
	if err != nil {
		s.logRejected(ctx, log.OpAppend, e, err)
		return core.Record{}, err
	}

	rec, err := core.NewRecord(s.now(), e.Shop, e.Item, e.Quantity, prices)
	if err != nil {
		s.logRejected(ctx, log.OpAppend, e, err)
		return core.Record{}, err
	}

	if err := s.store.Append(ctx, rec); err != nil {
		return core.Record{}, fmt.Errorf("append record: %w", err)
	}

	s.logger.InfoContext(ctx, "Record appended",
		log.NewFields().
			WithOperation(log.OpAppend).
			WithRecord(rec.ID, rec.Shop, rec.Item, rec.Quantity).
			ToSlice()...)

	s.notify(ctx, core.ChangeAppended, rec.ID)
	return rec, nil
}

// SelectForEdit looks a record up by its display label.
func (s *LogService) SelectForEdit(label string) (core.Record, error) {
	return s.store.FindByLabel(label)
}

// Get looks a record up by its stable ID.
func (s *LogService) Get(id string) (core.Record, error) {
	return s.store.Get(id)
}

// SaveEdit re-resolves the entry's prices and replaces the record with the
// given ID. The creation timestamp is kept.
func (s *LogService) SaveEdit(ctx context.Context, id string, e Entry) (core.Record, error) {
	existing, err := s.store.Get(id)
	if err != nil {
		return core.Record{}, err
	}

	prices, err := s.resolveEntry(e)
	if err != nil {
		s.logRejected(ctx, log.OpUpdate, e, err)
		return core.Record{}, err
	}

	revised, err := existing.Revise(e.Shop, e.Item, e.Quantity, prices)
	if err != nil {
		s.logRejected(ctx, log.OpUpdate, e, err)
		return core.Record{}, err
	}

	updated, err := s.store.Update(ctx, id, revised)
	if err != nil {
		return core.Record{}, fmt.Errorf("update record: %w", err)
	}

	s.logger.InfoContext(ctx, "Record updated",
		log.NewFields().
			WithOperation(log.OpUpdate).
			WithRecord(updated.ID, updated.Shop, updated.Item, updated.Quantity).
			ToSlice()...)

	s.notify(ctx, core.ChangeUpdated, updated.ID)
	return updated, nil
}

// DeleteLast removes the most recent record. ok is false when the log was
// already empty.
func (s *LogService) DeleteLast(ctx context.Context) (core.Record, bool, error) {
	rec, ok, err := s.store.DeleteLast(ctx)
	if err != nil {
		return core.Record{}, false, fmt.Errorf("delete last record: %w", err)
	}
	if !ok {
		return core.Record{}, false, nil
	}

	s.logger.InfoContext(ctx, "Last record deleted",
		log.FieldOperation, log.OpDeleteLast,
		log.FieldRecordID, rec.ID)

	s.notify(ctx, core.ChangeDeleted, rec.ID)
	return rec, true, nil
}

// ClearAll deletes every record. confirmed must be true.
func (s *LogService) ClearAll(ctx context.Context, confirmed bool) (int, error) {
	if !confirmed {
		return 0, ErrConfirmationRequired
	}

	n, err := s.store.ClearAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear log: %w", err)
	}

	s.logger.WarnContext(ctx, "Log cleared",
		log.FieldOperation, log.OpClearAll,
		log.FieldCount, n)

	s.notify(ctx, core.ChangeCleared, "")
	return n, nil
}

// List returns the log in insertion order.
func (s *LogService) List() []core.Record {
	return s.store.List()
}

// Summary returns totals grouped by (date, shop).
func (s *LogService) Summary() []core.SummaryRow {
	return s.store.Summarize()
}

// Suggestions returns the shop and item names used so far.
func (s *LogService) Suggestions() (shops, items []string) {
	return s.store.DistinctShops(), s.store.DistinctItems()
}

// Close releases the underlying store.
func (s *LogService) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func (s *LogService) resolveEntry(e Entry) (core.PriceSet, error) {
	if err := core.ValidateEntry(e.Shop, e.Item, e.Quantity); err != nil {
		return core.PriceSet{}, err
	}
	return core.Resolve(e.Prices, s.policy)
}

// notify fans the change out to every listener and waits for them. Listener
// failures are logged; the mutation has already been flushed.
func (s *LogService) notify(ctx context.Context, kind core.ChangeKind, id string) {
	if len(s.listeners) == 0 {
		return
	}

	records := s.store.List()
	ev := core.ChangeEvent{
		Kind:     kind,
		RecordID: id,
		Count:    len(records),
		At:       s.now(),
	}

	ctx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	var g errgroup.Group
	for i, l := range s.listeners {
		g.Go(func() error {
			start := time.Now()
			if err := l.LogChanged(ctx, ev, records); err != nil {
				s.logger.ErrorContext(ctx, "Change listener failed",
					log.FieldOperation, log.OpNotify,
					log.FieldEvent, string(kind),
					log.FieldListener, fmt.Sprintf("%d:%T", i, l),
					log.FieldErrorType, ErrorType(err),
					log.FieldError, err)
				return err
			}
			s.logger.DebugContext(ctx, "Change listener done",
				log.FieldEvent, string(kind),
				log.FieldListener, fmt.Sprintf("%d:%T", i, l),
				log.FieldDurationMs, time.Since(start).Milliseconds())
			return nil
		})
	}
	_ = g.Wait()
}

func (s *LogService) logRejected(ctx context.Context, op string, e Entry, err error) {
	s.logger.WarnContext(ctx, "Entry rejected",
		log.NewFields().
			WithOperation(op).
			WithRecord("", e.Shop, e.Item, e.Quantity).
			WithErrorType(ErrorType(err)).
			WithError(err).
			ToSlice()...)
}

// ErrorType maps an error to its log category.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, core.ErrInsufficientData):
		return log.ErrorTypeInsufficientData
	case errors.Is(err, core.ErrValidation), errors.Is(err, ErrConfirmationRequired):
		return log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return log.ErrorTypeNotFound
	case errors.Is(err, core.ErrStoreIO):
		return log.ErrorTypeStoreIO
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return log.ErrorTypeNetwork
	default:
		return log.ErrorTypeInternal
	}
}
