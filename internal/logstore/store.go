package logstore

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"expenditure/internal/core"
	"expenditure/internal/log"
)

// Store is the ordered expenditure log. Every mutation is applied to a copy,
// flushed to the medium and only then made visible, so a failed write
// leaves the log as it was.
type Store struct {
	mu      sync.Mutex
	medium  Medium
	records []core.Record
	logger  *log.Logger
}

// Open loads the whole log from medium. A medium that has nothing yet
// yields an empty log; any other load failure is returned.
func Open(ctx context.Context, medium Medium, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)

	start := time.Now()
	records, err := medium.Load(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load log",
			log.FieldOperation, log.OpLoad,
			log.FieldBackend, mediumName(medium),
			log.FieldError, err)
		return nil, core.NewStoreIO(log.OpLoad, err)
	}

	logger.InfoContext(ctx, "Log loaded",
		log.FieldBackend, mediumName(medium),
		log.FieldCount, len(records),
		log.FieldDurationMs, time.Since(start).Milliseconds())

	return &Store{medium: medium, records: records, logger: logger}, nil
}

// Append validates rec and adds it at the end of the log.
func (s *Store) Append(ctx context.Context, rec core.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.ID == rec.ID {
			return &core.ValidationError{Field: "id", Reason: "duplicate record id " + rec.ID}
		}
	}

	next := make([]core.Record, len(s.records), len(s.records)+1)
	copy(next, s.records)
	next = append(next, rec)
	return s.commit(ctx, log.OpAppend, next)
}

// Update replaces the record identified by id. The stored ID and Timestamp
// are kept whatever rec carries. The replaced record is returned.
func (s *Store) Update(ctx context.Context, id string, rec core.Record) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return core.Record{}, core.NewNotFound(id)
	}

	rec.ID = s.records[i].ID
	rec.Timestamp = s.records[i].Timestamp
	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}

	next := s.snapshot()
	next[i] = rec
	if err := s.commit(ctx, log.OpUpdate, next); err != nil {
		return core.Record{}, err
	}
	return rec, nil
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return core.Record{}, core.NewNotFound(id)
	}
	return s.records[i], nil
}

// At returns the record at position i in log order.
func (s *Store) At(i int) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.records) {
		return core.Record{}, core.NewNotFound(fmt.Sprintf("#%d", i))
	}
	return s.records[i], nil
}

// FindByLabel returns the first record whose Label equals label. Labels are
// not unique; a later record with the same label is unreachable this way.
func (s *Store) FindByLabel(label string) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.records {
		if r.Label() == label {
			return r, nil
		}
	}
	return core.Record{}, core.NewNotFound(label)
}

// DeleteLast removes the most recently appended record. On an empty log it
// reports false and writes nothing.
func (s *Store) DeleteLast(ctx context.Context) (core.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		s.logger.WarnContext(ctx, "Delete last on empty log",
			log.FieldOperation, log.OpDeleteLast)
		return core.Record{}, false, nil
	}

	last := s.records[len(s.records)-1]
	next := s.snapshot()[:len(s.records)-1]
	if err := s.commit(ctx, log.OpDeleteLast, next); err != nil {
		return core.Record{}, false, err
	}
	return last, true, nil
}

// ClearAll empties the log and returns how many records were removed.
func (s *Store) ClearAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.records)
	if err := s.commit(ctx, log.OpClearAll, []core.Record{}); err != nil {
		return 0, err
	}
	return n, nil
}

// List returns a copy of the log in insertion order.
func (s *Store) List() []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// DistinctShops returns every shop name once, in ascending order.
// Comparison is case-sensitive.
func (s *Store) DistinctShops() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.records))
	for _, r := range s.records {
		names = append(names, r.Shop)
	}
	return dedupeSorted(names)
}

// DistinctItems returns every item name once, in ascending order.
// Comparison is case-sensitive.
func (s *Store) DistinctItems() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.records))
	for _, r := range s.records {
		names = append(names, r.Item)
	}
	return dedupeSorted(names)
}

// Summarize groups the log by (date, shop). See core.Summarize.
func (s *Store) Summarize() []core.SummaryRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Summarize(s.records)
}

// Close releases the medium if it holds resources.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.medium.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// commit flushes next and installs it as the log. Must hold s.mu.
func (s *Store) commit(ctx context.Context, op string, next []core.Record) error {
	start := time.Now()
	if err := s.medium.Save(ctx, next); err != nil {
		s.logger.ErrorContext(ctx, "Failed to flush log",
			log.FieldOperation, op,
			log.FieldBackend, mediumName(s.medium),
			log.FieldError, err)
		return core.NewStoreIO(op, err)
	}
	s.records = next

	s.logger.DebugContext(ctx, "Log flushed",
		log.FieldOperation, op,
		log.FieldCount, len(next),
		log.FieldDurationMs, time.Since(start).Milliseconds())
	return nil
}

func (s *Store) snapshot() []core.Record {
	out := make([]core.Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) indexOf(id string) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func mediumName(m Medium) string {
	if n, ok := m.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", m)
}

func dedupeSorted(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
