// Package memory is a volatile log medium. Nothing survives the process.
package memory

import (
	"context"
	"sync"

	"expenditure/internal/core"
)

type Medium struct {
	mu      sync.Mutex
	records []core.Record
	saves   int
	failErr error
}

// New creates a medium seeded with records.
func New(records ...core.Record) *Medium {
	return &Medium{records: append([]core.Record(nil), records...)}
}

func (m *Medium) Name() string { return "memory" }

func (m *Medium) Load(_ context.Context) ([]core.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Record(nil), m.records...), nil
}

func (m *Medium) Save(_ context.Context, records []core.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.records = append([]core.Record(nil), records...)
	m.saves++
	return nil
}

// Saves reports how many successful Save calls were made.
func (m *Medium) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// SetFailSave makes every following Save return err. Pass nil to undo.
func (m *Medium) SetFailSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}
