package logstore

import (
	"context"

	"expenditure/internal/core"
)

// Medium is the backing storage of the log. Load returns the whole log in
// insertion order; Save replaces it entirely.
type Medium interface {
	Load(ctx context.Context) ([]core.Record, error)
	Save(ctx context.Context, records []core.Record) error
}

// Named is implemented by media that can describe themselves in logs.
type Named interface {
	Name() string
}
