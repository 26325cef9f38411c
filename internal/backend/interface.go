package backend

import (
	"context"

	"expenditure/internal/logstore"
	"expenditure/internal/services"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the medium and optional cleanup function
type BackendResult struct {
	Medium  logstore.Medium
	Cleanup CleanupFunc
}

// ListenersResult contains the configured change listeners and a cleanup
// function that releases all of them.
type ListenersResult struct {
	Listeners []services.ChangeListener
	Cleanup   CleanupFunc
}

// Factory creates the log medium and the change listeners from configuration
type Factory interface {
	// CreateBackend creates the medium selected by config.Type
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateListeners creates the optional AMQP and Sheets listeners
	CreateListeners(ctx context.Context, config Config) (*ListenersResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// CSV specific
	LogFilePath string

	// SQLite specific
	SQLiteDBPath string

	// AMQP change events (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror (optional)
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// BackendType represents the type of backend
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
