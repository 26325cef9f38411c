package core

import "time"

// ChangeKind names a log mutation.
type ChangeKind string

const (
	ChangeAppended ChangeKind = "appended"
	ChangeUpdated  ChangeKind = "updated"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeCleared  ChangeKind = "cleared"
)

// ChangeEvent describes a mutation that was flushed to the store.
type ChangeEvent struct {
	Kind     ChangeKind
	RecordID string // empty for ChangeCleared
	Count    int    // log length after the change
	At       time.Time
}
