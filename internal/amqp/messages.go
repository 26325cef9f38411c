package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"expenditure/internal/core"
)

// LogChangeMessage announces a flushed log mutation. It carries only the
// record ID and the log length; consumers read the log for details.
type LogChangeMessage struct {
	Event     string    `json:"event"`
	ID        string    `json:"id,omitempty"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLogChangeMessage builds the message for ev.
func NewLogChangeMessage(ev core.ChangeEvent) *LogChangeMessage {
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &LogChangeMessage{
		Event:     string(ev.Kind),
		ID:        ev.RecordID,
		Count:     ev.Count,
		Timestamp: ts.UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LogChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LogChangeMessageFromJSON parses a message and checks its event name.
func LogChangeMessageFromJSON(data []byte) (*LogChangeMessage, error) {
	var msg LogChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch core.ChangeKind(msg.Event) {
	case core.ChangeAppended, core.ChangeUpdated, core.ChangeDeleted, core.ChangeCleared:
	default:
		return nil, fmt.Errorf("unknown event %q", msg.Event)
	}
	return &msg, nil
}
