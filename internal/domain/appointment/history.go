package appointment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	ActionCreated       = "created"
	ActionStatusUpdated = "status_updated"
)

// AuditEvent is one entry of an appointment's history. Status is set for
// status changes only.
type AuditEvent struct {
	Action    string    `json:"action"`
	User      int64     `json:"user"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status,omitempty"`
}

// History is append-only: entries are never edited or removed.
type History []AuditEvent

// Append returns a new History with e at the end. h is left untouched.
func (h History) Append(e AuditEvent) History {
	out := make(History, len(h), len(h)+1)
	copy(out, h)
	return append(out, e)
}

// DecodeHistory reads a stored history. Older rows hold the array encoded
// as a JSON string rather than as a JSON array, so both are accepted. NULL
// or empty input is an empty history.
func DecodeHistory(raw []byte) (History, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return History{}, nil
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		raw = bytes.TrimSpace([]byte(inner))
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			return History{}, nil
		}
	}

	var h History
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if h == nil {
		h = History{}
	}
	return h, nil
}
