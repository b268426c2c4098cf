package appointment

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestHistory_AppendDoesNotAlias(t *testing.T) {
	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	base := make(History, 1, 4)
	base[0] = AuditEvent{Action: ActionCreated, User: 1, Timestamp: ts}

	a := base.Append(AuditEvent{Action: ActionStatusUpdated, User: 2, Timestamp: ts, Status: "booked"})
	b := base.Append(AuditEvent{Action: ActionStatusUpdated, User: 3, Timestamp: ts, Status: "cancelled"})

	if len(base) != 1 || len(a) != 2 || len(b) != 2 {
		t.Fatalf("unexpected lengths: base=%d a=%d b=%d", len(base), len(a), len(b))
	}
	if a[1].Status != "booked" {
		t.Errorf("expected booked, got %q", a[1].Status)
	}
	if b[1].Status != "cancelled" {
		t.Errorf("expected cancelled, got %q", b[1].Status)
	}
}

func TestHistory_AppendKeepsOrder(t *testing.T) {
	var h History
	for i := int64(1); i <= 3; i++ {
		h = h.Append(AuditEvent{Action: ActionStatusUpdated, User: i})
	}
	if len(h) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(h))
	}
	for i, e := range h {
		if e.User != int64(i+1) {
			t.Errorf("entry %d: expected user %d, got %d", i, i+1, e.User)
		}
	}
}

func TestDecodeHistory(t *testing.T) {
	arr := `[{"action":"created","user":7,"timestamp":"2024-03-01T09:00:00Z"}]`
	encoded, _ := json.Marshal(arr)

	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"array", arr, 1},
		{"string-encoded array", string(encoded), 1},
		{"null", "null", 0},
		{"empty", "", 0},
		{"empty array", "[]", 0},
		{"string-encoded null", `"null"`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := DecodeHistory([]byte(tt.raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h == nil {
				t.Error("expected non-nil history")
			}
			if len(h) != tt.want {
				t.Errorf("expected %d entries, got %d", tt.want, len(h))
			}
		})
	}
}

func TestDecodeHistory_Fields(t *testing.T) {
	h, err := DecodeHistory([]byte(`[{"action":"status_updated","user":3,"timestamp":"2024-03-01T09:00:00Z","status":"booked"}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(h))
	}
	e := h[0]
	if e.Action != ActionStatusUpdated || e.User != 3 || e.Status != "booked" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if !e.Timestamp.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", e.Timestamp)
	}
}

func TestDecodeHistory_Corrupt(t *testing.T) {
	for _, raw := range []string{`{"action":"created"}`, `[{`, `"[not json"`, `42`} {
		if _, err := DecodeHistory([]byte(raw)); err == nil {
			t.Errorf("expected error for %s", raw)
		}
	}
}

func TestHistory_RoundTripOmitsEmptyStatus(t *testing.T) {
	h := History{}.Append(AuditEvent{Action: ActionCreated, User: 1, Timestamp: time.Unix(0, 0).UTC()})
	out, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(out), "status") {
		t.Errorf("empty status should be omitted: %s", out)
	}
}
