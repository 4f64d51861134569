// Package audit records which codes and production orders were looked up, by
// whom, and how the lookup went.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action is the kind of lookup recorded.
type Action string

// Recorded lookups.
const (
	ActionSearch Action = "search"
	ActionParts  Action = "parts"
	ActionLots   Action = "lots"
)

// Entry is one recorded lookup.
type Entry struct {
	ID          string        `json:"id"`
	Action      Action        `json:"action"`
	Subject     string        `json:"subject,omitempty"`
	Query       string        `json:"query"`
	ResultCount int           `json:"result_count"`
	Outcome     string        `json:"outcome"`
	Duration    time.Duration `json:"duration"`
	RequestID   string        `json:"request_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Filter narrows Recent. Empty fields match everything.
type Filter struct {
	Action  Action
	Subject string
	Limit   int
}

const defaultRecentLimit = 20

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return defaultRecentLimit
	}
	return f.Limit
}

// Recorder persists entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) (*Entry, error)
}

// Store is a Recorder that can also be read back and migrated.
type Store interface {
	Recorder
	Recent(ctx context.Context, f Filter) ([]Entry, error)
	Migrate(ctx context.Context) error
	Close() error
}

// Nop discards every entry. It is used when the audit trail is off.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(_ context.Context, e Entry) (*Entry, error) {
	stamp(&e, time.Now)
	return &e, nil
}

// stamp fills the generated fields of e.
func stamp(e *Entry, now func() time.Time) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now().UTC()
	}
}
