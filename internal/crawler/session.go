package crawler

import (
	"fmt"
	"time"
)

// CreatedAtLayout is the timestamp format persisted in created_at.
const CreatedAtLayout = "2006-01-02 15:04:05 MST-0700"

// Session is fixed at the start of a crawl run. Every ruling produced in the
// run carries the same CreatedAt.
type Session struct {
	ID        string
	StartedAt time.Time
	CreatedAt string
}

// NewSession stamps a session with the clock's current time rendered in loc.
func NewSession(idGen IDGenerator, clock Clock, loc *time.Location) (Session, error) {
	id, err := idGen.NewID()
	if err != nil {
		return Session{}, fmt.Errorf("generate session id: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	now := clock.Now().In(loc)
	return Session{
		ID:        id,
		StartedAt: now,
		CreatedAt: now.Format(CreatedAtLayout),
	}, nil
}

// LoadLocation resolves a timezone name, falling back to a fixed WIB (UTC+7)
// zone for Asia/Jakarta when the tz database is unavailable.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}
	if name == "Asia/Jakarta" {
		return time.FixedZone("WIB", 7*60*60), nil
	}
	return nil, fmt.Errorf("load timezone %q: %w", name, err)
}
