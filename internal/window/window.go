// Package window computes the daily rollover boundary that decides which
// posts are active. Every eligibility check goes through here.
package window

import (
	"fmt"
	"time"
)

// Window is a fixed daily rollover at Hour:00 in a fixed location.
type Window struct {
	hour int
	loc  *time.Location
}

// New builds a Window for the given rollover hour and IANA zone name.
func New(hour int, timezone string) (*Window, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("rollover hour must be within 0..23, got %d", hour)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &Window{hour: hour, loc: loc}, nil
}

// MustNew is New for static configuration; it panics on bad input.
func MustNew(hour int, timezone string) *Window {
	w, err := New(hour, timezone)
	if err != nil {
		panic(err)
	}
	return w
}

// Hour returns the rollover hour.
func (w *Window) Hour() int { return w.hour }

// Location returns the rollover zone.
func (w *Window) Location() *time.Location { return w.loc }

// CurrentStart returns the most recent rollover at or before now.
//
// Calendar arithmetic is used instead of adding 24h, so across a DST
// transition the boundary stays at Hour:00 local time.
func (w *Window) CurrentStart(now time.Time) time.Time {
	local := now.In(w.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), w.hour, 0, 0, 0, w.loc)
	if local.Before(start) {
		start = time.Date(local.Year(), local.Month(), local.Day()-1, w.hour, 0, 0, 0, w.loc)
	}
	return start
}

// NextStart returns the first rollover strictly after now.
func (w *Window) NextStart(now time.Time) time.Time {
	cur := w.CurrentStart(now)
	return time.Date(cur.Year(), cur.Month(), cur.Day()+1, w.hour, 0, 0, 0, w.loc)
}

// IsActive reports whether ts falls inside the current window.
// The lower bound is exclusive: ts equal to the boundary is not active.
func (w *Window) IsActive(ts, now time.Time) bool {
	return ts.After(w.CurrentStart(now))
}
