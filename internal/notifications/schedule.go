package notifications

import (
	"context"
	"time"
)

// QuietHours defers sends that fall inside a nightly window. The window
// may cross midnight (start 22, end 9). Disabled windows never defer.
type QuietHours struct {
	Enabled   bool
	StartHour int // first quiet hour, 0-23
	EndHour   int // first allowed hour, 0-23
}

// In reports whether t falls inside the quiet window.
func (q QuietHours) In(t time.Time) bool {
	if !q.Enabled {
		return false
	}
	h := t.Hour()
	if q.StartHour <= q.EndHour {
		return h >= q.StartHour && h < q.EndHour
	}
	return h >= q.StartHour || h < q.EndHour
}

// NextAllowed returns the first instant at or after t outside the window.
func (q QuietHours) NextAllowed(t time.Time) time.Time {
	if !q.In(t) {
		return t
	}
	next := time.Date(t.Year(), t.Month(), t.Day(), q.EndHour, 0, 0, 0, t.Location())
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Wait blocks until t is outside the quiet window or ctx is cancelled.
func (q QuietHours) Wait(ctx context.Context, now func() time.Time) error {
	at := now()
	allowed := q.NextAllowed(at)
	if !allowed.After(at) {
		return nil
	}
	timer := time.NewTimer(allowed.Sub(at))
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
