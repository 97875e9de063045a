package models

import "time"

// TrackingEntry is the ephemeral live-tracking overlay for a single request.
// It exists independently of the request row so UI surfaces can ask "is this
// actively tracked right now" without loading the full aggregate. Entries are
// deactivated on completion and evicted by TTL, never grown without bound.
type TrackingEntry struct {
	RequestID       string    `json:"request_id"`
	IsActive        bool      `json:"is_active"`
	StartTime       time.Time `json:"start_time"`
	Eta             int       `json:"eta"` // minutes from StartTime
	CurrentLocation Location  `json:"current_location"`
}

// MinutesRemaining derives the countdown shown to customers while a provider
// is en route. Never negative; an overdue provider reads as 0.
func (t TrackingEntry) MinutesRemaining(now time.Time) int {
	remaining := t.Eta - int(now.Sub(t.StartTime).Minutes())
	if remaining < 0 {
		return 0
	}
	return remaining
}
