package models

import "time"

// Endpoint is an opaque, reachable transport handle for one participant.
// The socket layer provides the live implementation; tests substitute fakes.
type Endpoint interface {
	Send(event Event) error
}

// ConnectionRecord tracks the single live endpoint of a participant.
// A record not touched within the liveness window is stale and must be
// evicted before it is trusted for delivery.
type ConnectionRecord struct {
	UserID   string
	Endpoint Endpoint
	LastSeen time.Time
}
