package models

// Lifecycle events surfaced to connected participants
const (
	EventMatchProposed       = "match.proposed"
	EventMatchWaitingForPeer = "match.waitingForPeer"
	EventMatchFinalized      = "match.finalized"
	EventMatchRejected       = "match.rejected"
	EventMatchExpired        = "match.expired"
	EventMatchCancelled      = "match.cancelled"
	EventPoolWaiting         = "pool.waiting"
)

// Event is the envelope delivered over a participant's live connection
type Event struct {
	Name    string                 `json:"event"`
	MatchID string                 `json:"matchId,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}
