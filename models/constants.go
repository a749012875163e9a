package models

// Relationship categories a candidate can seek
const (
	CategoryRomantic = "romantic"
	CategoryPlatonic = "platonic"
)

// Binary gender categories (extended identities are configured at runtime)
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Match origins
const (
	OriginHuman     = "human"
	OriginSynthetic = "synthetic"
)

// Per-participant acceptance states
const (
	AcceptanceUnknown  = "unknown"
	AcceptanceAccepted = "accepted"
	AcceptanceRejected = "rejected"
)

// Proposed match states
const (
	MatchStateProposed  = "proposed"
	MatchStateFinalized = "finalized"
	MatchStateRejected  = "rejected"
	MatchStateExpired   = "expired"
	MatchStateCancelled = "cancelled" // proposal aborted by delivery failure before any response
)
