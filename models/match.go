package models

import (
	"strings"
	"time"
)

// ProposedMatch is a tentative pairing awaiting mutual acceptance. Once it
// reaches a terminal state it is never resurrected.
type ProposedMatch struct {
	MatchID            string            `json:"matchId"` // Unique matchId
	Users              []string          `json:"users"`   // Exactly two participants
	SharedInterests    []string          `json:"sharedInterests"`
	Acceptance         map[string]string `json:"acceptance"` // userId -> acceptance state
	State              string            `json:"state"`
	Origin             string            `json:"origin"` // human or synthetic
	CreatedAt          time.Time         `json:"createdAt"`
	ExpiresAt          time.Time         `json:"expiresAt"`
	PersistencePending bool              `json:"persistencePending,omitempty"`
}

// Other returns the participant on the opposite side of userID, or "" when
// userID is not part of the match.
func (m *ProposedMatch) Other(userID string) string {
	for _, u := range m.Users {
		if u != userID {
			return u
		}
	}
	return ""
}

// Has reports whether userID is one of the two participants.
func (m *ProposedMatch) Has(userID string) bool {
	for _, u := range m.Users {
		if u == userID {
			return true
		}
	}
	return false
}

// Terminal reports whether the match has reached a terminal state.
func (m *ProposedMatch) Terminal() bool {
	return m.State != MatchStateProposed
}

// SyntheticIDPrefix marks generated counterpart identities.
const SyntheticIDPrefix = "synthetic-"

// IsSyntheticID reports whether the identity belongs to a generated
// counterpart.
func IsSyntheticID(userID string) bool {
	return strings.HasPrefix(userID, SyntheticIDPrefix)
}

// FinalizedMatch is the record handed to the persistence collaborator
type FinalizedMatch struct {
	MatchID         string   `dynamodbav:"matchId" json:"matchId"`
	Users           []string `dynamodbav:"users" json:"users"`
	SharedInterests []string `dynamodbav:"sharedInterests" json:"sharedInterests"`
	Origin          string   `dynamodbav:"origin" json:"origin"`
	Status          string   `dynamodbav:"status" json:"status"` // active, archived
	CreatedAt       string   `dynamodbav:"createdAt" json:"createdAt"`
}

// MatchesTable is the DynamoDB table name for finalized matches
const MatchesTable = "Matches"
