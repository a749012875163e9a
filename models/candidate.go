package models

import "time"

// ProfileSnapshot is the slice of a user profile the matcher needs
type ProfileSnapshot struct {
	Interests []string `dynamodbav:"interests,omitempty" json:"interests"`
	Gender    string   `dynamodbav:"gender,omitempty" json:"gender"`
}

// MatchCriteria carries what a candidate is looking for. The age and
// distance bounds are optional and may be unset.
type MatchCriteria struct {
	Category      string   `json:"category"` // romantic or platonic
	AgeMin        *int     `json:"ageMin,omitempty"`
	AgeMax        *int     `json:"ageMax,omitempty"`
	MaxDistanceKm *float64 `json:"maxDistanceKm,omitempty"`
}

// Candidate is a participant waiting in the matchmaking pool
type Candidate struct {
	UserID     string          `json:"userId"`
	Profile    ProfileSnapshot `json:"profile"`
	Criteria   MatchCriteria   `json:"criteria"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}
