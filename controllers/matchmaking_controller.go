package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mingle_server/models"
	"mingle_server/services"
)

// MatchmakingController handles HTTP requests for the matchmaking queue
type MatchmakingController struct {
	Pool      *services.WaitingPool
	Lifecycle *services.MatchLifecycle
	Clock     services.Clock
}

// NewMatchmakingController creates a new MatchmakingController instance
func NewMatchmakingController(pool *services.WaitingPool, lifecycle *services.MatchLifecycle, clock services.Clock) *MatchmakingController {
	return &MatchmakingController{Pool: pool, Lifecycle: lifecycle, Clock: clock}
}

type enqueueRequest struct {
	UserID        string   `json:"userId"`
	Gender        string   `json:"gender"`
	Category      string   `json:"category"`
	Interests     []string `json:"interests"`
	AgeMin        *int     `json:"ageMin,omitempty"`
	AgeMax        *int     `json:"ageMax,omitempty"`
	MaxDistanceKm *float64 `json:"maxDistanceKm,omitempty"`
}

// HandleEnqueue validates the criteria and admits the candidate to the pool
func (mc *MatchmakingController) HandleEnqueue(w http.ResponseWriter, r *http.Request) {
	var request enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	// Validation errors never enter the pool.
	if request.UserID == "" {
		http.Error(w, `{"error": "userId is required"}`, http.StatusBadRequest)
		return
	}
	if request.Category != models.CategoryRomantic && request.Category != models.CategoryPlatonic {
		http.Error(w, `{"error": "category must be romantic or platonic"}`, http.StatusBadRequest)
		return
	}
	if len(request.Interests) == 0 {
		http.Error(w, `{"error": "at least one interest is required"}`, http.StatusBadRequest)
		return
	}

	candidate := models.Candidate{
		UserID: request.UserID,
		Profile: models.ProfileSnapshot{
			Interests: request.Interests,
			Gender:    request.Gender,
		},
		Criteria: models.MatchCriteria{
			Category:      request.Category,
			AgeMin:        request.AgeMin,
			AgeMax:        request.AgeMax,
			MaxDistanceKm: request.MaxDistanceKm,
		},
		EnqueuedAt: mc.Clock.Now(),
	}

	if err := mc.Pool.Enqueue(candidate); err != nil {
		if errors.Is(err, services.ErrAlreadyQueued) {
			http.Error(w, `{"error": "already queued or matched"}`, http.StatusConflict)
			return
		}
		http.Error(w, `{"error": "failed to enqueue"}`, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":      "Waiting for a match",
		"positionHint": mc.Pool.Position(request.UserID),
	})
}

// HandleCancel removes the caller from the queue, or rejects their proposed
// match when one is in flight
func (mc *MatchmakingController) HandleCancel(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.UserID == "" {
		http.Error(w, `{"error": "userId is required"}`, http.StatusBadRequest)
		return
	}

	outcome := mc.Lifecycle.Cancel(r.Context(), request.UserID)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"outcome": outcome})
}

// HandleRespond records an accept/reject for a proposed match
func (mc *MatchmakingController) HandleRespond(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID  string `json:"userId"`
		MatchID string `json:"matchId"`
		Accept  bool   `json:"accept"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.UserID == "" || request.MatchID == "" {
		http.Error(w, `{"error": "userId and matchId are required"}`, http.StatusBadRequest)
		return
	}

	if err := mc.Lifecycle.Respond(r.Context(), request.MatchID, request.UserID, request.Accept); err != nil {
		// Stale responses are ignored, not failed.
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"message": "response ignored: match is no longer open"})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "response recorded"})
}

// HandleQueueStatus reports whether the caller is waiting and where
func (mc *MatchmakingController) HandleQueueStatus(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, `{"error": "userId is required"}`, http.StatusBadRequest)
		return
	}

	position := mc.Pool.Position(userID)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"waiting":      position >= 0,
		"positionHint": position,
		"inMatch":      mc.Lifecycle.IsActive(userID),
	})
}

// HandleGetMatches returns the caller's finalized matches
func (mc *MatchmakingController) HandleGetMatches(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, `{"error": "userId is required"}`, http.StatusBadRequest)
		return
	}

	matches := mc.Lifecycle.FinalizedFor(userID)
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"matches": matches,
	})
}
