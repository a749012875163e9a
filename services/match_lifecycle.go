package services

import (
	"context"
	"log"
	"sync"
	"time"

	"mingle_server/models"

	"github.com/google/uuid"
)

// MatchStore is the external persistence collaborator for finalized matches.
type MatchStore interface {
	FinalizeMatch(ctx context.Context, match models.FinalizedMatch) error
}

// CounterpartGreeter sends the opening greeting of a synthetic counterpart
// after its match finalizes.
type CounterpartGreeter interface {
	Greet(ctx context.Context, match models.ProposedMatch) error
}

// managedMatch pairs the match with the original candidate snapshots so
// survivors can be re-admitted to the pool with their wait time intact.
type managedMatch struct {
	match       *models.ProposedMatch
	candidates  map[string]models.Candidate
	syntheticID string // "" for human matches
}

// MatchLifecycle owns every ProposedMatch from creation to terminal state.
// Other components only read snapshots; all mutation happens here, and a
// terminal match is never resurrected.
type MatchLifecycle struct {
	mu      sync.Mutex
	matches map[string]*managedMatch
	active  map[string]string // userID -> matchID while the match is non-terminal

	pool       *WaitingPool
	dispatcher *NotificationDispatcher
	registry   *ConnectionRegistry
	store      MatchStore
	greeter    CounterpartGreeter
	clock      Clock

	ttl              time.Duration
	finalizeAttempts int
}

// NewMatchLifecycle creates the lifecycle manager. ttl is the fixed window a
// proposal stays open, counted from creation regardless of delivery outcome.
func NewMatchLifecycle(pool *WaitingPool, dispatcher *NotificationDispatcher, registry *ConnectionRegistry, store MatchStore, clock Clock, ttl time.Duration) *MatchLifecycle {
	return &MatchLifecycle{
		matches:          make(map[string]*managedMatch),
		active:           make(map[string]string),
		pool:             pool,
		dispatcher:       dispatcher,
		registry:         registry,
		store:            store,
		clock:            clock,
		ttl:              ttl,
		finalizeAttempts: 3,
	}
}

// SetGreeter wires in the synthetic-counterpart greeting collaborator.
func (l *MatchLifecycle) SetGreeter(greeter CounterpartGreeter) {
	l.greeter = greeter
}

// IsActive reports whether the identity is inside a non-terminal match. The
// pool uses this to reject duplicate enqueues.
func (l *MatchLifecycle) IsActive(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, active := l.active[userID]
	return active
}

// Get returns a snapshot of a match.
func (l *MatchLifecycle) Get(matchID string) (models.ProposedMatch, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	mm, exists := l.matches[matchID]
	if !exists {
		return models.ProposedMatch{}, false
	}
	return copyMatch(mm.match), true
}

// FinalizedFor returns snapshots of the finalized matches a participant is
// part of.
func (l *MatchLifecycle) FinalizedFor(userID string) []models.ProposedMatch {
	l.mu.Lock()
	defer l.mu.Unlock()
	var finalized []models.ProposedMatch
	for _, mm := range l.matches {
		if mm.match.State == models.MatchStateFinalized && mm.match.Has(userID) {
			finalized = append(finalized, copyMatch(mm.match))
		}
	}
	return finalized
}

// Propose creates a match for two human candidates and attempts delivery to
// both sides. The candidates must already hold pool processing locks; their
// pool entries are removed here, after the match is registered, so the
// identity is never free for a concurrent enqueue mid-handoff. When either
// delivery fails the proposal is aborted and the reachable side is
// re-admitted with its original enqueue timestamp.
func (l *MatchLifecycle) Propose(ctx context.Context, a, b models.Candidate, result CompatibilityResult) (models.ProposedMatch, error) {
	mm, err := l.register(a, b, result.SharedInterests, models.OriginHuman, "")
	if err != nil {
		return models.ProposedMatch{}, err
	}
	l.pool.Remove(a.UserID)
	l.pool.Remove(b.UserID)

	log.Printf("✅ Proposed match %s: %s ↔ %s (score basis %v)", mm.match.MatchID, a.UserID, b.UserID, result.SharedInterests)

	delivery := l.dispatcher.ProposeToBoth(mm.match)
	if !delivery.Complete() {
		l.abortProposal(ctx, mm, delivery)
		return models.ProposedMatch{}, ErrDeliveryFailed
	}
	return l.snapshot(mm), nil
}

// ProposeSynthetic folds a generated counterpart into the lifecycle. The
// counterpart's acceptance is pre-set, so only the human side's response can
// move the match to a terminal state.
func (l *MatchLifecycle) ProposeSynthetic(ctx context.Context, human, counterpart models.Candidate, result CompatibilityResult) (models.ProposedMatch, error) {
	mm, err := l.register(human, counterpart, result.SharedInterests, models.OriginSynthetic, counterpart.UserID)
	if err != nil {
		return models.ProposedMatch{}, err
	}
	mm.match.Acceptance[counterpart.UserID] = models.AcceptanceAccepted
	l.pool.Remove(human.UserID)

	log.Printf("✅ Proposed synthetic match %s for %s", mm.match.MatchID, human.UserID)

	if delivered := l.dispatcher.Deliver(human.UserID, ProposalEvent(mm.match)); !delivered.Delivered {
		// The human side is unreachable; drop the candidate, the connection
		// record is presumed stale.
		l.abortProposal(ctx, mm, ProposalDelivery{})
		return models.ProposedMatch{}, ErrDeliveryFailed
	}
	return l.snapshot(mm), nil
}

// Respond records an accept or reject from one participant. Events that
// reference an unknown, terminal, or foreign match are logged and ignored.
func (l *MatchLifecycle) Respond(ctx context.Context, matchID, userID string, accept bool) error {
	l.mu.Lock()
	mm, exists := l.matches[matchID]
	if !exists || mm.match.Terminal() || !mm.match.Has(userID) {
		l.mu.Unlock()
		log.Printf("⚠️ Ignoring stale response from %s for match %s", userID, matchID)
		return ErrStaleMatch
	}

	if !accept {
		mm.match.Acceptance[userID] = models.AcceptanceRejected
		l.terminate(mm, models.MatchStateRejected)
		other := mm.match.Other(userID)
		survivor, isHuman := l.survivorLocked(mm, other)
		l.mu.Unlock()

		log.Printf("❌ Match %s rejected by %s", matchID, userID)
		if isHuman {
			l.dispatcher.Deliver(other, models.Event{Name: models.EventMatchRejected, MatchID: matchID})
			if l.registry.IsLive(other) {
				l.requeue(survivor)
			}
		}
		return nil
	}

	mm.match.Acceptance[userID] = models.AcceptanceAccepted
	other := mm.match.Other(userID)
	if mm.match.Acceptance[other] != models.AcceptanceAccepted {
		l.mu.Unlock()
		l.dispatcher.Deliver(userID, models.Event{Name: models.EventMatchWaitingForPeer, MatchID: matchID})
		return nil
	}

	// Both sides accepted: finalize exactly once, under the lock, before any
	// external call.
	l.terminate(mm, models.MatchStateFinalized)
	snapshot := copyMatch(mm.match)
	syntheticID := mm.syntheticID
	l.mu.Unlock()

	l.persist(ctx, mm, snapshot)
	l.announceFinalized(mm, syntheticID)

	if snapshot.Origin == models.OriginSynthetic && l.greeter != nil {
		if err := l.greeter.Greet(ctx, snapshot); err != nil {
			log.Printf("⚠️ Counterpart greeting for match %s failed: %v", matchID, err)
		}
	}
	return nil
}

// Cancel handles a participant's cancel command. Waiting candidates are
// removed from the pool; a cancel while inside a proposed match counts as an
// explicit reject.
func (l *MatchLifecycle) Cancel(ctx context.Context, userID string) string {
	if l.pool.Remove(userID) {
		log.Printf("✅ %s left the waiting pool", userID)
		return "dequeued"
	}

	l.mu.Lock()
	matchID, active := l.active[userID]
	l.mu.Unlock()
	if !active {
		return "idle"
	}
	if err := l.Respond(ctx, matchID, userID, false); err != nil {
		return "idle"
	}
	return "rejected"
}

// ExpireOverdue moves every proposal past its expiry timestamp to Expired
// and re-admits the human sides, including any side that had already
// accepted: a one-sided accept does not survive expiry. Returns the number
// of matches expired. The pairing sweep drives this so tests can advance
// virtual time.
func (l *MatchLifecycle) ExpireOverdue(ctx context.Context) int {
	now := l.clock.Now()

	l.mu.Lock()
	type expiredMatch struct {
		matchID   string
		survivors []models.Candidate
		notified  []string
	}
	var expired []expiredMatch
	for _, mm := range l.matches {
		if mm.match.Terminal() || now.Before(mm.match.ExpiresAt) {
			continue
		}
		l.terminate(mm, models.MatchStateExpired)
		e := expiredMatch{matchID: mm.match.MatchID}
		for _, u := range mm.match.Users {
			if survivor, isHuman := l.survivorLocked(mm, u); isHuman {
				e.survivors = append(e.survivors, survivor)
				e.notified = append(e.notified, u)
			}
		}
		expired = append(expired, e)
	}
	l.mu.Unlock()

	for _, e := range expired {
		log.Printf("⚠️ Match %s expired before mutual acceptance", e.matchID)
		for _, u := range e.notified {
			l.dispatcher.Deliver(u, models.Event{Name: models.EventMatchExpired, MatchID: e.matchID})
		}
		for _, survivor := range e.survivors {
			l.requeue(survivor)
		}
	}
	return len(expired)
}

// register creates and indexes a new proposed match. It fails when either
// identity is already inside an active match.
func (l *MatchLifecycle) register(a, b models.Candidate, shared []string, origin, syntheticID string) (*managedMatch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.active[a.UserID]; busy {
		return nil, ErrAlreadyQueued
	}
	if _, busy := l.active[b.UserID]; busy {
		return nil, ErrAlreadyQueued
	}

	now := l.clock.Now()
	mm := &managedMatch{
		match: &models.ProposedMatch{
			MatchID:         uuid.NewString(),
			Users:           []string{a.UserID, b.UserID},
			SharedInterests: shared,
			Acceptance: map[string]string{
				a.UserID: models.AcceptanceUnknown,
				b.UserID: models.AcceptanceUnknown,
			},
			State:     models.MatchStateProposed,
			Origin:    origin,
			CreatedAt: now,
			ExpiresAt: now.Add(l.ttl),
		},
		candidates: map[string]models.Candidate{
			a.UserID: a,
			b.UserID: b,
		},
		syntheticID: syntheticID,
	}
	l.matches[mm.match.MatchID] = mm
	l.active[a.UserID] = mm.match.MatchID
	l.active[b.UserID] = mm.match.MatchID
	return mm, nil
}

// terminate flips the match to a terminal state and frees both identities.
// Callers must hold l.mu.
func (l *MatchLifecycle) terminate(mm *managedMatch, state string) {
	mm.match.State = state
	for _, u := range mm.match.Users {
		delete(l.active, u)
	}
}

// survivorLocked returns the original candidate for a human participant.
// Callers must hold l.mu.
func (l *MatchLifecycle) survivorLocked(mm *managedMatch, userID string) (models.Candidate, bool) {
	if userID == "" || userID == mm.syntheticID {
		return models.Candidate{}, false
	}
	candidate, exists := mm.candidates[userID]
	return candidate, exists
}

// abortProposal rolls back a proposal whose delivery failed. The match is
// terminal before anyone is re-admitted, and re-admitted candidates keep
// their original enqueue timestamp.
func (l *MatchLifecycle) abortProposal(ctx context.Context, mm *managedMatch, delivery ProposalDelivery) {
	l.mu.Lock()
	if mm.match.Terminal() {
		l.mu.Unlock()
		return
	}
	l.terminate(mm, models.MatchStateCancelled)
	var survivors []models.Candidate
	for _, result := range []DeliveryResult{delivery.A, delivery.B} {
		if !result.Delivered {
			continue
		}
		if survivor, isHuman := l.survivorLocked(mm, result.UserID); isHuman {
			survivors = append(survivors, survivor)
		}
	}
	l.mu.Unlock()

	log.Printf("⚠️ Proposal %s aborted: delivery incomplete", mm.match.MatchID)
	for _, survivor := range survivors {
		l.requeue(survivor)
	}
}

// requeue re-admits a candidate to the pool and pushes its queue position.
func (l *MatchLifecycle) requeue(candidate models.Candidate) {
	if err := l.pool.Enqueue(candidate); err != nil {
		log.Printf("⚠️ Could not re-admit %s to the pool: %v", candidate.UserID, err)
		return
	}
	l.dispatcher.Deliver(candidate.UserID, models.Event{
		Name:    models.EventPoolWaiting,
		Payload: map[string]interface{}{"positionHint": l.pool.Position(candidate.UserID)},
	})
}

// persist hands the finalized match to the store with bounded retries. A
// write that keeps failing degrades to persistence_pending; the match stays
// finalized in memory so the no-double-match invariant holds.
func (l *MatchLifecycle) persist(ctx context.Context, mm *managedMatch, snapshot models.ProposedMatch) {
	record := models.FinalizedMatch{
		MatchID:         snapshot.MatchID,
		Users:           snapshot.Users,
		SharedInterests: snapshot.SharedInterests,
		Origin:          snapshot.Origin,
		Status:          "active",
		CreatedAt:       l.clock.Now().UTC().Format(time.RFC3339),
	}

	var err error
	for attempt := 1; attempt <= l.finalizeAttempts; attempt++ {
		if err = l.store.FinalizeMatch(ctx, record); err == nil {
			return
		}
		log.Printf("⚠️ FinalizeMatch attempt %d/%d for match %s failed: %v", attempt, l.finalizeAttempts, snapshot.MatchID, err)
	}

	log.Printf("❌ Match %s flagged persistence_pending: %v", snapshot.MatchID, err)
	l.mu.Lock()
	mm.match.PersistencePending = true
	l.mu.Unlock()
}

// announceFinalized delivers the finalized event to every human side.
func (l *MatchLifecycle) announceFinalized(mm *managedMatch, syntheticID string) {
	l.mu.Lock()
	snapshot := copyMatch(mm.match)
	l.mu.Unlock()

	log.Printf("✅ Match %s finalized: %v", snapshot.MatchID, snapshot.Users)
	for _, u := range snapshot.Users {
		if u == syntheticID {
			continue
		}
		l.dispatcher.Deliver(u, models.Event{
			Name:    models.EventMatchFinalized,
			MatchID: snapshot.MatchID,
			Payload: map[string]interface{}{
				"otherParticipant":   snapshot.Other(u),
				"sharedTags":         snapshot.SharedInterests,
				"persistencePending": snapshot.PersistencePending,
			},
		})
	}
}

// snapshot returns a copy of the managed match taken under the lock.
func (l *MatchLifecycle) snapshot(mm *managedMatch) models.ProposedMatch {
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyMatch(mm.match)
}

func copyMatch(m *models.ProposedMatch) models.ProposedMatch {
	snapshot := *m
	snapshot.Users = append([]string(nil), m.Users...)
	snapshot.SharedInterests = append([]string(nil), m.SharedInterests...)
	snapshot.Acceptance = make(map[string]string, len(m.Acceptance))
	for u, state := range m.Acceptance {
		snapshot.Acceptance[u] = state
	}
	return snapshot
}
