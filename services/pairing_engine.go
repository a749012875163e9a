package services

import (
	"context"
	"log"
	"time"

	"mingle_server/models"
)

// PairingEngineConfig carries the sweep tuning knobs.
type PairingEngineConfig struct {
	TickInterval      time.Duration // how often the sweep runs
	MaxMatchesPerTick int           // ceiling on new matches per sweep (back-pressure)
	FallbackAfter     time.Duration // wait threshold before a synthetic counterpart is requested
}

// TickStats summarizes one sweep.
type TickStats struct {
	Evicted   int // stale candidates removed before scanning
	Proposed  int // human matches handed to the lifecycle
	Fallbacks int // synthetic matches assigned
	Expired   int // proposals that ran out of time
}

// PairingEngine runs the periodic sweep over the waiting pool, pairing the
// best-scoring compatible candidates and handing them to the lifecycle.
type PairingEngine struct {
	pool      *WaitingPool
	registry  *ConnectionRegistry
	scorer    *CompatibilityScorer
	lifecycle *MatchLifecycle
	fallback  *FallbackAssigner
	clock     Clock
	config    PairingEngineConfig
}

// NewPairingEngine wires the sweep together. fallback may be nil, in which
// case long-waiting candidates simply stay in the pool.
func NewPairingEngine(pool *WaitingPool, registry *ConnectionRegistry, scorer *CompatibilityScorer, lifecycle *MatchLifecycle, fallback *FallbackAssigner, clock Clock, config PairingEngineConfig) *PairingEngine {
	return &PairingEngine{
		pool:      pool,
		registry:  registry,
		scorer:    scorer,
		lifecycle: lifecycle,
		fallback:  fallback,
		clock:     clock,
		config:    config,
	}
}

// Start runs the sweep on its fixed tick until the context is cancelled.
func (e *PairingEngine) Start(ctx context.Context) {
	ticker := time.NewTicker(e.config.TickInterval)
	defer ticker.Stop()

	log.Printf("Pairing engine started with tick %v", e.config.TickInterval)
	for {
		select {
		case <-ticker.C:
			e.Tick(ctx)
		case <-ctx.Done():
			log.Println("Pairing engine stopping")
			return
		}
	}
}

type pairProposal struct {
	a, b   models.Candidate
	result CompatibilityResult
}

// Tick executes one sweep: expire overdue proposals, evict candidates whose
// connection is gone, scan the remainder in arrival order, and hand off the
// selected pairs. Pair selection finishes for the whole snapshot before any
// delivery starts, so a slow delivery never blocks evaluation of the next
// pair.
func (e *PairingEngine) Tick(ctx context.Context) TickStats {
	var stats TickStats

	stats.Expired = e.lifecycle.ExpireOverdue(ctx)
	stats.Evicted = e.evictStaleCandidates()

	candidates := e.pool.Snapshot()
	matched := make(map[string]bool)
	var proposals []pairProposal
	var fallbackCandidates []models.Candidate
	now := e.clock.Now()

	for i, candidate := range candidates {
		if matched[candidate.UserID] {
			continue
		}
		if len(proposals) >= e.config.MaxMatchesPerTick {
			break
		}
		if !e.pool.TryLock(candidate.UserID) {
			// Removed or claimed by a concurrent sweep since the snapshot.
			continue
		}

		best, result, found := e.bestPartner(i, candidate, candidates, matched)
		if !found {
			e.pool.Unlock(candidate.UserID)
			if e.fallback != nil && now.Sub(candidate.EnqueuedAt) >= e.config.FallbackAfter {
				fallbackCandidates = append(fallbackCandidates, candidate)
			}
			continue
		}

		if !e.pool.TryLock(best.UserID) {
			// Partner vanished mid-scan; the candidate waits for the next tick.
			e.pool.Unlock(candidate.UserID)
			continue
		}
		matched[candidate.UserID] = true
		matched[best.UserID] = true
		proposals = append(proposals, pairProposal{a: candidate, b: best, result: result})
	}

	// Hand off after the scan so delivery of pair N never delays pair N+1's
	// evaluation.
	for _, proposal := range proposals {
		if _, err := e.lifecycle.Propose(ctx, proposal.a, proposal.b, proposal.result); err != nil {
			log.Printf("⚠️ Handoff of %s ↔ %s failed: %v", proposal.a.UserID, proposal.b.UserID, err)
			e.pool.Unlock(proposal.a.UserID)
			e.pool.Unlock(proposal.b.UserID)
			continue
		}
		stats.Proposed++
	}

	for _, candidate := range fallbackCandidates {
		if matched[candidate.UserID] {
			continue
		}
		if stats.Proposed+stats.Fallbacks >= e.config.MaxMatchesPerTick {
			break
		}
		if err := e.fallback.Assign(ctx, candidate); err != nil {
			log.Printf("⚠️ Fallback for %s failed, candidate stays queued: %v", candidate.UserID, err)
			continue
		}
		stats.Fallbacks++
	}

	if stats.Proposed > 0 || stats.Fallbacks > 0 || stats.Expired > 0 {
		log.Printf("🔍 Sweep done: %d proposed, %d fallback, %d expired, %d evicted", stats.Proposed, stats.Fallbacks, stats.Expired, stats.Evicted)
	}
	return stats
}

// evictStaleCandidates drops pool entries whose identity no longer has a
// live connection record.
func (e *PairingEngine) evictStaleCandidates() int {
	evicted := 0
	for _, candidate := range e.pool.Snapshot() {
		if e.registry.IsLive(candidate.UserID) {
			continue
		}
		if e.pool.Remove(candidate.UserID) {
			evicted++
		}
	}
	return evicted
}

// bestPartner scores the candidate against every other unmatched candidate
// in the snapshot and picks the highest score. Ties break on raw
// intersection size, then on the partner's pool wait time (oldest first).
func (e *PairingEngine) bestPartner(index int, candidate models.Candidate, candidates []models.Candidate, matched map[string]bool) (models.Candidate, CompatibilityResult, bool) {
	var best models.Candidate
	var bestResult CompatibilityResult
	found := false

	for j, other := range candidates {
		if j == index || matched[other.UserID] || e.pool.IsLocked(other.UserID) {
			continue
		}
		result, err := e.scorer.Score(candidate, other)
		if err != nil || !result.Compatible {
			continue
		}
		if !found || betterResult(result, other, bestResult, best) {
			best = other
			bestResult = result
			found = true
		}
	}
	return best, bestResult, found
}

func betterResult(r CompatibilityResult, c models.Candidate, bestR CompatibilityResult, best models.Candidate) bool {
	if r.Score != bestR.Score {
		return r.Score > bestR.Score
	}
	if len(r.SharedInterests) != len(bestR.SharedInterests) {
		return len(r.SharedInterests) > len(bestR.SharedInterests)
	}
	return c.EnqueuedAt.Before(best.EnqueuedAt)
}
