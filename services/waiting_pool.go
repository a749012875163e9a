package services

import (
	"sort"
	"sync"

	"mingle_server/models"
)

type poolEntry struct {
	candidate models.Candidate
	locked    bool
}

// WaitingPool is the single source of truth for candidates awaiting a match.
// All mutation goes through its operation set; sweeps never hold the pool
// lock for a whole iteration, they work off Snapshot.
type WaitingPool struct {
	mu            sync.Mutex
	entries       map[string]*poolEntry
	activeChecker func(userID string) bool
}

// NewWaitingPool creates an empty pool.
func NewWaitingPool() *WaitingPool {
	return &WaitingPool{entries: make(map[string]*poolEntry)}
}

// SetActiveChecker wires in the check for "identity is in an active proposed
// match". Must be called before the pool starts taking traffic.
func (p *WaitingPool) SetActiveChecker(check func(userID string) bool) {
	p.mu.Lock()
	p.activeChecker = check
	p.mu.Unlock()
}

// Enqueue adds a candidate. It fails with ErrAlreadyQueued when the identity
// is already waiting or currently inside an active proposed match. The
// candidate's EnqueuedAt is kept as-is so re-admitted candidates keep their
// original wait time.
func (p *WaitingPool) Enqueue(c models.Candidate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.entries[c.UserID]; exists {
		return ErrAlreadyQueued
	}
	if p.activeChecker != nil && p.activeChecker(c.UserID) {
		return ErrAlreadyQueued
	}
	p.entries[c.UserID] = &poolEntry{candidate: c}
	return nil
}

// Remove deletes a candidate. It is idempotent and reports whether anything
// was removed.
func (p *WaitingPool) Remove(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.entries[userID]; !exists {
		return false
	}
	delete(p.entries, userID)
	return true
}

// Contains reports whether the identity is currently waiting.
func (p *WaitingPool) Contains(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, exists := p.entries[userID]
	return exists
}

// Len returns the number of waiting candidates.
func (p *WaitingPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Snapshot returns a point-in-time copy of all candidates in arrival order
// (oldest first). Mutations after the snapshot are observed by the next
// sweep, not the current one.
func (p *WaitingPool) Snapshot() []models.Candidate {
	p.mu.Lock()
	candidates := make([]models.Candidate, 0, len(p.entries))
	for _, entry := range p.entries {
		candidates = append(candidates, entry.candidate)
	}
	p.mu.Unlock()

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].EnqueuedAt.Equal(candidates[j].EnqueuedAt) {
			return candidates[i].EnqueuedAt.Before(candidates[j].EnqueuedAt)
		}
		return candidates[i].UserID < candidates[j].UserID
	})
	return candidates
}

// Position returns the arrival-order index of the identity, or -1 when it is
// not waiting. Used as the positionHint surfaced to callers.
func (p *WaitingPool) Position(userID string) int {
	for i, c := range p.Snapshot() {
		if c.UserID == userID {
			return i
		}
	}
	return -1
}

// TryLock marks the candidate as being processed by a sweep decision so two
// concurrent iterations cannot propose it twice. It fails when the candidate
// is absent or already locked.
func (p *WaitingPool) TryLock(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, exists := p.entries[userID]
	if !exists || entry.locked {
		return false
	}
	entry.locked = true
	return true
}

// Unlock releases a processing lock. It is a no-op for absent candidates.
func (p *WaitingPool) Unlock(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if entry, exists := p.entries[userID]; exists {
		entry.locked = false
	}
}

// IsLocked reports whether the candidate currently holds a processing lock.
func (p *WaitingPool) IsLocked(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, exists := p.entries[userID]
	return exists && entry.locked
}
