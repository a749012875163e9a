package services

import (
	"context"
	"log"
	"sync"
	"time"

	"mingle_server/models"
)

// ConnectionRegistry tracks which participants currently have a live,
// reachable endpoint. At most one record exists per participant; a record
// not touched within the liveness window is stale and evicted before it is
// trusted for delivery.
type ConnectionRegistry struct {
	mu      sync.RWMutex
	records map[string]*models.ConnectionRecord
	window  time.Duration
	clock   Clock
}

// NewConnectionRegistry creates a registry with the given liveness window.
func NewConnectionRegistry(window time.Duration, clock Clock) *ConnectionRegistry {
	return &ConnectionRegistry{
		records: make(map[string]*models.ConnectionRecord),
		window:  window,
		clock:   clock,
	}
}

// Register stores the live endpoint for a participant, replacing any
// previous record.
func (r *ConnectionRegistry) Register(userID string, endpoint models.Endpoint) {
	r.mu.Lock()
	r.records[userID] = &models.ConnectionRecord{
		UserID:   userID,
		Endpoint: endpoint,
		LastSeen: r.clock.Now(),
	}
	r.mu.Unlock()
	log.Printf("✅ Connection registered for %s", userID)
}

// Touch refreshes the liveness timestamp. It reports whether a record
// existed.
func (r *ConnectionRegistry) Touch(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, exists := r.records[userID]
	if !exists {
		return false
	}
	record.LastSeen = r.clock.Now()
	return true
}

// IsLive reports whether the participant has a fresh endpoint. A stale
// record is evicted on the spot rather than trusted.
func (r *ConnectionRegistry) IsLive(userID string) bool {
	_, live := r.Endpoint(userID)
	return live
}

// Endpoint returns the live endpoint for delivery, evicting a stale record
// first.
func (r *ConnectionRegistry) Endpoint(userID string) (models.Endpoint, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, exists := r.records[userID]
	if !exists {
		return nil, false
	}
	if r.clock.Now().Sub(record.LastSeen) > r.window {
		delete(r.records, userID)
		log.Printf("⚠️ Stale connection evicted for %s", userID)
		return nil, false
	}
	return record.Endpoint, true
}

// Evict removes the participant's record. It reports whether anything was
// removed.
func (r *ConnectionRegistry) Evict(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[userID]; !exists {
		return false
	}
	delete(r.records, userID)
	return true
}

// EvictStale removes every record older than the liveness window and
// returns the evicted identities.
func (r *ConnectionRegistry) EvictStale() []string {
	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	var evicted []string
	for userID, record := range r.records {
		if now.Sub(record.LastSeen) > r.window {
			delete(r.records, userID)
			evicted = append(evicted, userID)
		}
	}
	return evicted
}

// Len returns the number of live records.
func (r *ConnectionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Start runs the periodic stale-record pruner until the context is
// cancelled.
func (r *ConnectionRegistry) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Connection registry pruner started with interval %v", interval)
	for {
		select {
		case <-ticker.C:
			if evicted := r.EvictStale(); len(evicted) > 0 {
				log.Printf("⚠️ Evicted %d stale connections: %v", len(evicted), evicted)
			}
		case <-ctx.Done():
			log.Println("Connection registry pruner stopping")
			return
		}
	}
}
