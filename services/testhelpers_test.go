package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mingle_server/models"
)

// referenceTime anchors every virtual clock so assertions are stable.
var referenceTime = time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)

// manualClock is a controllable time source for tests.
type manualClock struct {
	mu      sync.Mutex
	current time.Time
}

func newManualClock() *manualClock {
	return &manualClock{current: referenceTime}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

// fakeEndpoint records delivered events and can simulate a dead transport.
type fakeEndpoint struct {
	mu      sync.Mutex
	events  []models.Event
	failing bool
}

func (e *fakeEndpoint) Send(event models.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failing {
		return errors.New("transport down")
	}
	e.events = append(e.events, event)
	return nil
}

func (e *fakeEndpoint) eventNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, len(e.events))
	for i, event := range e.events {
		names[i] = event.Name
	}
	return names
}

func (e *fakeEndpoint) received(name string) bool {
	for _, n := range e.eventNames() {
		if n == name {
			return true
		}
	}
	return false
}

// fakeStore counts finalize calls and can fail the first N of them.
type fakeStore struct {
	mu        sync.Mutex
	calls     int
	failFirst int
	records   []models.FinalizedMatch
}

func (s *fakeStore) FinalizeMatch(ctx context.Context, match models.FinalizedMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failFirst {
		return errors.New("write throttled")
	}
	s.records = append(s.records, match)
	return nil
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fakeGenerator returns a canned counterpart profile.
type fakeGenerator struct {
	mu      sync.Mutex
	profile models.ProfileSnapshot
	err     error
	greeted []string
}

func (g *fakeGenerator) GenerateCounterpart(ctx context.Context, genderPolicy, category string, seedInterests []string) (models.ProfileSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return models.ProfileSnapshot{}, g.err
	}
	return g.profile, nil
}

func (g *fakeGenerator) Greet(ctx context.Context, match models.ProposedMatch) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.greeted = append(g.greeted, match.MatchID)
	return nil
}

func (g *fakeGenerator) greetedMatches() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.greeted...)
}

// fixture wires the subsystem together on virtual time.
type fixture struct {
	clock      *manualClock
	pool       *WaitingPool
	registry   *ConnectionRegistry
	dispatcher *NotificationDispatcher
	scorer     *CompatibilityScorer
	store      *fakeStore
	lifecycle  *MatchLifecycle
}

const (
	testMatchTTL       = 30 * time.Second
	testLivenessWindow = 60 * time.Second
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := newManualClock()
	pool := NewWaitingPool()
	registry := NewConnectionRegistry(testLivenessWindow, clock)
	dispatcher := NewNotificationDispatcher(registry)
	store := &fakeStore{}
	lifecycle := NewMatchLifecycle(pool, dispatcher, registry, store, clock, testMatchTTL)
	pool.SetActiveChecker(lifecycle.IsActive)

	return &fixture{
		clock:      clock,
		pool:       pool,
		registry:   registry,
		dispatcher: dispatcher,
		scorer:     NewCompatibilityScorer([]string{"nonbinary", "genderfluid"}),
		store:      store,
		lifecycle:  lifecycle,
	}
}

// connect registers a live fake endpoint for the participant.
func (f *fixture) connect(userID string) *fakeEndpoint {
	endpoint := &fakeEndpoint{}
	f.registry.Register(userID, endpoint)
	return endpoint
}

// enqueue admits a platonic candidate with the given interests.
func (f *fixture) enqueue(t *testing.T, userID, gender string, interests ...string) models.Candidate {
	t.Helper()
	candidate := models.Candidate{
		UserID: userID,
		Profile: models.ProfileSnapshot{
			Interests: interests,
			Gender:    gender,
		},
		Criteria:   models.MatchCriteria{Category: models.CategoryPlatonic},
		EnqueuedAt: f.clock.Now(),
	}
	if err := f.pool.Enqueue(candidate); err != nil {
		t.Fatalf("enqueue %s: %v", userID, err)
	}
	return candidate
}

// score computes the pair's compatibility or fails the test.
func (f *fixture) score(t *testing.T, a, b models.Candidate) CompatibilityResult {
	t.Helper()
	result, err := f.scorer.Score(a, b)
	if err != nil {
		t.Fatalf("score %s vs %s: %v", a.UserID, b.UserID, err)
	}
	return result
}

// engine builds a pairing engine over the fixture, optionally with fallback.
func (f *fixture) engine(fallback *FallbackAssigner, config PairingEngineConfig) *PairingEngine {
	return NewPairingEngine(f.pool, f.registry, f.scorer, f.lifecycle, fallback, f.clock, config)
}
