package services

import (
	"context"
	"fmt"
	"log"

	"mingle_server/models"

	"github.com/google/uuid"
)

// CounterpartGenerator is the external collaborator that produces synthetic
// counterpart profiles. It is treated as slow and unreliable; a failure here
// leaves the candidate in the pool for the next attempt.
type CounterpartGenerator interface {
	GenerateCounterpart(ctx context.Context, genderPolicy, category string, seedInterests []string) (models.ProfileSnapshot, error)
	CounterpartGreeter
}

// FallbackAssigner pairs a long-waiting candidate with a synthetic
// counterpart when no compatible human is present.
type FallbackAssigner struct {
	pool      *WaitingPool
	scorer    *CompatibilityScorer
	lifecycle *MatchLifecycle
	generator CounterpartGenerator
}

// NewFallbackAssigner wires the fallback path together.
func NewFallbackAssigner(pool *WaitingPool, scorer *CompatibilityScorer, lifecycle *MatchLifecycle, generator CounterpartGenerator) *FallbackAssigner {
	return &FallbackAssigner{
		pool:      pool,
		scorer:    scorer,
		lifecycle: lifecycle,
		generator: generator,
	}
}

// Assign requests a counterpart for the candidate and folds it into the
// lifecycle as a synthetic match. The generated profile must pass the same
// compatibility policy as a human partner; anything else keeps the candidate
// queued.
func (f *FallbackAssigner) Assign(ctx context.Context, candidate models.Candidate) error {
	if !f.pool.TryLock(candidate.UserID) {
		return fmt.Errorf("candidate %s is no longer available", candidate.UserID)
	}

	genderPolicy := f.scorer.CounterpartGenderFor(candidate.Profile.Gender, candidate.Criteria.Category)
	profile, err := f.generator.GenerateCounterpart(ctx, genderPolicy, candidate.Criteria.Category, candidate.Profile.Interests)
	if err != nil {
		f.pool.Unlock(candidate.UserID)
		return fmt.Errorf("counterpart generation failed: %w", err)
	}

	counterpart := models.Candidate{
		UserID:     models.SyntheticIDPrefix + uuid.NewString(),
		Profile:    profile,
		Criteria:   models.MatchCriteria{Category: candidate.Criteria.Category},
		EnqueuedAt: candidate.EnqueuedAt,
	}

	result, err := f.scorer.Score(candidate, counterpart)
	if err != nil {
		f.pool.Unlock(candidate.UserID)
		return err
	}
	if !result.Compatible {
		f.pool.Unlock(candidate.UserID)
		log.Printf("⚠️ Generated counterpart for %s violates the compatibility policy, discarding", candidate.UserID)
		return ErrIncompatibleCounterpart
	}

	if _, err := f.lifecycle.ProposeSynthetic(ctx, candidate, counterpart, result); err != nil {
		return fmt.Errorf("synthetic handoff failed: %w", err)
	}
	return nil
}
