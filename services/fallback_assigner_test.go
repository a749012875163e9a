package services

import (
	"context"
	"testing"

	"mingle_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignProposesSyntheticCounterpart(t *testing.T) {
	f := newFixture(t)
	generator := &fakeGenerator{
		profile: models.ProfileSnapshot{Interests: []string{"chess", "travel"}, Gender: models.GenderFemale},
	}
	f.lifecycle.SetGreeter(generator)
	assigner := NewFallbackAssigner(f.pool, f.scorer, f.lifecycle, generator)

	alice := f.enqueue(t, "alice", models.GenderFemale, "chess")
	endpoint := f.connect("alice")

	require.NoError(t, assigner.Assign(context.Background(), alice))

	assert.False(t, f.pool.Contains("alice"))
	assert.True(t, f.lifecycle.IsActive("alice"))
	require.True(t, endpoint.received(models.EventMatchProposed))

	matchID := endpoint.events[0].MatchID
	match, ok := f.lifecycle.Get(matchID)
	require.True(t, ok)
	assert.Equal(t, models.OriginSynthetic, match.Origin)
	counterpart := match.Other("alice")
	assert.True(t, models.IsSyntheticID(counterpart))
	assert.Equal(t, models.AcceptanceAccepted, match.Acceptance[counterpart])
}

func TestAssignRejectsIncompatibleCounterpart(t *testing.T) {
	f := newFixture(t)
	// The generated profile shares no interests with the candidate, which the
	// scoring policy refuses.
	generator := &fakeGenerator{
		profile: models.ProfileSnapshot{Interests: []string{"surfing"}, Gender: models.GenderFemale},
	}
	assigner := NewFallbackAssigner(f.pool, f.scorer, f.lifecycle, generator)

	alice := f.enqueue(t, "alice", models.GenderFemale, "chess")
	f.connect("alice")

	err := assigner.Assign(context.Background(), alice)
	require.ErrorIs(t, err, ErrIncompatibleCounterpart)

	assert.True(t, f.pool.Contains("alice"))
	assert.False(t, f.pool.IsLocked("alice"))
	assert.False(t, f.lifecycle.IsActive("alice"))
}

func TestAssignSkipsCandidateAlreadyBeingProcessed(t *testing.T) {
	f := newFixture(t)
	generator := &fakeGenerator{
		profile: models.ProfileSnapshot{Interests: []string{"chess"}, Gender: models.GenderFemale},
	}
	assigner := NewFallbackAssigner(f.pool, f.scorer, f.lifecycle, generator)

	alice := f.enqueue(t, "alice", models.GenderFemale, "chess")
	require.True(t, f.pool.TryLock("alice"))

	assert.Error(t, assigner.Assign(context.Background(), alice))
	assert.True(t, f.pool.Contains("alice"))
}
