package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_AwaitingAndPendingAreExclusive(t *testing.T) {
	s := NewSession("s1")
	assert.Equal(t, PhaseIdle, s.Phase())

	s.SetPending(PendingAction{Intent: "system.shutdown"})
	assert.Equal(t, PhaseAwaitingConfirmation, s.Phase())
	assert.Nil(t, s.Awaiting)

	s.SetAwaiting("ask_website_name", "browser.open_website")
	assert.Equal(t, PhaseAwaitingAnswer, s.Phase())
	assert.Nil(t, s.Pending, "setting awaiting must clear pending")

	s.SetPending(PendingAction{Intent: "system.shutdown"})
	assert.Nil(t, s.Awaiting, "setting pending must clear awaiting")

	s.ClearPending()
	assert.Equal(t, PhaseIdle, s.Phase())
}

func TestSession_SnapshotIsDeep(t *testing.T) {
	s := NewSession("s1")
	s.SetPending(PendingAction{
		Intent:   "browser.open_website",
		Entities: map[string]any{"website": "github", "nested": map[string]any{"k": "v"}},
	})

	snap := s.Snapshot()
	require.NotNil(t, snap.Pending)
	snap.Pending.Entities["website"] = "gitlab"
	snap.Pending.Entities["nested"].(map[string]any)["k"] = "changed"

	assert.Equal(t, "github", s.Pending.Entities["website"])
	assert.Equal(t, "v", s.Pending.Entities["nested"].(map[string]any)["k"])
}

func TestSetPending_CopiesEntities(t *testing.T) {
	entities := map[string]any{"website": "github"}
	s := NewSession("s1")
	s.SetPending(PendingAction{Intent: "x", Entities: entities})

	entities["website"] = "mutated"
	assert.Equal(t, "github", s.Pending.Entities["website"])
}

func TestCandidate_Clamp(t *testing.T) {
	c := Candidate{Confidence: 1.7}
	c.Clamp()
	assert.Equal(t, 1.0, c.Confidence)

	c.Confidence = -0.2
	c.Clamp()
	assert.Equal(t, 0.0, c.Confidence)

	c.Confidence = math.NaN()
	c.Clamp()
	assert.Equal(t, 0.0, c.Confidence)
}
