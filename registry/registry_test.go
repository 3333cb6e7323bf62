package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webmeet/signaling/model"
)

func TestSessionRegistry_CreateGetRemove(t *testing.T) {
	sr := NewSessionRegistry()

	sess := sr.Create("standup")
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, "standup", sess.Name)
	assert.Empty(t, sess.Members)
	assert.False(t, sess.CreatedAt.IsZero())

	got, err := sr.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	sr.Remove(sess.ID)
	_, err = sr.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// removing an absent id is a no-op
	sr.Remove(sess.ID)
}

func TestSessionRegistry_DistinctIDs(t *testing.T) {
	sr := NewSessionRegistry()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		sess := sr.Create("room")
		_, dup := seen[sess.ID]
		require.False(t, dup, "session id reused: %s", sess.ID)
		seen[sess.ID] = struct{}{}
	}
	assert.Len(t, sr.List(), 100)
}

func TestParticipantRegistry_RegisterGetUnregister(t *testing.T) {
	pr := NewParticipantRegistry()

	participant := &model.Participant{
		ID:          "p1",
		DisplayName: "alice",
		SessionID:   "s1",
	}
	pr.Register(participant)

	got, err := pr.Get("p1")
	require.NoError(t, err)
	assert.Same(t, participant, got)

	_, err = pr.Get("p2")
	assert.ErrorIs(t, err, ErrParticipantNotFound)

	pr.Unregister("p1")
	_, err = pr.Get("p1")
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestParticipantRegistry_DuplicateIDPanics(t *testing.T) {
	pr := NewParticipantRegistry()

	pr.Register(&model.Participant{ID: "p1"})
	assert.Panics(t, func() {
		pr.Register(&model.Participant{ID: "p1"})
	})
}
