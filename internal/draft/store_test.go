package draft

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedSession(t *testing.T, st *Store, guild string, capacity int) *Session {
	t.Helper()
	s := newTestSession(t, capacity, Blue)
	s.GuildID = guild
	s.ThreadKey = "thread-" + guild
	st.Put(s)
	return s
}

func TestStore_UpdateCommitsOnlyOnSuccess(t *testing.T) {
	st := NewStore()
	storedSession(t, st, "g1", 4)

	boom := errors.New("boom")
	err := st.Update("g1", func(s *Session) error {
		if _, _, err := s.SetCaptain("p1"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	v, ok := st.View("g1")
	require.True(t, ok)
	assert.Empty(t, v.History, "failed update must not leak")

	require.NoError(t, st.Update("g1", func(s *Session) error {
		_, _, err := s.SetCaptain("p1")
		return err
	}))
	v, _ = st.View("g1")
	assert.Equal(t, PlayerID("p1"), v.BlueCaptain)
}

func TestStore_CompletedSessionLeaves(t *testing.T) {
	st := NewStore()
	storedSession(t, st, "g1", 2)

	require.NoError(t, st.Update("g1", func(s *Session) error {
		_, _, err := s.SetCaptain("p1")
		return err
	}))
	_, ok := st.View("g1")
	assert.False(t, ok)
	assert.Equal(t, 0, st.Len())

	err := st.Update("g1", func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStore_FetchCurrent(t *testing.T) {
	st := NewStore()
	ctx := context.Background()

	_, ok, err := st.FetchCurrent(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, ok)

	s := storedSession(t, st, "g1", 4)
	snap, ok, err := st.FetchCurrent(ctx, "g1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Snapshot{LastReset: t0, OpenCaptainSlots: 2, ThreadKey: s.ThreadKey}, snap)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = st.FetchCurrent(cancelled, "g1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_RemoveAndDrafting(t *testing.T) {
	st := NewStore()
	s := storedSession(t, st, "g1", 4)
	storedSession(t, st, "g2", 4)

	assert.True(t, st.Drafting("g1", "p3"))
	assert.False(t, st.Drafting("g1", "stranger"))
	assert.False(t, st.Drafting("g3", "p3"))

	assert.False(t, st.Remove("g1", "other-id"))
	assert.True(t, st.Remove("g1", s.ID))
	assert.Equal(t, 1, st.Len())
}
