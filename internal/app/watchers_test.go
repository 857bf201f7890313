package app

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/pug-draft-bot/internal/draft"
)

func waitingDraft(t *testing.T) (*draft.Engine, *clockwork.FakeClock) {
	t.Helper()
	clk := clockwork.NewFakeClockAt(time.Date(2026, time.March, 1, 20, 0, 0, 0, time.UTC))
	e := draft.NewEngine(draft.EngineConfig{Clock: clk})
	_, err := e.Start(context.Background(), draft.StartRequest{
		GuildID:   "g",
		ThreadKey: "th",
		Mode:      draft.GameMode{Label: "2v2", Capacity: 4},
		Roster:    []draft.PlayerID{"a", "b", "c", "d"},
	})
	require.NoError(t, err)
	return e, clk
}

func TestWatcherSetReplacesPerGuild(t *testing.T) {
	e, clk := waitingDraft(t)
	ws := newWatcherSet()

	spawn := func(ctx context.Context) *draft.Watcher {
		return draft.SpawnAutoResolutionWatcher(ctx, draft.WatcherConfig{
			SessionKey: "g",
			Deadline:   time.Minute,
			Tick:       time.Second,
			Reader:     e.Store(),
			Resolver:   e,
			Clock:      clk,
		})
	}

	first := ws.start(context.Background(), "g", spawn)
	second := ws.start(context.Background(), "g", spawn)

	select {
	case <-first.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("replaced watcher kept running")
	}
	res, _ := first.Result()
	assert.Equal(t, draft.WatchCancelled, res)
	assert.Equal(t, 1, ws.count())

	ws.stopAll()
	select {
	case <-second.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stopAll left a watcher running")
	}
	assert.Equal(t, 0, ws.count())
}

func TestWatcherSetForgetsFinished(t *testing.T) {
	ws := newWatcherSet()
	// no session at all: the watcher exits stale right away
	w := ws.start(context.Background(), "g", func(ctx context.Context) *draft.Watcher {
		return draft.SpawnAutoResolutionWatcher(ctx, draft.WatcherConfig{
			SessionKey: "g",
			Reader:     draft.NewStore(),
			Resolver:   draft.NewEngine(draft.EngineConfig{}),
		})
	})
	<-w.Done()
	assert.Eventually(t, func() bool { return ws.count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcherSetStop(t *testing.T) {
	e, clk := waitingDraft(t)
	ws := newWatcherSet()

	w := ws.start(context.Background(), "g", func(ctx context.Context) *draft.Watcher {
		return draft.SpawnAutoResolutionWatcher(ctx, draft.WatcherConfig{
			SessionKey: "g",
			Reader:     e.Store(),
			Resolver:   e,
			Clock:      clk,
		})
	})
	ws.stop("g")
	ws.stop("other") // no watcher: no-op

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stopped watcher kept running")
	}
	res, _ := w.Result()
	assert.Equal(t, draft.WatchCancelled, res)
	assert.Equal(t, 0, ws.count())

	// the draft itself is untouched
	v, ok := e.Store().View("g")
	require.True(t, ok)
	assert.Equal(t, draft.PhaseAwaitingCaptains, v.Phase)
}
