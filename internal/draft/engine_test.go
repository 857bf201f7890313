package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/pug-draft-bot/internal/domain/events"
)

type fakeOptOuts struct {
	ids map[string]bool
	err error
}

func (f fakeOptOuts) OptedOut(context.Context, string) (map[string]bool, error) {
	return f.ids, f.err
}

func newTestEngine(t *testing.T, r Random, opt OptOutSource) *Engine {
	t.Helper()
	return NewEngine(EngineConfig{Random: r, Clock: clockwork.NewFakeClockAt(t0), OptOuts: opt})
}

func start(t *testing.T, e *Engine, guild string, capacity int) View {
	t.Helper()
	v, err := e.Start(context.Background(), StartRequest{
		GuildID:   guild,
		ThreadKey: "thread-" + guild,
		Mode:      GameMode{Label: fmt.Sprintf("%dp", capacity), Capacity: capacity},
		Roster:    players(capacity),
	})
	require.NoError(t, err)
	return v
}

func target(p PlayerID) *PlayerID { return &p }

// countEvents counts T events for guild until the test ends.
func countEvents[T any](t *testing.T, guild string, guildOf func(T) string) *atomic.Int32 {
	var n atomic.Int32
	cancel := events.Subscribe(func(ev T) {
		if guildOf(ev) == guild {
			n.Add(1)
		}
	})
	t.Cleanup(cancel)
	return &n
}

func TestEngine_StartValidates(t *testing.T) {
	e := newTestEngine(t, constRand(0), nil)
	_, err := e.Start(context.Background(), StartRequest{
		GuildID: t.Name(),
		Mode:    GameMode{Label: "5v5", Capacity: 10},
		Roster:  players(9),
	})
	assert.ErrorIs(t, err, ErrRosterSize)
	assert.Equal(t, 0, e.Store().Len())

	v := start(t, e, t.Name(), 4)
	assert.Equal(t, PhaseAwaitingCaptains, v.Phase)
	assert.Equal(t, Blue, v.Sequence[0])
}

func TestEngine_StartDefaultsThreadKey(t *testing.T) {
	e := newTestEngine(t, constRand(0), nil)
	v, err := e.Start(context.Background(), StartRequest{
		GuildID: t.Name(),
		Mode:    GameMode{Label: "1v1", Capacity: 2},
		Roster:  players(2),
	})
	require.NoError(t, err)
	assert.Equal(t, v.ID, v.ThreadKey)
}

func TestEngine_TargetWithBothSlotsOpenFollowsCoin(t *testing.T) {
	for _, tc := range []struct {
		coin int
		team Team
		next CaptainStatus
	}{
		{0, Blue, NeedsRedCaptain},
		{1, Red, NeedsBlueCaptain},
	} {
		t.Run(string(tc.team), func(t *testing.T) {
			e := newTestEngine(t, constRand(tc.coin), nil)
			start(t, e, t.Name(), 10)

			out, err := e.AssignCaptain(context.Background(), CaptainRequest{GuildID: t.Name(), Target: target("p4")})
			require.NoError(t, err)
			assert.Equal(t, []Assignment{{Team: tc.team, Player: "p4"}}, out.Assigned)
			assert.Equal(t, tc.next, out.Status)
			assert.Equal(t, tc.team, out.View.Sequence[0])
		})
	}
}

func TestEngine_TargetOrientsSequenceAgainstStartColor(t *testing.T) {
	// sequence drawn starting Red, coin then gives the target Blue
	e := newTestEngine(t, &scriptedRand{vals: []int{1, 0}}, nil)
	v := start(t, e, t.Name(), 4)
	require.Equal(t, TurnSequence{Red, Blue, Blue, Red}, v.Sequence)

	out, err := e.AssignCaptain(context.Background(), CaptainRequest{GuildID: t.Name(), Target: target("p2")})
	require.NoError(t, err)
	assert.Equal(t, PlayerID("p2"), out.View.BlueCaptain)
	assert.Equal(t, TurnSequence{Blue, Red, Red, Blue}, out.View.Sequence)
	assert.Equal(t, 2, out.View.Sequence.Count(Blue))
}

func TestEngine_RandomDrawFillsBothSlots(t *testing.T) {
	e := newTestEngine(t, constRand(0), nil)
	guild := t.Name()
	started := countEvents(t, guild, func(ev events.DraftingStarted) string { return ev.GuildID })
	start(t, e, guild, 10)

	out, err := e.AssignCaptain(context.Background(), CaptainRequest{GuildID: guild, Auto: true})
	require.NoError(t, err)
	assert.Equal(t, DraftingBegun, out.Status)
	assert.Equal(t, []Assignment{{Team: Blue, Player: "p1"}, {Team: Red, Player: "p2"}}, out.Assigned)
	assert.Equal(t, PhaseDrafting, out.View.Phase)
	assert.EqualValues(t, 1, started.Load())
}

func TestEngine_RandomDrawTwoPlayers(t *testing.T) {
	e := newTestEngine(t, constRand(1), nil)
	guild := t.Name()
	completed := countEvents(t, guild, func(ev events.DraftCompleted) string { return ev.GuildID })
	start(t, e, guild, 2)

	out, err := e.AssignCaptain(context.Background(), CaptainRequest{GuildID: guild})
	require.NoError(t, err)
	assert.Len(t, out.Assigned, 2)
	assert.NotEqual(t, out.View.BlueCaptain, out.View.RedCaptain)
	assert.Equal(t, PhaseCompleted, out.View.Phase)
	assert.EqualValues(t, 1, completed.Load())
	assert.Equal(t, 0, e.Store().Len())
}

func TestEngine_SingleSlotSkipsOptedOut(t *testing.T) {
	opt := fakeOptOuts{ids: map[string]bool{}}
	for _, p := range players(10) {
		if p != "p7" {
			opt.ids[string(p)] = true
		}
	}
	e := newTestEngine(t, constRand(0), opt)
	guild := t.Name()
	start(t, e, guild, 10)

	_, err := e.AssignCaptain(context.Background(), CaptainRequest{GuildID: guild, Target: target("p1")})
	require.NoError(t, err)

	out, err := e.AssignCaptain(context.Background(), CaptainRequest{GuildID: guild})
	require.NoError(t, err)
	assert.Equal(t, []Assignment{{Team: Red, Player: "p7"}}, out.Assigned)
}

func TestEngine_SingleSlotNoCandidates(t *testing.T) {
	opt := fakeOptOuts{ids: map[string]bool{}}
	for _, p := range players(4) {
		opt.ids[string(p)] = true
	}
	e := newTestEngine(t, constRand(0), opt)
	guild := t.Name()
	start(t, e, guild, 4)

	_, err := e.AssignCaptain(context.Background(), CaptainRequest{GuildID: guild, Target: target("p1")})
	require.NoError(t, err)

	_, err = e.AssignCaptain(context.Background(), CaptainRequest{GuildID: guild})
	assert.ErrorIs(t, err, ErrNoCandidates)
	v, _ := e.Store().View(guild)
	assert.Len(t, v.History, 1)
}

func TestEngine_OptOutLookupFailureDrawsFromEveryone(t *testing.T) {
	e := newTestEngine(t, constRand(0), fakeOptOuts{err: errors.New("db down")})
	guild := t.Name()
	start(t, e, guild, 4)

	_, err := e.AssignCaptain(context.Background(), CaptainRequest{GuildID: guild, Target: target("p1")})
	require.NoError(t, err)
	out, err := e.AssignCaptain(context.Background(), CaptainRequest{GuildID: guild})
	require.NoError(t, err)
	assert.Equal(t, []Assignment{{Team: Red, Player: "p2"}}, out.Assigned)
}

func TestEngine_SpotsFilledWhoeverIsPassed(t *testing.T) {
	e := newTestEngine(t, constRand(0), nil)
	guild := t.Name()
	start(t, e, guild, 10)
	_, err := e.AssignCaptain(context.Background(), CaptainRequest{GuildID: guild})
	require.NoError(t, err)

	for _, tgt := range []*PlayerID{nil, target("p1"), target("p2"), target("p9"), target("nobody")} {
		_, err := e.AssignCaptain(context.Background(), CaptainRequest{GuildID: guild, Target: tgt})
		require.ErrorIs(t, err, ErrCaptainSpotsFilled)
		var filled *CaptainSpotsFilledError
		require.ErrorAs(t, err, &filled)
		assert.Equal(t, PlayerID("p1"), filled.Blue)
		assert.Equal(t, PlayerID("p2"), filled.Red)
	}
}

func TestEngine_StaleAndMissing(t *testing.T) {
	e := newTestEngine(t, constRand(0), nil)
	guild := t.Name()
	start(t, e, guild, 4)

	_, err := e.AssignCaptain(context.Background(), CaptainRequest{GuildID: guild, ThreadKey: "old-thread"})
	assert.ErrorIs(t, err, ErrStaleSession)

	_, err = e.AssignCaptain(context.Background(), CaptainRequest{GuildID: "elsewhere"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, _, err = e.Pick(context.Background(), PickRequest{GuildID: guild, Number: 1})
	assert.ErrorIs(t, err, ErrAwaitingCaptains)
}

func TestEngine_CompletionSignalOnceUnderContention(t *testing.T) {
	e := NewEngine(EngineConfig{Clock: clockwork.NewFakeClockAt(t0)})
	guild := t.Name()
	started := countEvents(t, guild, func(ev events.DraftingStarted) string { return ev.GuildID })
	start(t, e, guild, 10)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := CaptainRequest{GuildID: guild}
			if i%2 == 0 {
				req.Target = target(PlayerID(fmt.Sprintf("p%d", i%10+1)))
			}
			_, _ = e.AssignCaptain(context.Background(), req)
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, started.Load())
	v, ok := e.Store().View(guild)
	require.True(t, ok)
	assert.Equal(t, PhaseDrafting, v.Phase)
	assert.NotEmpty(t, v.BlueCaptain)
	assert.NotEmpty(t, v.RedCaptain)
}

func TestEngine_PickFlow(t *testing.T) {
	e := newTestEngine(t, constRand(0), nil)
	guild := t.Name()
	completed := countEvents(t, guild, func(ev events.DraftCompleted) string { return ev.GuildID })
	start(t, e, guild, 4) // B R R B

	_, err := e.AssignCaptain(context.Background(), CaptainRequest{GuildID: guild})
	require.NoError(t, err) // p1 blue, p2 red

	_, _, err = e.Pick(context.Background(), PickRequest{GuildID: guild, Number: 3, Actor: "p1"})
	assert.ErrorIs(t, err, ErrNotYourTurn)

	out, v, err := e.Pick(context.Background(), PickRequest{GuildID: guild, Number: 3, Actor: "p2"})
	require.NoError(t, err)
	require.Len(t, out.Picks, 2)
	assert.Equal(t, Complete, out.Next)
	assert.Equal(t, PhaseCompleted, v.Phase)
	assert.Equal(t, []Entry{{1, "p1"}, {4, "p4"}}, v.Blue)
	assert.Equal(t, []Entry{{2, "p2"}, {3, "p3"}}, v.Red)

	assert.EqualValues(t, 1, completed.Load())
	_, ok := e.Store().View(guild)
	assert.False(t, ok)
}

func TestEngine_Reset(t *testing.T) {
	clk := clockwork.NewFakeClockAt(t0)
	e := NewEngine(EngineConfig{Random: constRand(0), Clock: clk})
	guild := t.Name()
	resets := countEvents(t, guild, func(ev events.DraftReset) string { return ev.GuildID })
	start(t, e, guild, 6)

	_, err := e.AssignCaptain(context.Background(), CaptainRequest{GuildID: guild})
	require.NoError(t, err)

	clk.Advance(5 * time.Second)
	v, err := e.Reset(context.Background(), guild)
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingCaptains, v.Phase)
	assert.Len(t, v.Roster, 6)
	assert.Empty(t, v.History)
	assert.Equal(t, clk.Now(), v.LastResetAt)
	assert.EqualValues(t, 1, resets.Load())

	_, err = e.Reset(context.Background(), "elsewhere")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEngine_Cancel(t *testing.T) {
	e := newTestEngine(t, constRand(0), nil)
	guild := t.Name()
	completed := countEvents(t, guild, func(ev events.DraftCompleted) string { return ev.GuildID })
	started := start(t, e, guild, 4)

	v, err := e.Cancel(context.Background(), guild)
	require.NoError(t, err)
	assert.Equal(t, started.ID, v.ID)
	assert.Equal(t, PhaseAwaitingCaptains, v.Phase)

	_, ok := e.Store().View(guild)
	assert.False(t, ok)
	assert.False(t, e.Store().Drafting(guild, "p1"))
	assert.EqualValues(t, 0, completed.Load(), "a cancelled draft is not a finished one")

	_, err = e.Cancel(context.Background(), guild)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = e.AssignCaptain(context.Background(), CaptainRequest{GuildID: guild})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
