package draft

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/jose-valero/pug-draft-bot/internal/domain/events"
)

// OptOutSource reports which players of a guild refuse to be drawn as
// captain.
type OptOutSource interface {
	OptedOut(ctx context.Context, guildID string) (map[string]bool, error)
}

type EngineConfig struct {
	Store       *Store
	Random      Random
	Clock       clockwork.Clock
	OptOuts     OptOutSource // optional
	ResetPolicy ResetPolicy
}

// Engine is the single entry point for every draft mutation, whether it comes
// from a command handler or from a deadline watcher.
type Engine struct {
	store   *Store
	rand    Random
	clock   clockwork.Clock
	optOuts OptOutSource
	policy  ResetPolicy
}

func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		store:   cfg.Store,
		rand:    cfg.Random,
		clock:   cfg.Clock,
		optOuts: cfg.OptOuts,
		policy:  cfg.ResetPolicy,
	}
	if e.store == nil {
		e.store = NewStore()
	}
	if e.rand == nil {
		e.rand = DefaultRandom
	}
	if e.clock == nil {
		e.clock = clockwork.NewRealClock()
	}
	return e
}

func (e *Engine) Store() *Store { return e.store }

type StartRequest struct {
	GuildID   string
	ThreadKey string // defaults to the session id
	Mode      GameMode
	Roster    []PlayerID
}

// Start creates the guild's session from a filled roster, replacing any
// previous one.
func (e *Engine) Start(_ context.Context, req StartRequest) (View, error) {
	seq, err := NewTurnSequence(req.Mode.Capacity, e.rand)
	if err != nil {
		return View{}, err
	}
	s, err := NewSession(req.Mode, req.Roster, seq, e.clock.Now())
	if err != nil {
		return View{}, err
	}
	s.GuildID = req.GuildID
	s.ThreadKey = req.ThreadKey
	if s.ThreadKey == "" {
		s.ThreadKey = s.ID
	}
	s.ResetPolicy = e.policy
	e.store.Put(s)

	log.Info().Str("component", "draft").Str("guild", s.GuildID).Str("session", s.ID).
		Str("mode", s.Mode.Label).Int("players", len(req.Roster)).Msg("draft created")
	events.Publish(events.DraftCreated{GuildID: s.GuildID, ThreadKey: s.ThreadKey, SessionID: s.ID})
	return s.View(), nil
}

type CaptainRequest struct {
	GuildID   string
	ThreadKey string    // when set, must match the stored session
	Target    *PlayerID // nil: draw at random
	Auto      bool      // issued by the deadline watcher
}

type Assignment struct {
	Team   Team
	Player PlayerID
}

type CaptainOutcome struct {
	Assigned []Assignment
	Status   CaptainStatus
	Picks    []PickAction
	View     View
}

// AssignCaptain fills one or both open captain slots. The transition that
// fills the second slot publishes events.DraftingStarted; it happens under the
// store lock, so concurrent callers cannot both observe it.
func (e *Engine) AssignCaptain(ctx context.Context, req CaptainRequest) (CaptainOutcome, error) {
	var optedOut map[string]bool
	if req.Target == nil {
		optedOut = e.optedOut(ctx, req.GuildID)
	}

	var (
		out   CaptainOutcome
		began bool
	)
	err := e.store.Update(req.GuildID, func(s *Session) error {
		if req.ThreadKey != "" && s.ThreadKey != req.ThreadKey {
			return ErrStaleSession
		}
		before := s.CaptainsAssigned()

		var err error
		switch s.OpenCaptainSlots() {
		case 0:
			return s.spotsFilled()
		case 1:
			err = e.fillOne(s, req.Target, optedOut, &out)
		default:
			err = e.fillBoth(s, req.Target, &out)
		}
		if err != nil {
			return err
		}

		out.Status = s.captainStatus()
		began = before < 2 && s.CaptainsAssigned() == 2
		out.View = s.View()
		return nil
	})
	if err != nil {
		return CaptainOutcome{}, err
	}

	for _, a := range out.Assigned {
		log.Info().Str("component", "draft").Str("guild", req.GuildID).Str("team", string(a.Team)).
			Str("player", string(a.Player)).Bool("auto", req.Auto).Msg("captain assigned")
	}
	if began {
		v := out.View
		events.Publish(events.DraftingStarted{
			GuildID:     v.GuildID,
			ThreadKey:   v.ThreadKey,
			SessionID:   v.ID,
			BlueCaptain: string(v.BlueCaptain),
			RedCaptain:  string(v.RedCaptain),
			Auto:        req.Auto,
		})
	}
	if out.View.Phase == PhaseCompleted {
		e.completed(out.View)
	}
	return out, nil
}

func (e *Engine) fillOne(s *Session, target *PlayerID, optedOut map[string]bool, out *CaptainOutcome) error {
	if target != nil {
		return e.apply(s, *target, out)
	}
	var candidates []PlayerID
	for _, en := range s.roster {
		if !optedOut[string(en.Player)] {
			candidates = append(candidates, en.Player)
		}
	}
	if len(candidates) == 0 {
		return ErrNoCandidates
	}
	return e.apply(s, candidates[e.rand.IntN(len(candidates))], out)
}

func (e *Engine) fillBoth(s *Session, target *PlayerID, out *CaptainOutcome) error {
	if target != nil {
		if err := s.orient(coin(e.rand)); err != nil {
			return err
		}
		return e.apply(s, *target, out)
	}

	n := len(s.roster)
	if n < 2 {
		return ErrNoCandidates
	}
	i := e.rand.IntN(n)
	j := e.rand.IntN(n - 1)
	if j >= i {
		j++
	}
	first, second := s.roster[i].Player, s.roster[j].Player

	if err := s.orient(coin(e.rand)); err != nil {
		return err
	}
	if err := e.apply(s, first, out); err != nil {
		return err
	}
	// with two players the second one was placed automatically
	if s.isCaptain(second) {
		return nil
	}
	return e.apply(s, second, out)
}

func (e *Engine) apply(s *Session, p PlayerID, out *CaptainOutcome) error {
	_, po, err := s.SetCaptain(p)
	if err != nil {
		return err
	}
	out.Picks = append(out.Picks, po.Picks...)
	for _, a := range po.Picks {
		if a.Kind == PickCaptain {
			out.Assigned = append(out.Assigned, Assignment{Team: a.Team, Player: a.Player})
		}
	}
	return nil
}

func (e *Engine) optedOut(ctx context.Context, guildID string) map[string]bool {
	if e.optOuts == nil {
		return nil
	}
	m, err := e.optOuts.OptedOut(ctx, guildID)
	if err != nil {
		log.Warn().Str("component", "draft").Str("guild", guildID).Err(err).Msg("opt-out lookup failed; drawing from everyone")
		return nil
	}
	return m
}

type PickRequest struct {
	GuildID   string
	ThreadKey string
	Number    int
	Actor     PlayerID // when set, must captain the team on the clock
}

// Pick applies one pick (plus the automatic last one).
func (e *Engine) Pick(_ context.Context, req PickRequest) (PickOutcome, View, error) {
	var (
		out  PickOutcome
		view View
	)
	err := e.store.Update(req.GuildID, func(s *Session) error {
		if req.ThreadKey != "" && s.ThreadKey != req.ThreadKey {
			return ErrStaleSession
		}
		if s.CaptainsAssigned() < 2 {
			return ErrAwaitingCaptains
		}
		if req.Actor != "" {
			next := s.NextTurn()
			if next == Complete {
				return ErrPlayersExhausted
			}
			team := Blue
			if next == RedTurn {
				team = Red
			}
			if c, _ := s.Captain(team); c != req.Actor {
				return ErrNotYourTurn
			}
		}
		var err error
		if out, err = s.Pick(req.Number); err != nil {
			return err
		}
		view = s.View()
		return nil
	})
	if err != nil {
		return PickOutcome{}, View{}, err
	}

	for _, a := range out.Picks {
		log.Info().Str("component", "draft").Str("guild", req.GuildID).Str("team", string(a.Team)).
			Int("number", a.Number).Str("player", string(a.Player)).Bool("auto", a.Auto).Msg("player picked")
	}
	if view.Phase == PhaseCompleted {
		e.completed(view)
	}
	return out, view, nil
}

// Reset applies the session's reset policy and moves its reset marker, which
// makes any running watcher give up on its next tick.
func (e *Engine) Reset(_ context.Context, guildID string) (View, error) {
	var view View
	err := e.store.Update(guildID, func(s *Session) error {
		if err := s.Reset(e.clock.Now()); err != nil {
			return err
		}
		view = s.View()
		return nil
	})
	if err != nil {
		return View{}, err
	}

	log.Info().Str("component", "draft").Str("guild", guildID).Str("session", view.ID).Msg("draft reset")
	events.Publish(events.DraftReset{GuildID: guildID, ThreadKey: view.ThreadKey, SessionID: view.ID, At: view.LastResetAt})
	return view, nil
}

// Cancel drops the guild's unfinished draft without recording it. Watchers
// notice the missing session on their next tick.
func (e *Engine) Cancel(_ context.Context, guildID string) (View, error) {
	v, ok := e.store.View(guildID)
	if !ok {
		return View{}, ErrSessionNotFound
	}
	if !e.store.Remove(guildID, v.ID) {
		return View{}, ErrStaleSession
	}
	log.Info().Str("component", "draft").Str("guild", guildID).Str("session", v.ID).
		Str("phase", string(v.Phase)).Msg("draft cancelled")
	return v, nil
}

func (e *Engine) completed(v View) {
	ids := func(es []Entry) []string {
		out := make([]string, len(es))
		for i, en := range es {
			out[i] = string(en.Player)
		}
		return out
	}
	log.Info().Str("component", "draft").Str("guild", v.GuildID).Str("session", v.ID).Msg("draft complete")
	events.Publish(events.DraftCompleted{
		GuildID:     v.GuildID,
		ThreadKey:   v.ThreadKey,
		SessionID:   v.ID,
		Mode:        v.Mode.Label,
		BlueCaptain: string(v.BlueCaptain),
		RedCaptain:  string(v.RedCaptain),
		Blue:        ids(v.Blue),
		Red:         ids(v.Red),
		At:          e.clock.Now(),
	})
}
