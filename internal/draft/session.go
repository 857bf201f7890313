package draft

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlayerID is the chat platform's user id.
type PlayerID string

type PickKind string

const (
	PickCaptain PickKind = "captain"
	PickPlayer  PickKind = "player"
)

// PickAction is one history entry.
type PickAction struct {
	Kind   PickKind `json:"kind"`
	Number int      `json:"number"`
	Team   Team     `json:"team"`
	Player PlayerID `json:"player"`
	Auto   bool     `json:"auto,omitempty"` // placed without a command (last player left)
}

// Entry is a player with the stable 1-based number assigned at creation.
type Entry struct {
	Number int      `json:"number"`
	Player PlayerID `json:"player"`
}

type Phase string

const (
	PhaseAwaitingCaptains Phase = "awaiting_captains"
	PhaseDrafting         Phase = "drafting"
	PhaseCompleted        Phase = "completed"
)

type Turn string

const (
	BlueTurn Turn = "blue"
	RedTurn  Turn = "red"
	Complete Turn = "complete"
)

func turnOf(t Team) Turn {
	if t == Blue {
		return BlueTurn
	}
	return RedTurn
}

type CaptainStatus string

const (
	NeedsBlueCaptain CaptainStatus = "needs_blue_captain"
	NeedsRedCaptain  CaptainStatus = "needs_red_captain"
	DraftingBegun    CaptainStatus = "drafting_begun"
)

// ResetPolicy selects what Reset does with players already on a team.
type ResetPolicy int

const (
	// ResetRestoreRoster puts every drafted player back in the roster and
	// clears both captain slots.
	ResetRestoreRoster ResetPolicy = iota
	// ResetHistoryOnly clears the pick history and leaves teams untouched.
	// This keeps the legacy behavior; picks after such a reset fail with
	// ErrHistoryInvariant.
	ResetHistoryOnly
)

func ParseResetPolicy(s string) (ResetPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "roster":
		return ResetRestoreRoster, nil
	case "history":
		return ResetHistoryOnly, nil
	}
	return 0, fmt.Errorf("unknown reset policy %q (want roster or history)", s)
}

func (p ResetPolicy) String() string {
	if p == ResetHistoryOnly {
		return "history"
	}
	return "roster"
}

// PickOutcome lists the placements made by one call (the explicit pick plus
// the automatic last one, if any) and who acts next.
type PickOutcome struct {
	Picks []PickAction
	Next  Turn
}

// Session is one draft. It is not safe for concurrent use; the Store
// serializes access.
type Session struct {
	ID          string
	GuildID     string
	ThreadKey   string
	Mode        GameMode
	ResetPolicy ResetPolicy
	CreatedAt   time.Time

	sequence    TurnSequence
	history     []PickAction
	roster      []Entry
	blue        []Entry
	red         []Entry
	captains    int
	lastResetAt time.Time
}

// NewSession numbers the roster 1..n in the given order. The turn sequence is
// trusted; a short one surfaces later as ErrPickSequenceInvariant.
func NewSession(mode GameMode, roster []PlayerID, seq TurnSequence, now time.Time) (*Session, error) {
	if len(roster) != mode.Capacity {
		return nil, fmt.Errorf("%w: got %d players for %s (%d)", ErrRosterSize, len(roster), mode.Label, mode.Capacity)
	}
	s := &Session{
		ID:          uuid.NewString(),
		Mode:        mode,
		CreatedAt:   now,
		sequence:    slices.Clone(seq),
		lastResetAt: now,
	}
	seen := make(map[PlayerID]bool, len(roster))
	for i, p := range roster {
		if seen[p] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, p)
		}
		seen[p] = true
		s.roster = append(s.roster, Entry{Number: i + 1, Player: p})
	}
	return s, nil
}

// ---------- reads ----------

func (s *Session) Roster() []Entry        { return slices.Clone(s.roster) }
func (s *Session) History() []PickAction  { return slices.Clone(s.history) }
func (s *Session) Sequence() TurnSequence { return slices.Clone(s.sequence) }
func (s *Session) Members(t Team) []Entry { return slices.Clone(*s.team(t)) }
func (s *Session) LastResetAt() time.Time { return s.lastResetAt }
func (s *Session) CaptainsAssigned() int  { return s.captains }
func (s *Session) OpenCaptainSlots() int  { return 2 - s.captains }
func (s *Session) Complete() bool         { return len(s.roster) == 0 }

func (s *Session) team(t Team) *[]Entry {
	if t == Blue {
		return &s.blue
	}
	return &s.red
}

// Captain is the first player ever placed on t.
func (s *Session) Captain(t Team) (PlayerID, bool) {
	members := *s.team(t)
	if len(members) == 0 {
		return "", false
	}
	return members[0].Player, true
}

func (s *Session) Phase() Phase {
	switch {
	case len(s.roster) == 0:
		return PhaseCompleted
	case s.captains < 2:
		return PhaseAwaitingCaptains
	default:
		return PhaseDrafting
	}
}

// NextTurn consults the sequence at the current history length.
func (s *Session) NextTurn() Turn {
	i := len(s.history)
	if len(s.roster) == 0 || i >= len(s.sequence) {
		return Complete
	}
	return turnOf(s.sequence[i])
}

func (s *Session) rosterIndex(number int) int {
	return slices.IndexFunc(s.roster, func(e Entry) bool { return e.Number == number })
}

func (s *Session) rosterIndexOf(p PlayerID) int {
	return slices.IndexFunc(s.roster, func(e Entry) bool { return e.Player == p })
}

func (s *Session) isMember(p PlayerID) bool {
	has := func(e Entry) bool { return e.Player == p }
	return slices.ContainsFunc(s.roster, has) ||
		slices.ContainsFunc(s.blue, has) ||
		slices.ContainsFunc(s.red, has)
}

func (s *Session) isCaptain(p PlayerID) bool {
	b, okB := s.Captain(Blue)
	r, okR := s.Captain(Red)
	return (okB && b == p) || (okR && r == p)
}

func (s *Session) spotsFilled() error {
	b, _ := s.Captain(Blue)
	r, _ := s.Captain(Red)
	return &CaptainSpotsFilledError{Blue: b, Red: r}
}

func (s *Session) captainStatus() CaptainStatus {
	if s.captains >= 2 {
		return DraftingBegun
	}
	open := Blue
	if i := len(s.history); i < len(s.sequence) {
		open = s.sequence[i]
	} else if len(s.blue) > 0 {
		open = Red
	}
	if open == Blue {
		return NeedsBlueCaptain
	}
	return NeedsRedCaptain
}

// ---------- transitions ----------

// SetCaptain makes p the captain of the team whose slot comes next in the
// sequence. Once both slots are taken it fails with the current captains no
// matter who p is.
func (s *Session) SetCaptain(p PlayerID) (CaptainStatus, PickOutcome, error) {
	if s.captains >= 2 {
		return "", PickOutcome{}, s.spotsFilled()
	}
	if !s.isMember(p) {
		return "", PickOutcome{}, ErrForeignUser
	}
	if s.isCaptain(p) {
		return "", PickOutcome{}, ErrIsCaptainAlready
	}
	idx := s.rosterIndexOf(p)
	if idx < 0 {
		// on a team without being its captain while a slot is open
		return "", PickOutcome{}, ErrHistoryInvariant
	}
	out, err := s.Pick(s.roster[idx].Number)
	if err != nil {
		return "", PickOutcome{}, err
	}
	return s.captainStatus(), out, nil
}

// Pick moves the numbered player to the acting team. When that leaves a
// single player undrafted, the last one is placed too.
func (s *Session) Pick(number int) (PickOutcome, error) {
	if len(s.roster) == 0 {
		return PickOutcome{}, ErrPlayersExhausted
	}
	idx := s.rosterIndex(number)
	if idx < 0 {
		return PickOutcome{}, ErrInvalidPlayerNumber
	}
	if len(s.history) != len(s.blue)+len(s.red) {
		return PickOutcome{}, ErrHistoryInvariant
	}
	steps := 1
	if len(s.roster) == 2 {
		steps = 2
	}
	if len(s.history)+steps > len(s.sequence) {
		return PickOutcome{}, ErrPickSequenceInvariant
	}

	out := PickOutcome{Picks: []PickAction{s.place(idx, false)}}
	for len(s.roster) == 1 {
		out.Picks = append(out.Picks, s.place(0, true))
	}
	out.Next = s.NextTurn()
	return out, nil
}

// place must only be called after Pick validated the sequence bounds.
func (s *Session) place(idx int, auto bool) PickAction {
	t := s.sequence[len(s.history)]
	e := s.roster[idx]
	s.roster = slices.Delete(s.roster, idx, idx+1)

	members := s.team(t)
	kind := PickPlayer
	if len(*members) == 0 {
		kind = PickCaptain
		s.captains++
	}
	*members = append(*members, e)

	a := PickAction{Kind: kind, Number: e.Number, Team: t, Player: e.Player, Auto: auto}
	s.history = append(s.history, a)
	return a
}

// orient flips the sequence so the first captain slot belongs to t. Only
// valid before anything was picked.
func (s *Session) orient(t Team) error {
	if len(s.history) != 0 || len(s.sequence) == 0 {
		return ErrHistoryInvariant
	}
	if s.sequence[0] != t {
		s.sequence = s.sequence.Flipped()
	}
	return nil
}

// Reset clears the pick history and moves the reset marker forward. What
// happens to team members depends on ResetPolicy.
func (s *Session) Reset(now time.Time) error {
	if s.Complete() {
		return ErrPlayersExhausted
	}
	// the marker must change even when two resets share a clock reading
	if !now.After(s.lastResetAt) {
		now = s.lastResetAt.Add(time.Nanosecond)
	}
	s.lastResetAt = now
	s.history = nil

	if s.ResetPolicy == ResetRestoreRoster {
		s.roster = append(s.roster, s.blue...)
		s.roster = append(s.roster, s.red...)
		slices.SortFunc(s.roster, func(a, b Entry) int { return a.Number - b.Number })
		s.blue, s.red = nil, nil
		s.captains = 0
	}
	return nil
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	cp := *s
	cp.sequence = slices.Clone(s.sequence)
	cp.history = slices.Clone(s.history)
	cp.roster = slices.Clone(s.roster)
	cp.blue = slices.Clone(s.blue)
	cp.red = slices.Clone(s.red)
	return &cp
}

// View is a read-only copy for renderers and the status API.
type View struct {
	ID          string       `json:"id"`
	GuildID     string       `json:"guild_id"`
	ThreadKey   string       `json:"thread_key"`
	Mode        GameMode     `json:"mode"`
	Phase       Phase        `json:"phase"`
	Next        Turn         `json:"next"`
	Sequence    TurnSequence `json:"sequence"`
	History     []PickAction `json:"history"`
	Roster      []Entry      `json:"roster"`
	Blue        []Entry      `json:"blue"`
	Red         []Entry      `json:"red"`
	BlueCaptain PlayerID     `json:"blue_captain,omitempty"`
	RedCaptain  PlayerID     `json:"red_captain,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	LastResetAt time.Time    `json:"last_reset_at"`
}

func (s *Session) View() View {
	b, _ := s.Captain(Blue)
	r, _ := s.Captain(Red)
	return View{
		ID:          s.ID,
		GuildID:     s.GuildID,
		ThreadKey:   s.ThreadKey,
		Mode:        s.Mode,
		Phase:       s.Phase(),
		Next:        s.NextTurn(),
		Sequence:    s.Sequence(),
		History:     s.History(),
		Roster:      s.Roster(),
		Blue:        s.Members(Blue),
		Red:         s.Members(Red),
		BlueCaptain: b,
		RedCaptain:  r,
		CreatedAt:   s.CreatedAt,
		LastResetAt: s.lastResetAt,
	}
}

// CaptainOf returns the captain of the team acting next, if any.
func (v View) CaptainOf(t Turn) PlayerID {
	switch t {
	case BlueTurn:
		return v.BlueCaptain
	case RedTurn:
		return v.RedCaptain
	}
	return ""
}
