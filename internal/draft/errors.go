// Package draft - errors.go
// Comparable error values for the draft engine. Using a string type keeps
// errors.Is working across package boundaries.
package draft

import "fmt"

type derr string

func (e derr) Error() string { return string(e) }

var (
	ErrForeignUser         = derr("player is not part of this draft")
	ErrIsCaptainAlready    = derr("player is already a captain")
	ErrCaptainSpotsFilled  = derr("both captain spots are filled")
	ErrInvalidPlayerNumber = derr("no undrafted player has that number")
	ErrPlayersExhausted    = derr("no players left to draft")

	// Internal invariants. Seeing one of these means the session was built
	// wrong upstream; the session is unusable but the process keeps running.
	ErrPickSequenceInvariant = derr("pick sequence exhausted before roster")
	ErrHistoryInvariant      = derr("pick history out of sync with teams")

	ErrSessionNotFound  = derr("no draft in progress")
	ErrStaleSession     = derr("draft was replaced")
	ErrAwaitingCaptains = derr("captains have not been chosen yet")
	ErrNotYourTurn      = derr("only the captain on the clock can pick")
	ErrNoCandidates     = derr("no eligible captain candidates")

	ErrInvalidGameMode = derr("invalid game mode")
	ErrRosterSize      = derr("roster size does not match game mode capacity")
	ErrDuplicatePlayer = derr("player appears twice in roster")
)

// CaptainSpotsFilledError reports who holds the two captain slots.
// errors.Is(err, ErrCaptainSpotsFilled) matches it.
type CaptainSpotsFilledError struct {
	Blue PlayerID
	Red  PlayerID
}

func (e *CaptainSpotsFilledError) Error() string {
	return fmt.Sprintf("%s (blue=%s red=%s)", ErrCaptainSpotsFilled, e.Blue, e.Red)
}

func (e *CaptainSpotsFilledError) Is(target error) bool { return target == ErrCaptainSpotsFilled }
