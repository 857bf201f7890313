package draft

import (
	"fmt"
	"math/rand/v2"
)

type Team string

const (
	Blue Team = "blue"
	Red  Team = "red"
)

func (t Team) Other() Team {
	if t == Blue {
		return Red
	}
	return Blue
}

// Random is the source of every coin flip and draw in the package.
type Random interface {
	IntN(n int) int
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int { return rand.IntN(n) }

// DefaultRandom is safe for concurrent use.
var DefaultRandom Random = globalRandom{}

func coin(r Random) Team {
	if r.IntN(2) == 0 {
		return Blue
	}
	return Red
}

// TurnSequence lists which team acts at each step of a draft. Index 0 and 1
// are the captain slots; the rest are picks.
type TurnSequence []Team

// Count returns how many slots belong to t.
func (s TurnSequence) Count(t Team) int {
	n := 0
	for _, x := range s {
		if x == t {
			n++
		}
	}
	return n
}

// Flipped swaps the colors of every slot.
func (s TurnSequence) Flipped() TurnSequence {
	out := make(TurnSequence, len(s))
	for i, t := range s {
		out[i] = t.Other()
	}
	return out
}

// NewTurnSequence draws the starting color and builds the sequence.
func NewTurnSequence(capacity int, r Random) (TurnSequence, error) {
	return BuildTurnSequence(capacity, coin(r))
}

// BuildTurnSequence produces 1, 2, 2, ..., 2, 1 blocks alternating color,
// beginning with start. Both colors end up with capacity/2 slots.
func BuildTurnSequence(capacity int, start Team) (TurnSequence, error) {
	if capacity < MinCapacity || capacity%2 != 0 {
		return nil, fmt.Errorf("%w: capacity %d", ErrInvalidGameMode, capacity)
	}

	seq := make(TurnSequence, 0, capacity)
	seq = append(seq, start)
	for len(seq) < capacity-1 {
		next := seq[len(seq)-1].Other()
		seq = append(seq, next, next)
	}
	if seq.Count(Blue) < seq.Count(Red) {
		seq = append(seq, Blue)
	} else {
		seq = append(seq, Red)
	}
	return seq, nil
}
