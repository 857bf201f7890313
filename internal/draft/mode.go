package draft

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinCapacity = 2
	MaxCapacity = 24
)

// GameMode identifies a queue flavor ("5v5", "2v2"...). Two modes with the
// same label, ignoring case, are the same mode.
type GameMode struct {
	Label    string `json:"label"`
	Capacity int    `json:"capacity"`
}

// NewGameMode validates label and capacity.
func NewGameMode(label string, capacity int) (GameMode, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return GameMode{}, fmt.Errorf("%w: empty label", ErrInvalidGameMode)
	}
	if capacity < MinCapacity || capacity > MaxCapacity || capacity%2 != 0 {
		return GameMode{}, fmt.Errorf("%w: capacity %d must be even and within %d-%d",
			ErrInvalidGameMode, capacity, MinCapacity, MaxCapacity)
	}
	return GameMode{Label: label, Capacity: capacity}, nil
}

// Key is the identity of the mode.
func (m GameMode) Key() string { return strings.ToLower(m.Label) }

// ParseGameModes reads "label:capacity" pairs separated by commas,
// e.g. "5v5:10,2v2:4".
func ParseGameModes(raw string) ([]GameMode, error) {
	var modes []GameMode
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, capRaw, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not label:capacity", ErrInvalidGameMode, part)
		}
		capacity, err := strconv.Atoi(strings.TrimSpace(capRaw))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidGameMode, part, err)
		}
		m, err := NewGameMode(label, capacity)
		if err != nil {
			return nil, err
		}
		if seen[m.Key()] {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrInvalidGameMode, m.Label)
		}
		seen[m.Key()] = true
		modes = append(modes, m)
	}
	if len(modes) == 0 {
		return nil, fmt.Errorf("%w: no modes configured", ErrInvalidGameMode)
	}
	return modes, nil
}

// FindMode looks a label up case-insensitively.
func FindMode(modes []GameMode, label string) (GameMode, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	for _, m := range modes {
		if m.Key() == key {
			return m, true
		}
	}
	return GameMode{}, false
}
