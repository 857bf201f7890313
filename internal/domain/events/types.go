// Package events - types.go
package events

import "time"

// QueueFilled is emitted when a game mode queue reaches capacity. Players are
// in join order.
type QueueFilled struct {
	GuildID   string
	ChannelID string // where the queue UI lives
	Mode      string
	Players   []string
}

// DraftCreated is emitted when a new session replaces whatever the guild had.
type DraftCreated struct {
	GuildID   string
	ThreadKey string
	SessionID string
}

// DraftingStarted is emitted exactly once per session, when the second
// captain slot gets filled.
type DraftingStarted struct {
	GuildID     string
	ThreadKey   string
	SessionID   string
	BlueCaptain string
	RedCaptain  string
	Auto        bool // chosen by the deadline watcher
}

// DraftReset is emitted after a reset; captain slots may be open again.
type DraftReset struct {
	GuildID   string
	ThreadKey string
	SessionID string
	At        time.Time
}

// DraftCompleted is emitted once, when the last player is placed.
type DraftCompleted struct {
	GuildID     string
	ThreadKey   string
	SessionID   string
	Mode        string
	BlueCaptain string
	RedCaptain  string
	Blue        []string // in pick order, captain first
	Red         []string
	At          time.Time
}
