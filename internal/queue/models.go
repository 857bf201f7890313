package queue

import "time"

// represents a player in queue
type Player struct {
	ID       string    `json:"id"`        // player discord ID
	Username string    `json:"username"`  // player name
	JoinedAt time.Time `json:"joined_at"` // when player join the queue
}

// represents one game mode's queue in a guild

type Queue struct {
	ID        string    `json:"id"`       // guild + mode key (exp: "1234:5v5")
	GuildID   string    `json:"guild_id"` // owning guild
	Name      string    `json:"name"`     // mode label (exp: 5v5)
	Players   []Player  `json:"players"`  // players waiting, oldest first
	CreatedAt time.Time `json:"created_at"`
	Capacity  int       `json:"capacity"` // players needed to start a draft
}

// Open is how many players are still missing.
func (q *Queue) Open() int { return q.Capacity - len(q.Players) }
