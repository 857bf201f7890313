package match

import (
	"time"

	"github.com/google/uuid"
)

// Record is a finished draft as kept in match history.
type Record struct {
	ID          string    `json:"id"`
	GuildID     string    `json:"guild_id"`
	Mode        string    `json:"mode"`
	BlueCaptain string    `json:"blue_captain"`
	RedCaptain  string    `json:"red_captain"`
	Blue        []string  `json:"blue"`
	Red         []string  `json:"red"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewRecord stamps a fresh id on a completed draft.
func NewRecord(guildID, mode, blueCaptain, redCaptain string, blue, red []string, at time.Time) Record {
	return Record{
		ID:          uuid.NewString(),
		GuildID:     guildID,
		Mode:        mode,
		BlueCaptain: blueCaptain,
		RedCaptain:  redCaptain,
		Blue:        append([]string(nil), blue...),
		Red:         append([]string(nil), red...),
		CompletedAt: at.UTC(),
	}
}

func (r Record) Players() int { return len(r.Blue) + len(r.Red) }
