// internal/ui/components.go
// Build Discord components (buttons/select-menus) for the queue and draft boards.

package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/pug-draft-bot/internal/draft"
	"github.com/jose-valero/pug-draft-bot/internal/queue"
)

// Custom ids routed by the app.
const (
	IDQueueJoinPrefix = "queue_join:"
	IDQueueLeave      = "queue_leave"
	IDAdminPanel      = "admin_panel"
	IDQueueReset      = "queue_reset"
	IDQueueKick       = "queue_kick"
	IDDraftCaptain    = "draft_captain"
	IDDraftPick       = "draft_pick"
	IDDraftReset      = "draft_reset"
	IDDraftCancel     = "draft_cancel"
)

const kickValuePrefix = "uid:"

const maxButtonsPerRow = 5

// ComponentsForQueues returns rows for:
//   - one Join button per game mode (five per row)
//   - a final row with Leave and Admin
func ComponentsForQueues(qs []*queue.Queue) []discordgo.MessageComponent {
	var (
		rows []discordgo.MessageComponent
		row  []discordgo.MessageComponent
	)
	for _, q := range qs {
		row = append(row, discordgo.Button{
			Label:    fmt.Sprintf("Join %s", q.Name),
			Style:    discordgo.PrimaryButton,
			CustomID: IDQueueJoinPrefix + q.Name,
		})
		if len(row) == maxButtonsPerRow {
			rows = append(rows, discordgo.ActionsRow{Components: row})
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: row})
	}
	rows = append(rows, discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Leave",
				Style:    discordgo.SecondaryButton,
				CustomID: IDQueueLeave,
				Emoji:    &discordgo.ComponentEmoji{Name: "👋"},
			},
			discordgo.Button{
				Label:    "Admin",
				Style:    discordgo.SecondaryButton,
				CustomID: IDAdminPanel,
				Emoji:    &discordgo.ComponentEmoji{Name: "🛠️"},
			},
		},
	})
	return rows
}

// AdminComponentsForQueues is the private panel shown to privileged members:
// reset buttons, and a kick select when anyone is waiting.
func AdminComponentsForQueues(qs []*queue.Queue) []discordgo.MessageComponent {
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Reset queues",
					Style:    discordgo.DangerButton,
					CustomID: IDQueueReset,
					Emoji:    &discordgo.ComponentEmoji{Name: "🧹"},
				},
				discordgo.Button{
					Label:    "Cancel draft",
					Style:    discordgo.DangerButton,
					CustomID: IDDraftCancel,
					Emoji:    &discordgo.ComponentEmoji{Name: "🛑"},
				},
			},
		},
	}

	if kopts := kickOptions(qs); len(kopts) > 0 {
		components = append(components, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    IDQueueKick,
					Placeholder: "Kick a player…",
					Options:     kopts,
				},
			},
		})
	}
	return components
}

func kickOptions(qs []*queue.Queue) []discordgo.SelectMenuOption {
	opts := make([]discordgo.SelectMenuOption, 0, 25)
	for _, q := range qs {
		for _, p := range q.Players {
			opts = append(opts, discordgo.SelectMenuOption{
				Label: truncate(fmt.Sprintf("Kick %s (%s)", safe(p.Username), q.Name), 100),
				Value: kickValuePrefix + p.ID,
			})
			if len(opts) == 25 {
				return opts
			}
		}
	}
	return opts
}

// KickTarget reads the user id out of a kick select value.
func KickTarget(value string) (string, bool) {
	id, ok := strings.CutPrefix(value, kickValuePrefix)
	if !ok || strings.TrimSpace(id) == "" {
		return "", false
	}
	return id, true
}

// ComponentsForDraft returns the controls matching the draft phase. A
// completed draft has none.
func ComponentsForDraft(v draft.View, name NameFunc) []discordgo.MessageComponent {
	reset := discordgo.Button{
		Label:    "Reset",
		Style:    discordgo.DangerButton,
		CustomID: IDDraftReset,
	}

	switch v.Phase {
	case draft.PhaseAwaitingCaptains:
		return []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Captain",
					Style:    discordgo.SuccessButton,
					CustomID: IDDraftCaptain,
					Emoji:    &discordgo.ComponentEmoji{Name: "🎖️"},
				},
				reset,
			}},
		}
	case draft.PhaseDrafting:
		return []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    IDDraftPick,
					Placeholder: "Captain on the clock: pick a player…",
					Options:     pickOptions(v.Roster, name),
				},
			}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{reset}},
		}
	}
	return []discordgo.MessageComponent{}
}

func pickOptions(roster []draft.Entry, name NameFunc) []discordgo.SelectMenuOption {
	opts := make([]discordgo.SelectMenuOption, 0, len(roster))
	for _, e := range roster {
		label := string(e.Player)
		if name != nil {
			label = name(string(e.Player))
		}
		opts = append(opts, discordgo.SelectMenuOption{
			Label: truncate(fmt.Sprintf("#%d %s", e.Number, label), 100),
			Value: strconv.Itoa(e.Number),
		})
		if len(opts) == 25 {
			break
		}
	}
	return opts
}
