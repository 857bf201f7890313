// internal/app/commands.go
package app

import (
	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/pug-draft-bot/internal/draft"
)

func commandList(modes []draft.GameMode) []*discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(modes))
	for _, m := range modes {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: m.Label, Value: m.Label})
	}
	minNumber := 1.0

	return []*discordgo.ApplicationCommand{
		{
			Name:        "join",
			Description: "Join the queue of a game mode",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "mode",
				Description: "Game mode",
				Required:    true,
				Choices:     choices,
			}},
		},
		{
			Name:        "leave",
			Description: "Leave whatever queue you're in",
		},
		{
			Name:        "queue",
			Description: "Show queue status",
		},
		{
			Name:        "captain",
			Description: "Volunteer as captain, or draw one (admins may name a player)",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "player",
				Description: "Player to make captain",
			}},
		},
		{
			Name:        "pick",
			Description: "Draft a player by number",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "number",
				Description: "Number shown on the draft board",
				Required:    true,
				MinValue:    &minNumber,
				MaxValue:    draft.MaxCapacity,
			}},
		},
		{
			Name:        "resetdraft",
			Description: "Undo captains and picks of the current draft (admins)",
		},
		{
			Name:        "canceldraft",
			Description: "Drop the current draft without recording it (admins)",
		},
		{
			Name:        "resetqueue",
			Description: "Empty every queue (admins)",
		},
		{
			Name:        "kick",
			Description: "Remove a player from the queues (admins)",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "player",
				Description: "Player to remove",
				Required:    true,
			}},
		},
		{
			Name:        "optout",
			Description: "Never be drawn as captain at random",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "enabled",
				Description: "true to opt out, false to opt back in",
				Required:    true,
			}},
		},
		{
			Name:        "history",
			Description: "Show recent drafts",
		},
	}
}

// RegisterCommands overwrites the guild-level commands in one call.
func RegisterCommands(s *discordgo.Session, appID, guildID string, modes []draft.GameMode) error {
	_, err := s.ApplicationCommandBulkOverwrite(appID, guildID, commandList(modes))
	return err
}
