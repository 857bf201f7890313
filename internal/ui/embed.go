package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/pug-draft-bot/internal/domain/match"
	"github.com/jose-valero/pug-draft-bot/internal/draft"
	"github.com/jose-valero/pug-draft-bot/internal/queue"
)

const (
	colorOpen     = 0x57F287
	colorWaiting  = 0xFEE75C
	colorDrafting = 0x5865F2
	colorDone     = 0x808080
)

func buildQueuesDescription(qs []*queue.Queue) string {
	if len(qs) == 0 {
		return "_No game modes configured._"
	}
	var b strings.Builder
	for _, q := range qs {
		fmt.Fprintf(&b, "**%s** (%d/%d)\n", q.Name, len(q.Players), q.Capacity)
		if len(q.Players) == 0 {
			b.WriteString("_(empty)_\n\n")
			continue
		}
		for i, p := range q.Players {
			fmt.Fprintf(&b, "%d) %s\n", i+1, p.Username)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderQueuesEmbed is the board of the queue channel.
func RenderQueuesEmbed(qs []*queue.Queue) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       QueueBoardMarker,
		Description: buildQueuesDescription(qs),
		Color:       colorOpen,
		Footer:      &discordgo.MessageEmbedFooter{Text: "A draft starts as soon as a queue is full."},
	}
}

func teamField(label string, members []draft.Entry, captain draft.PlayerID) *discordgo.MessageEmbedField {
	lines := make([]string, len(members))
	for i, e := range members {
		lines[i] = mention(string(e.Player))
		if e.Player == captain {
			lines[i] += " (C)"
		}
	}
	return &discordgo.MessageEmbedField{
		Name:   fmt.Sprintf("%s (%d)", label, len(members)),
		Value:  bulletList(lines, 0),
		Inline: true,
	}
}

func draftStatus(v draft.View) (string, int) {
	switch v.Phase {
	case draft.PhaseAwaitingCaptains:
		n := 0
		if v.BlueCaptain != "" {
			n++
		}
		if v.RedCaptain != "" {
			n++
		}
		return fmt.Sprintf("Waiting for captains (%d/2). Press **Captain** or use `/captain`; "+
			"empty slots are drawn at random after the deadline.", n), colorWaiting
	case draft.PhaseDrafting:
		team := "Blue"
		if v.Next == draft.RedTurn {
			team = "Red"
		}
		return fmt.Sprintf("%s picks for **%s**.", mention(string(v.CaptainOf(v.Next))), team), colorDrafting
	}
	return "Draft complete. Good luck, have fun!", colorDone
}

func turnOrder(seq draft.TurnSequence) string {
	parts := make([]string, len(seq))
	for i, t := range seq {
		parts[i] = strings.ToUpper(string(t)[:1])
	}
	return strings.Join(parts, " ")
}

// RenderDraftEmbed is the board of a draft thread.
func RenderDraftEmbed(v draft.View) *discordgo.MessageEmbed {
	desc, color := draftStatus(v)

	var avail []string
	for _, e := range v.Roster {
		avail = append(avail, fmt.Sprintf("`#%d` %s", e.Number, mention(string(e.Player))))
	}

	return &discordgo.MessageEmbed{
		Title:       draftTitle(v.Mode.Label),
		Description: desc,
		Color:       color,
		Fields: []*discordgo.MessageEmbedField{
			teamField("🔵 Blue", v.Blue, v.BlueCaptain),
			teamField("🔴 Red", v.Red, v.RedCaptain),
			{Name: fmt.Sprintf("Available (%d)", len(v.Roster)), Value: bulletList(avail, 0), Inline: false},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Turn order: %s · draft %s", turnOrder(v.Sequence), truncate(v.ID, 9)),
		},
	}
}

func matchField(r match.Record, now time.Time) *discordgo.MessageEmbedField {
	blue := make([]string, len(r.Blue))
	for i, id := range r.Blue {
		blue[i] = mention(id)
	}
	red := make([]string, len(r.Red))
	for i, id := range r.Red {
		red[i] = mention(id)
	}
	return &discordgo.MessageEmbedField{
		Name: fmt.Sprintf("%s • %s", safe(r.Mode), humanSince(r.CompletedAt, now)),
		Value: quoteBlock(fmt.Sprintf("**Blue**\n%s\n\n**Red**\n%s",
			bulletList(blue, 12), bulletList(red, 12))),
		Inline: true,
	}
}

// RenderHistoryEmbed lists recent finished drafts.
func RenderHistoryEmbed(recs []match.Record, now time.Time) *discordgo.MessageEmbed {
	emb := &discordgo.MessageEmbed{
		Title: "Recent drafts",
		Color: colorDone,
	}
	if len(recs) == 0 {
		emb.Description = "_No drafts played yet._"
		return emb
	}
	// discord caps embeds at 25 fields
	if len(recs) > 25 {
		recs = recs[:25]
	}
	for _, r := range recs {
		emb.Fields = append(emb.Fields, matchField(r, now))
	}
	return emb
}
