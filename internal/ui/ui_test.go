package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/pug-draft-bot/internal/domain/match"
	"github.com/jose-valero/pug-draft-bot/internal/draft"
	"github.com/jose-valero/pug-draft-bot/internal/queue"
)

func customIDs(rows []discordgo.MessageComponent) []string {
	var ids []string
	for _, r := range rows {
		row, ok := r.(discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range row.Components {
			switch v := c.(type) {
			case discordgo.Button:
				ids = append(ids, v.CustomID)
			case discordgo.SelectMenu:
				ids = append(ids, v.CustomID)
			}
		}
	}
	return ids
}

func draftView(phase draft.Phase) draft.View {
	return draft.View{
		ID:          "0b1c2d3e-aaaa-bbbb-cccc-000000000000",
		Mode:        draft.GameMode{Label: "2v2", Capacity: 4},
		Phase:       phase,
		Next:        draft.RedTurn,
		Sequence:    draft.TurnSequence{draft.Blue, draft.Red, draft.Red, draft.Blue},
		Roster:      []draft.Entry{{Number: 2, Player: "u2"}, {Number: 4, Player: "u4"}},
		Blue:        []draft.Entry{{Number: 1, Player: "u1"}},
		Red:         []draft.Entry{{Number: 3, Player: "u3"}},
		BlueCaptain: "u1",
		RedCaptain:  "u3",
	}
}

func TestRenderQueuesEmbed(t *testing.T) {
	qs := []*queue.Queue{
		{Name: "2v2", Capacity: 4, Players: []queue.Player{{ID: "a", Username: "alice"}}},
		{Name: "5v5", Capacity: 10},
	}
	emb := RenderQueuesEmbed(qs)
	assert.True(t, strings.HasPrefix(emb.Title, QueueBoardMarker))
	assert.Contains(t, emb.Description, "**2v2** (1/4)")
	assert.Contains(t, emb.Description, "1) alice")
	assert.Contains(t, emb.Description, "**5v5** (0/10)")

	assert.Contains(t, RenderQueuesEmbed(nil).Description, "No game modes")
}

func TestComponentsForQueues(t *testing.T) {
	var qs []*queue.Queue
	for _, n := range []string{"1v1", "2v2", "3v3", "4v4", "5v5", "6v6"} {
		qs = append(qs, &queue.Queue{Name: n})
	}
	rows := ComponentsForQueues(qs)
	require.Len(t, rows, 3)
	ids := customIDs(rows)
	assert.Equal(t, IDQueueJoinPrefix+"1v1", ids[0])
	assert.Equal(t, []string{IDQueueLeave, IDAdminPanel}, ids[len(ids)-2:])
	assert.Len(t, ids, 8)
}

func TestAdminComponentsForQueues(t *testing.T) {
	empty := []*queue.Queue{{Name: "2v2", Capacity: 4}}
	assert.Equal(t, []string{IDQueueReset, IDDraftCancel}, customIDs(AdminComponentsForQueues(empty)))

	qs := []*queue.Queue{
		{Name: "2v2", Capacity: 4, Players: []queue.Player{{ID: "a", Username: "alice"}}},
		{Name: "5v5", Capacity: 10, Players: []queue.Player{{ID: "b", Username: ""}}},
	}
	rows := AdminComponentsForQueues(qs)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{IDQueueReset, IDDraftCancel, IDQueueKick}, customIDs(rows))

	menu := rows[1].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	require.Len(t, menu.Options, 2)
	assert.Equal(t, "Kick alice (2v2)", menu.Options[0].Label)
	assert.Equal(t, "Kick — (5v5)", menu.Options[1].Label)

	id, ok := KickTarget(menu.Options[0].Value)
	assert.True(t, ok)
	assert.Equal(t, "a", id)
}

func TestKickOptionsCapped(t *testing.T) {
	var players []queue.Player
	for i := 0; i < 30; i++ {
		players = append(players, queue.Player{ID: strings.Repeat("x", i+1), Username: "p"})
	}
	assert.Len(t, kickOptions([]*queue.Queue{{Name: "big", Capacity: 40, Players: players}}), 25)
}

func TestKickTarget(t *testing.T) {
	for _, bad := range []string{"", "uid:", "uid:  ", "123", "user:123"} {
		_, ok := KickTarget(bad)
		assert.False(t, ok, bad)
	}
	id, ok := KickTarget("uid:123")
	assert.True(t, ok)
	assert.Equal(t, "123", id)
}

func TestRenderDraftEmbedByPhase(t *testing.T) {
	v := draftView(draft.PhaseDrafting)
	emb := RenderDraftEmbed(v)
	assert.Equal(t, "PUG Draft · 2v2", emb.Title)
	assert.Contains(t, emb.Description, "<@u3> picks for **Red**")
	require.Len(t, emb.Fields, 3)
	assert.Contains(t, emb.Fields[0].Value, "<@u1> (C)")
	assert.Contains(t, emb.Fields[1].Value, "<@u3> (C)")
	assert.Contains(t, emb.Fields[2].Value, "`#2` <@u2>")
	assert.Contains(t, emb.Footer.Text, "Turn order: B R R B")

	waiting := draftView(draft.PhaseAwaitingCaptains)
	waiting.RedCaptain = ""
	assert.Contains(t, RenderDraftEmbed(waiting).Description, "(1/2)")

	done := draftView(draft.PhaseCompleted)
	assert.Contains(t, RenderDraftEmbed(done).Description, "complete")
}

func TestComponentsForDraft(t *testing.T) {
	names := func(id string) string { return "name-" + id }

	ids := customIDs(ComponentsForDraft(draftView(draft.PhaseAwaitingCaptains), names))
	assert.Equal(t, []string{IDDraftCaptain, IDDraftReset}, ids)

	rows := ComponentsForDraft(draftView(draft.PhaseDrafting), names)
	assert.Equal(t, []string{IDDraftPick, IDDraftReset}, customIDs(rows))
	menu := rows[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	require.Len(t, menu.Options, 2)
	assert.Equal(t, "#2 name-u2", menu.Options[0].Label)
	assert.Equal(t, "4", menu.Options[1].Value)

	assert.Empty(t, ComponentsForDraft(draftView(draft.PhaseCompleted), names))
}

func TestPickOptionsCapped(t *testing.T) {
	var roster []draft.Entry
	for i := 1; i <= 30; i++ {
		roster = append(roster, draft.Entry{Number: i, Player: "p"})
	}
	assert.Len(t, pickOptions(roster, nil), 25)
}

func TestRenderHistoryEmbed(t *testing.T) {
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	recs := []match.Record{{
		Mode: "2v2", Blue: []string{"a", "b"}, Red: []string{"c", "d"},
		CompletedAt: now.Add(-3 * time.Hour),
	}}
	emb := RenderHistoryEmbed(recs, now)
	require.Len(t, emb.Fields, 1)
	assert.Equal(t, "2v2 • 3h ago", emb.Fields[0].Name)
	assert.Contains(t, emb.Fields[0].Value, "> • <@a>")

	assert.Contains(t, RenderHistoryEmbed(nil, now).Description, "No drafts")
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "abc…", truncate("abcdef", 4))
	assert.Equal(t, "abc", truncate("abc", 4))
	assert.Equal(t, "—", safe("  "))
	assert.Equal(t, "just now", humanSince(time.Unix(100, 0), time.Unix(110, 0)))
	assert.Equal(t, "unknown", humanSince(time.Time{}, time.Now()))
}
