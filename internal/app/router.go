// internal/app/router.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	d "github.com/jose-valero/pug-draft-bot/internal/adapters/discord"
	"github.com/jose-valero/pug-draft-bot/internal/domain/events"
	"github.com/jose-valero/pug-draft-bot/internal/draft"
	"github.com/jose-valero/pug-draft-bot/internal/queue"
	"github.com/jose-valero/pug-draft-bot/internal/storage/sqlite"
	"github.com/jose-valero/pug-draft-bot/internal/ui"
)

// interactions must be answered within 3s
const interactionTimeout = 2500 * time.Millisecond

func (b *Bot) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.rememberName(d.UserOf(i))
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleSlash(s, i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(s, i)
	}
}

func option(data discordgo.ApplicationCommandInteractionData, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, o := range data.Options {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// ------------------- Slash -------------------

func (b *Bot) handleSlash(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	log.Debug().Str("component", "router").Str("command", data.Name).Str("channel", i.ChannelID).Msg("slash")

	switch data.Name {
	case "join":
		mode := ""
		if o := option(data, "mode"); o != nil {
			mode = o.StringValue()
		}
		b.join(s, i, mode)

	case "leave":
		b.leave(s, i)

	case "queue":
		qs := b.Queues.Queues(i.GuildID)
		if b.priv.IsPrivileged(i) {
			_ = d.SendEphemeralComplex(s, i, ui.RenderQueuesEmbed(qs), ui.AdminComponentsForQueues(qs))
			return
		}
		_ = d.SendEphemeralEmbed(s, i, ui.RenderQueuesEmbed(qs))

	case "captain":
		u := d.UserOf(i)
		if u == nil {
			_ = d.SendEphemeral(s, i, "⚠️ Could not identify you.")
			return
		}
		target := u.ID
		if o := option(data, "player"); o != nil {
			if picked := o.UserValue(nil); picked != nil && picked.ID != u.ID {
				if !b.priv.RequirePrivileged(s, i) {
					return
				}
				target = picked.ID
			}
		}
		b.captain(s, i, target, "")

	case "pick":
		n := 0
		if o := option(data, "number"); o != nil {
			n = int(o.IntValue())
		}
		b.pick(s, i, n, "")

	case "resetdraft":
		if !b.priv.RequirePrivileged(s, i) {
			return
		}
		b.reset(s, i)

	case "canceldraft":
		if !b.priv.RequirePrivileged(s, i) {
			return
		}
		b.cancelDraft(s, i)

	case "resetqueue":
		if !b.priv.RequirePrivileged(s, i) {
			return
		}
		b.resetQueues(s, i)

	case "kick":
		if !b.priv.RequirePrivileged(s, i) {
			return
		}
		o := option(data, "player")
		if o == nil || o.UserValue(nil) == nil {
			_ = d.SendEphemeral(s, i, "⚠️ Pick a player to remove.")
			return
		}
		b.kick(s, i, o.UserValue(nil).ID)

	case "optout":
		enabled := true
		if o := option(data, "enabled"); o != nil {
			enabled = o.BoolValue()
		}
		b.optOut(s, i, enabled)

	case "history":
		b.history(s, i)
	}
}

// ------------------- Components -------------------

func (b *Bot) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	customID := data.CustomID
	log.Debug().Str("component", "router").Str("custom_id", customID).Str("user", d.SafeName(d.UserOf(i))).Msg("component")

	// board buttons only act on the draft of the thread they live in
	thread := i.ChannelID

	switch {
	case strings.HasPrefix(customID, ui.IDQueueJoinPrefix):
		b.join(s, i, strings.TrimPrefix(customID, ui.IDQueueJoinPrefix))

	case customID == ui.IDQueueLeave:
		b.leave(s, i)

	case customID == ui.IDAdminPanel:
		if !b.priv.RequirePrivileged(s, i) {
			return
		}
		qs := b.Queues.Queues(i.GuildID)
		_ = d.SendEphemeralComplex(s, i, ui.RenderQueuesEmbed(qs), ui.AdminComponentsForQueues(qs))

	case customID == ui.IDQueueReset:
		if !b.priv.RequirePrivileged(s, i) {
			return
		}
		b.resetQueues(s, i)

	case customID == ui.IDQueueKick:
		if !b.priv.RequirePrivileged(s, i) {
			return
		}
		if len(data.Values) == 0 {
			_ = d.SendEphemeral(s, i, "⚠️ Invalid selection.")
			return
		}
		uid, ok := ui.KickTarget(data.Values[0])
		if !ok {
			_ = d.SendEphemeral(s, i, "⚠️ Invalid selection.")
			return
		}
		b.kick(s, i, uid)

	case customID == ui.IDDraftCancel:
		if !b.priv.RequirePrivileged(s, i) {
			return
		}
		b.cancelDraft(s, i)

	case customID == ui.IDDraftCaptain:
		u := d.UserOf(i)
		if u == nil {
			_ = d.SendEphemeral(s, i, "⚠️ Could not identify you.")
			return
		}
		b.captain(s, i, u.ID, thread)

	case customID == ui.IDDraftPick:
		if len(data.Values) == 0 {
			_ = d.SendEphemeral(s, i, "⚠️ Invalid selection.")
			return
		}
		n, err := strconv.Atoi(data.Values[0])
		if err != nil {
			_ = d.SendEphemeral(s, i, "⚠️ Invalid selection.")
			return
		}
		b.pick(s, i, n, thread)

	case customID == ui.IDDraftReset:
		if !b.priv.RequirePrivileged(s, i) {
			return
		}
		b.reset(s, i)
	}
}

// ------------------- Actions -------------------

func (b *Bot) join(s *discordgo.Session, i *discordgo.InteractionCreate, modeLabel string) {
	u := d.UserOf(i)
	if u == nil {
		_ = d.SendEphemeral(s, i, "⚠️ Could not identify you.")
		return
	}
	mode, ok := draft.FindMode(b.Cfg.GameModes, modeLabel)
	if !ok {
		_ = d.SendEphemeral(s, i, userMessage(queue.ErrNotFound))
		return
	}
	if b.voice.RequireToJoin() && !b.voice.UserAllowed(s, i.GuildID, u.ID) {
		_ = d.SendEphemeral(s, i, "🔇 You must be in an allowed voice channel to join.")
		return
	}
	if name, waiting := b.Queues.Waiting(i.GuildID, u.ID); waiting {
		_ = d.SendEphemeral(s, i, fmt.Sprintf("⏳ You're already waiting in **%s**. Leave it first to switch.", name))
		return
	}
	if b.Engine.Store().Drafting(i.GuildID, draft.PlayerID(u.ID)) {
		_ = d.SendEphemeral(s, i, "⏳ You're still undrafted in the running draft.")
		return
	}

	roster, err := b.Queues.JoinQueue(i.GuildID, mode.Label, queue.Player{ID: u.ID, Username: d.SafeName(u)})
	if err != nil {
		_ = d.SendEphemeral(s, i, userMessage(err))
		return
	}
	if roster == nil {
		msg := fmt.Sprintf("🙌 Joined **%s**.", mode.Label)
		if q, err := b.Queues.GetQueue(i.GuildID, mode.Label); err == nil {
			msg = fmt.Sprintf("🙌 Joined **%s** (%d/%d).", q.Name, len(q.Players), q.Capacity)
		}
		_ = d.SendEphemeral(s, i, msg)
		b.refreshQueueBoard(i.GuildID)
		return
	}

	_ = d.SendEphemeral(s, i, fmt.Sprintf("🔥 **%s** is full, the draft is starting.", mode.Label))
	b.refreshQueueBoard(i.GuildID)

	ids := make([]string, len(roster))
	for k, p := range roster {
		ids[k] = p.ID
	}
	events.Publish(events.QueueFilled{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Mode:      mode.Label,
		Players:   ids,
	})
}

func (b *Bot) leave(s *discordgo.Session, i *discordgo.InteractionCreate) {
	u := d.UserOf(i)
	if u == nil {
		_ = d.SendEphemeral(s, i, "⚠️ Could not identify you.")
		return
	}
	name, err := b.Queues.LeaveQueue(i.GuildID, u.ID)
	if err != nil {
		_ = d.SendEphemeral(s, i, userMessage(err))
		return
	}
	_ = d.SendEphemeral(s, i, fmt.Sprintf("👋 Left **%s**.", name))
	b.refreshQueueBoard(i.GuildID)
}

func (b *Bot) captain(s *discordgo.Session, i *discordgo.InteractionCreate, userID, thread string) {
	ctx, cancel := context.WithTimeout(b.ctx, interactionTimeout)
	defer cancel()

	target := draft.PlayerID(userID)
	out, err := b.Engine.AssignCaptain(ctx, draft.CaptainRequest{
		GuildID:   i.GuildID,
		ThreadKey: thread,
		Target:    &target,
	})
	if err != nil {
		_ = d.SendEphemeral(s, i, userMessage(err))
		return
	}
	_ = d.SendResponse(s, i, describeAssigned(out.Assigned))
	b.refreshDraftBoard(out.View)
}

func (b *Bot) pick(s *discordgo.Session, i *discordgo.InteractionCreate, number int, thread string) {
	u := d.UserOf(i)
	if u == nil {
		_ = d.SendEphemeral(s, i, "⚠️ Could not identify you.")
		return
	}
	// admins may pick on behalf of the captain on the clock
	actor := draft.PlayerID(u.ID)
	if b.priv.IsPrivileged(i) {
		actor = ""
	}

	out, v, err := b.Engine.Pick(b.ctx, draft.PickRequest{
		GuildID:   i.GuildID,
		ThreadKey: thread,
		Number:    number,
		Actor:     actor,
	})
	if err != nil {
		_ = d.SendEphemeral(s, i, userMessage(err))
		return
	}
	_ = d.SendResponse(s, i, describePicks(out.Picks))
	b.refreshDraftBoard(v)
}

func (b *Bot) reset(s *discordgo.Session, i *discordgo.InteractionCreate) {
	v, err := b.Engine.Reset(b.ctx, i.GuildID)
	if err != nil {
		_ = d.SendEphemeral(s, i, userMessage(err))
		return
	}
	_ = d.SendResponse(s, i, describeReset(v, d.UserOf(i)))
	log.Info().Str("component", "router").Str("guild", i.GuildID).Str("session", v.ID).Msg("reset requested")
}

func (b *Bot) cancelDraft(s *discordgo.Session, i *discordgo.InteractionCreate) {
	v, err := b.Engine.Cancel(b.ctx, i.GuildID)
	if err != nil {
		_ = d.SendEphemeral(s, i, userMessage(err))
		return
	}
	b.dropDraft(v)
	_ = d.SendResponse(s, i, fmt.Sprintf("🛑 The **%s** draft was cancelled by %s.", v.Mode.Label, actorMention(d.UserOf(i))))
}

// ------------------- Admin -------------------

func (b *Bot) resetQueues(s *discordgo.Session, i *discordgo.InteractionCreate) {
	n := b.Queues.Reset(i.GuildID)
	log.Info().Str("component", "router").Str("guild", i.GuildID).Int("removed", n).Msg("queues reset")
	_ = d.SendEphemeral(s, i, fmt.Sprintf("🧹 Queues emptied, %d player(s) removed.", n))
	b.refreshQueueBoard(i.GuildID)
}

func (b *Bot) kick(s *discordgo.Session, i *discordgo.InteractionCreate, userID string) {
	name, err := b.Queues.LeaveQueue(i.GuildID, userID)
	if err != nil {
		if errors.Is(err, queue.ErrNotIn) {
			_ = d.SendEphemeral(s, i, "⚠️ That player is not in any queue.")
			return
		}
		_ = d.SendEphemeral(s, i, userMessage(err))
		return
	}
	log.Info().Str("component", "router").Str("guild", i.GuildID).Str("user", userID).Str("queue", name).Msg("player kicked")
	_ = d.SendEphemeral(s, i, fmt.Sprintf("✅ Removed %s from **%s**.", d.Mention(userID), name))
	b.refreshQueueBoard(i.GuildID)
}

func (b *Bot) optOut(s *discordgo.Session, i *discordgo.InteractionCreate, enabled bool) {
	u := d.UserOf(i)
	if u == nil {
		_ = d.SendEphemeral(s, i, "⚠️ Could not identify you.")
		return
	}
	ctx, cancel := context.WithTimeout(b.ctx, interactionTimeout)
	defer cancel()
	if err := b.History.SetOptOut(ctx, i.GuildID, u.ID, enabled); err != nil {
		log.Error().Str("component", "router").Err(err).Msg("set opt-out")
		_ = d.SendEphemeral(s, i, "⚠️ Could not save your preference, try again.")
		return
	}
	if enabled {
		_ = d.SendEphemeral(s, i, "🙅 You won't be drawn as captain at random.")
		return
	}
	_ = d.SendEphemeral(s, i, "🎲 You're back in the random captain draw.")
}

func (b *Bot) history(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(b.ctx, interactionTimeout)
	defer cancel()
	recs, err := b.History.RecentMatches(ctx, i.GuildID, sqlite.DefaultHistoryLimit)
	if err != nil {
		log.Error().Str("component", "router").Err(err).Msg("list matches")
		_ = d.SendEphemeral(s, i, "⚠️ Could not load match history.")
		return
	}
	_ = d.SendEphemeralEmbed(s, i, ui.RenderHistoryEmbed(recs, b.clock.Now()))
}

// ------------------- Boards -------------------

// refreshQueueBoard edits the public queue board outside the interaction.
func (b *Bot) refreshQueueBoard(guildID string) {
	qs := b.Queues.Queues(guildID)
	if err := d.PublishOrEditBoard(b.Sess, b.Cfg.QueueChannelID, ui.QueueBoardMarker,
		ui.RenderQueuesEmbed(qs), ui.ComponentsForQueues(qs)); err != nil {
		log.Warn().Str("component", "router").Err(err).Msg("queue board refresh failed")
	}
}

// refreshDraftBoard renders v in its thread. The final board of a completed
// draft is drawn by the DraftCompleted subscriber.
func (b *Bot) refreshDraftBoard(v draft.View) {
	if v.ThreadKey == "" || v.Phase == draft.PhaseCompleted {
		return
	}
	b.publishDraftBoard(v)
}

func (b *Bot) publishDraftBoard(v draft.View) {
	err := d.PublishOrEditBoard(b.Sess, v.ThreadKey, ui.DraftBoardMarker,
		ui.RenderDraftEmbed(v), ui.ComponentsForDraft(v, b.displayName))
	if err != nil {
		log.Warn().Str("component", "router").Str("session", v.ID).Err(err).Msg("draft board refresh failed")
	}
}
