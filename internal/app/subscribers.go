// internal/app/subscribers.go
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	d "github.com/jose-valero/pug-draft-bot/internal/adapters/discord"
	"github.com/jose-valero/pug-draft-bot/internal/domain/events"
	"github.com/jose-valero/pug-draft-bot/internal/domain/match"
	"github.com/jose-valero/pug-draft-bot/internal/draft"
	"github.com/jose-valero/pug-draft-bot/internal/ui"
)

const threadArchiveMinutes = 60

var subsOnce sync.Once
var subsCancel = func() {}

// StartEventSubscribers wires the bus to Discord. Publish is synchronous and
// often runs inside an interaction handler, so REST work happens on its own
// goroutine.
func (b *Bot) StartEventSubscribers() func() {
	subsOnce.Do(func() {
		var cancels []func()

		// ---------- QUEUE FILLED ----------
		cancels = append(cancels, events.Subscribe(func(ev events.QueueFilled) {
			go b.onQueueFilled(ev)
		}))

		// ---------- DRAFTING STARTED ----------
		cancels = append(cancels, events.Subscribe(func(ev events.DraftingStarted) {
			go b.onDraftingStarted(ev)
		}))

		// ---------- DRAFT RESET ----------
		cancels = append(cancels, events.Subscribe(func(ev events.DraftReset) {
			go b.onDraftReset(ev)
		}))

		// ---------- DRAFT COMPLETED ----------
		cancels = append(cancels, events.Subscribe(func(ev events.DraftCompleted) {
			go b.onDraftCompleted(ev)
		}))

		log.Info().Str("component", "bus").
			Int("queue_filled", events.Count[events.QueueFilled]()).
			Int("drafting_started", events.Count[events.DraftingStarted]()).
			Int("draft_reset", events.Count[events.DraftReset]()).
			Int("draft_completed", events.Count[events.DraftCompleted]()).
			Msg("subscribers registered")

		subsCancel = func() {
			for _, c := range cancels {
				c()
			}
		}
	})
	return subsCancel
}

// openThread creates the draft thread under the queue channel; on failure the
// draft runs in the queue channel itself.
func (b *Bot) openThread(channelID string, mode draft.GameMode) string {
	name := fmt.Sprintf("%s draft %s", mode.Label, b.clock.Now().Format("15:04"))
	th, err := b.Sess.ThreadStart(channelID, name, discordgo.ChannelTypeGuildPublicThread, threadArchiveMinutes)
	if err != nil {
		log.Warn().Str("component", "bus").Str("channel", channelID).Err(err).Msg("thread start failed, drafting in channel")
		return channelID
	}
	return th.ID
}

func (b *Bot) onQueueFilled(ev events.QueueFilled) {
	logger := log.With().Str("component", "bus").Str("guild", ev.GuildID).Str("mode", ev.Mode).Logger()

	mode, ok := draft.FindMode(b.Cfg.GameModes, ev.Mode)
	if !ok {
		logger.Error().Msg("queue filled for unknown mode")
		return
	}
	if prev, err := b.Engine.Cancel(b.ctx, ev.GuildID); err == nil {
		logger.Warn().Str("session", prev.ID).Msg("replacing unfinished draft")
		b.dropDraft(prev)
	}

	channelID := ev.ChannelID
	if channelID == "" {
		channelID = b.Cfg.QueueChannelID
	}
	thread := b.openThread(channelID, mode)

	roster := make([]draft.PlayerID, len(ev.Players))
	for k, id := range ev.Players {
		roster[k] = draft.PlayerID(id)
	}
	v, err := b.Engine.Start(b.ctx, draft.StartRequest{
		GuildID:   ev.GuildID,
		ThreadKey: thread,
		Mode:      mode,
		Roster:    roster,
	})
	if err != nil {
		logger.Error().Err(err).Msg("draft start failed")
		_, _ = b.Sess.ChannelMessageSend(channelID, "⚠️ Could not start the draft: "+err.Error())
		return
	}

	_, _ = b.Sess.ChannelMessageSend(thread, fmt.Sprintf(
		"%s\n**%s** is full! Press **Captain** to lead a team; open spots are drawn at random in %s.",
		rosterPing(ev.Players), mode.Label, b.Cfg.CaptainDeadline))
	b.refreshDraftBoard(v)
	b.spawnWatcher(v)
}

func (b *Bot) spawnWatcher(v draft.View) {
	b.watchers.start(b.ctx, v.GuildID, func(ctx context.Context) *draft.Watcher {
		return draft.SpawnAutoResolutionWatcher(ctx, draft.WatcherConfig{
			SessionKey: v.GuildID,
			ThreadKey:  v.ThreadKey,
			Deadline:   b.Cfg.CaptainDeadline,
			Tick:       b.Cfg.CaptainTick,
			Reader:     b.Engine.Store(),
			Announcer:  d.NewChannelAnnouncer(b.Sess, v.ThreadKey),
			Resolver:   b.Engine,
			Clock:      b.clock,
			Describe:   describeDraw,
		})
	})
}

func (b *Bot) onDraftingStarted(ev events.DraftingStarted) {
	v, ok := b.Engine.Store().View(ev.GuildID)
	if !ok || v.ID != ev.SessionID {
		// 2-player drafts complete together with their captains
		return
	}
	b.refreshDraftBoard(v)
	if ev.Auto {
		// the countdown message already says who was drawn
		return
	}
	next := v.CaptainOf(v.Next)
	_, _ = b.Sess.ChannelMessageSend(ev.ThreadKey, fmt.Sprintf(
		"Captains are set: 🔵 %s · 🔴 %s. %s, you pick first.",
		d.Mention(ev.BlueCaptain), d.Mention(ev.RedCaptain), d.Mention(string(next))))
}

func (b *Bot) onDraftReset(ev events.DraftReset) {
	v, ok := b.Engine.Store().View(ev.GuildID)
	if !ok || v.ID != ev.SessionID {
		return
	}
	b.refreshDraftBoard(v)
	if v.Phase == draft.PhaseAwaitingCaptains {
		b.spawnWatcher(v)
	}
}

func (b *Bot) onDraftCompleted(ev events.DraftCompleted) {
	b.finalBoard(ev)

	rec := match.NewRecord(ev.GuildID, ev.Mode, ev.BlueCaptain, ev.RedCaptain, ev.Blue, ev.Red, ev.At)

	ctx, cancel := context.WithTimeout(b.ctx, 5*time.Second)
	defer cancel()
	if err := b.History.SaveMatch(ctx, rec); err != nil {
		log.Error().Str("component", "bus").Str("session", ev.SessionID).Err(err).Msg("save match failed")
		return
	}
	log.Info().Str("component", "bus").Str("guild", ev.GuildID).Str("match", rec.ID).Int("players", rec.Players()).Msg("match recorded")

	_, _ = b.Sess.ChannelMessageSend(ev.ThreadKey, "✅ Teams are locked in. GLHF!")
}

func (b *Bot) finalBoard(ev events.DraftCompleted) {
	if ev.ThreadKey == "" {
		return
	}
	b.publishDraftBoard(completedView(ev))
	d.ForgetBoard(ev.ThreadKey, ui.DraftBoardMarker)
}

// dropDraft releases what an unfinished, discarded draft still holds.
func (b *Bot) dropDraft(v draft.View) {
	b.watchers.stop(v.GuildID)
	if v.ThreadKey != "" {
		d.ForgetBoard(v.ThreadKey, ui.DraftBoardMarker)
	}
}

// completedView rebuilds enough of a finished session for the board; the
// session itself already left the store.
func completedView(ev events.DraftCompleted) draft.View {
	entries := func(ids []string) []draft.Entry {
		out := make([]draft.Entry, len(ids))
		for k, id := range ids {
			out[k] = draft.Entry{Number: k + 1, Player: draft.PlayerID(id)}
		}
		return out
	}
	return draft.View{
		ID:          ev.SessionID,
		GuildID:     ev.GuildID,
		ThreadKey:   ev.ThreadKey,
		Mode:        draft.GameMode{Label: ev.Mode, Capacity: len(ev.Blue) + len(ev.Red)},
		Phase:       draft.PhaseCompleted,
		Next:        draft.Complete,
		Blue:        entries(ev.Blue),
		Red:         entries(ev.Red),
		BlueCaptain: draft.PlayerID(ev.BlueCaptain),
		RedCaptain:  draft.PlayerID(ev.RedCaptain),
	}
}
