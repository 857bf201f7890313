package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	disc "github.com/jose-valero/pug-draft-bot/internal/adapters/discord"
	"github.com/jose-valero/pug-draft-bot/internal/domain/match"
	"github.com/jose-valero/pug-draft-bot/internal/draft"
	"github.com/jose-valero/pug-draft-bot/internal/queue"
	"github.com/jose-valero/pug-draft-bot/pkg/config"
)

// History is where finished drafts and captain opt-outs live.
type History interface {
	draft.OptOutSource
	SaveMatch(ctx context.Context, rec match.Record) error
	RecentMatches(ctx context.Context, guildID string, limit int) ([]match.Record, error)
	SetOptOut(ctx context.Context, guildID, userID string, enabled bool) error
}

type Bot struct {
	Sess    *discordgo.Session
	Cfg     *config.Config
	Engine  *draft.Engine
	Queues  *queue.Manager
	History History

	priv  *disc.Privileges
	voice *disc.VoicePolicy
	clock clockwork.Clock

	ctx       context.Context
	cancelBus func()
	watchers  *watcherSet
	names     sync.Map // userID -> display name
}

func NewBot(ctx context.Context, s *discordgo.Session, cfg *config.Config, history History) *Bot {
	clk := clockwork.NewRealClock()
	return &Bot{
		Sess:    s,
		Cfg:     cfg,
		Queues:  queue.NewManager(),
		History: history,
		Engine: draft.NewEngine(draft.EngineConfig{
			Clock:       clk,
			OptOuts:     history,
			ResetPolicy: cfg.ResetPolicy,
		}),
		priv:     disc.NewPrivileges(cfg.AdminRoleIDs),
		voice:    disc.NewVoicePolicy(cfg.VoiceRequireToJoin, cfg.VoiceAllowedCategoryIDs, cfg.VoiceAllowedChannelPrefixes),
		clock:    clk,
		ctx:      ctx,
		watchers: newWatcherSet(),
	}
}

func (b *Bot) RegisterHandlers() error {
	// 1) one queue per configured game mode
	for _, m := range b.Cfg.GameModes {
		if _, err := b.Queues.EnsureQueue(b.Cfg.GuildID, m.Label, m.Capacity); err != nil {
			return fmt.Errorf("queue %s: %w", m.Label, err)
		}
	}

	// 2) voice tracking for VOICE_REQUIRE_TO_JOIN
	b.Sess.AddHandler(b.voice.TrackVoiceState)

	// 3) interactions (slash/buttons/selects)
	b.Sess.AddHandler(b.HandleInteraction)

	// 4) board once the gateway is up
	b.Sess.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info().Str("component", "app").Str("user", r.User.Username).Msg("gateway ready")
		b.refreshQueueBoard(b.Cfg.GuildID)
	})

	// 5) bus subscribers drive drafts from queue pops to match history
	b.cancelBus = b.StartEventSubscribers()

	// 6) register/update slash commands
	return RegisterCommands(b.Sess, b.Cfg.AppID, b.Cfg.GuildID, b.Cfg.GameModes)
}

// Stop unsubscribes from the bus and stops every countdown.
func (b *Bot) Stop() {
	if b.cancelBus != nil {
		b.cancelBus()
	}
	b.watchers.stopAll()
}

func (b *Bot) rememberName(u *discordgo.User) {
	if u != nil {
		b.names.Store(u.ID, disc.SafeName(u))
	}
}

// displayName falls back to the raw id for players the bot never saw.
func (b *Bot) displayName(userID string) string {
	if v, ok := b.names.Load(userID); ok {
		return v.(string)
	}
	return userID
}
