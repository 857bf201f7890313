package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/jose-valero/pug-draft-bot/internal/draft"
)

// messenger is the part of *discordgo.Session the announcer needs.
type messenger interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ChannelAnnouncer posts draft notices as plain messages in one channel
// (normally the draft thread).
type ChannelAnnouncer struct {
	s         messenger
	channelID string
}

var _ draft.Announcer = (*ChannelAnnouncer)(nil)

func NewChannelAnnouncer(s messenger, channelID string) *ChannelAnnouncer {
	return &ChannelAnnouncer{s: s, channelID: channelID}
}

func (a *ChannelAnnouncer) Post(ctx context.Context, text string) (draft.MessageHandle, error) {
	msg, err := a.s.ChannelMessageSend(a.channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return draft.MessageHandle{}, fmt.Errorf("post to %s: %w", a.channelID, err)
	}
	log.Debug().Str("component", "announcer").Str("channel", a.channelID).Str("message", msg.ID).Msg("posted")
	return draft.MessageHandle{ChannelID: a.channelID, MessageID: msg.ID}, nil
}

func (a *ChannelAnnouncer) Edit(ctx context.Context, h draft.MessageHandle, text string) error {
	channelID := h.ChannelID
	if channelID == "" {
		channelID = a.channelID
	}
	if _, err := a.s.ChannelMessageEdit(channelID, h.MessageID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("edit %s/%s: %w", channelID, h.MessageID, err)
	}
	return nil
}
