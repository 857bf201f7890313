package discord

import (
	"errors"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Boards are the status messages the bot keeps up to date: the queue board in
// the queue channel, the draft board in each draft thread. There is at most one
// board per (channel, marker); the embed title starts with the marker so a
// restarted bot can find its old message.

const unknownMessageCode = 10008

var (
	boardMsgIDs sync.Map // channelID|marker -> messageID
	chLocks     sync.Map // channelID -> *sync.Mutex
)

func boardKey(channelID, marker string) string {
	return channelID + "|" + strings.ToLower(marker)
}

func SetBoardMessageID(channelID, marker, messageID string) {
	if channelID != "" && messageID != "" {
		boardMsgIDs.Store(boardKey(channelID, marker), messageID)
	}
}

func boardMessageID(channelID, marker string) (string, bool) {
	v, ok := boardMsgIDs.Load(boardKey(channelID, marker))
	if !ok {
		return "", false
	}
	return v.(string), true
}

// ForgetBoard drops the remembered board id once a draft is over or replaced.
// The channel lock goes too when no other board of the channel is left.
// Callers forget a board only after its last edit.
func ForgetBoard(channelID, marker string) {
	boardMsgIDs.Delete(boardKey(channelID, marker))
	if !hasBoards(channelID) {
		chLocks.Delete(channelID)
	}
}

func hasBoards(channelID string) bool {
	prefix := channelID + "|"
	found := false
	boardMsgIDs.Range(func(k, _ any) bool {
		found = strings.HasPrefix(k.(string), prefix)
		return !found
	})
	return found
}

func chanLock(channelID string) *sync.Mutex {
	v, _ := chLocks.LoadOrStore(channelID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func looksLikeBoard(m *discordgo.Message, marker string) bool {
	if m == nil || len(m.Embeds) == 0 || marker == "" {
		return false
	}
	return strings.HasPrefix(strings.ToLower(m.Embeds[0].Title), strings.ToLower(marker))
}

// findExistingBoard looks through recent channel history for a board the bot
// posted before.
func findExistingBoard(s *discordgo.Session, channelID, marker string) (string, bool) {
	msgs, err := s.ChannelMessages(channelID, 50, "", "", "")
	if err != nil {
		return "", false
	}
	botID := ""
	if s.State != nil && s.State.User != nil {
		botID = s.State.User.ID
	}
	for _, m := range msgs {
		if botID != "" && (m.Author == nil || m.Author.ID != botID) {
			continue
		}
		if looksLikeBoard(m, marker) {
			return m.ID, true
		}
	}
	return "", false
}

// PublishOrEditBoard keeps one board per channel and marker, serialized by a
// per-channel lock:
//   - remembered id: edit it
//   - otherwise look for an old board in history and edit that
//   - otherwise post a new one and remember it
//
// A board deleted by hand (Unknown Message) is posted again.
func PublishOrEditBoard(s *discordgo.Session, channelID, marker string, emb *discordgo.MessageEmbed, comps []discordgo.MessageComponent) error {
	mu := chanLock(channelID)
	mu.Lock()
	defer mu.Unlock()

	logger := log.With().Str("component", "publisher").Str("channel", channelID).Logger()

	id, ok := boardMessageID(channelID, marker)
	if !ok {
		if id, ok = findExistingBoard(s, channelID, marker); ok {
			logger.Debug().Str("message", id).Msg("rehydrated board")
			SetBoardMessageID(channelID, marker, id)
		}
	}
	if ok {
		err := editBoard(s, channelID, id, emb, comps)
		var re *discordgo.RESTError
		if err == nil || !errors.As(err, &re) || re.Message == nil || re.Message.Code != unknownMessageCode {
			return err
		}
		logger.Info().Str("message", id).Msg("board vanished, posting a new one")
		boardMsgIDs.Delete(boardKey(channelID, marker))
	}

	msg, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{emb},
		Components: comps,
	})
	if err != nil {
		return err
	}
	logger.Debug().Str("message", msg.ID).Msg("board created")
	SetBoardMessageID(channelID, marker, msg.ID)
	return nil
}

func editBoard(s *discordgo.Session, channelID, msgID string, emb *discordgo.MessageEmbed, comps []discordgo.MessageComponent) error {
	embeds := []*discordgo.MessageEmbed{emb}
	if comps == nil {
		comps = []discordgo.MessageComponent{}
	}
	_, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         msgID,
		Embeds:     &embeds,
		Components: &comps,
	})
	return err
}
