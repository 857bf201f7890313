// Voice policy: decide if a user sits in an allowed voice channel before
// joining a queue, with a cache of the last voice channel per member.

package discord

import (
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

type VoicePolicy struct {
	requireToJoin   bool
	categoryIDs     map[string]struct{}
	channelPrefixes []string

	// (guildID:userID) -> last voice channelID
	lastVoice sync.Map
}

func NewVoicePolicy(requireToJoin bool, categoryIDs, channelPrefixes []string) *VoicePolicy {
	p := &VoicePolicy{requireToJoin: requireToJoin, categoryIDs: map[string]struct{}{}}
	for _, id := range categoryIDs {
		if id = strings.TrimSpace(id); id != "" {
			p.categoryIDs[id] = struct{}{}
		}
	}
	for _, pref := range channelPrefixes {
		if pref = strings.ToLower(strings.TrimSpace(pref)); pref != "" {
			p.channelPrefixes = append(p.channelPrefixes, pref)
		}
	}
	return p
}

// RequireToJoin reports whether joins should enforce the policy.
func (p *VoicePolicy) RequireToJoin() bool { return p.requireToJoin }

// TrackVoiceState keeps the last-channel cache fresh. Register it as a
// session handler.
func (p *VoicePolicy) TrackVoiceState(_ *discordgo.Session, ev *discordgo.VoiceStateUpdate) {
	if ev == nil || ev.VoiceState == nil {
		return
	}
	vs := ev.VoiceState
	p.lastVoice.Store(vs.GuildID+":"+vs.UserID, vs.ChannelID)
}

func (p *VoicePolicy) lastChannel(guildID, userID string) (string, bool) {
	v, ok := p.lastVoice.Load(guildID + ":" + userID)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// UserAllowed returns true if the user is currently in an allowed voice channel.
func (p *VoicePolicy) UserAllowed(s *discordgo.Session, guildID, userID string) bool {
	chID, ok := p.lastChannel(guildID, userID)
	if !ok && s.State != nil {
		if vs, err := s.State.VoiceState(guildID, userID); err == nil && vs != nil {
			chID = vs.ChannelID
		}
	}
	if chID == "" {
		return false
	}

	ch, err := s.State.Channel(chID)
	if err != nil || ch == nil {
		ch, _ = s.Channel(chID) // REST fallback
	}
	return p.ChannelAllowed(ch)
}

// ChannelAllowed applies the allow-lists. With none configured every channel
// is allowed.
func (p *VoicePolicy) ChannelAllowed(ch *discordgo.Channel) bool {
	if ch == nil {
		return false
	}
	if len(p.categoryIDs) == 0 && len(p.channelPrefixes) == 0 {
		return true
	}
	name := strings.ToLower(ch.Name)
	for _, pref := range p.channelPrefixes {
		if strings.HasPrefix(name, pref) {
			return true
		}
	}
	_, ok := p.categoryIDs[ch.ParentID]
	return ok && ch.ParentID != ""
}
