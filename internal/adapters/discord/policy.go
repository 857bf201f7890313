// internal/adapters/discord/policy.go
// Minimal privilege check based on configured admin roles or Administrator permission.

package discord

import (
	"github.com/bwmarrin/discordgo"
)

// Privileges decides who may run admin actions such as /resetdraft.
type Privileges struct {
	roles map[string]struct{}
}

func NewPrivileges(roleIDs []string) *Privileges {
	p := &Privileges{roles: make(map[string]struct{}, len(roleIDs))}
	for _, id := range roleIDs {
		if id != "" {
			p.roles[id] = struct{}{}
		}
	}
	return p
}

// IsPrivileged returns true if the member has Administrator or one of the admin roles.
func (p *Privileges) IsPrivileged(i *discordgo.InteractionCreate) bool {
	if i == nil || i.Member == nil {
		return false
	}
	if i.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	for _, r := range i.Member.Roles {
		if _, ok := p.roles[r]; ok {
			return true
		}
	}
	return false
}

// RequirePrivileged replies ephemeral and returns false if not privileged.
func (p *Privileges) RequirePrivileged(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if p.IsPrivileged(i) {
		return true
	}
	_ = SendEphemeral(s, i, "⛔ You don't have permission for this action.")
	return false
}
