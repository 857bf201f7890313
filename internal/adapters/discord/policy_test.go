package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestPrivileges(t *testing.T) {
	p := NewPrivileges([]string{"mods", ""})

	cases := []struct {
		name string
		i    *discordgo.InteractionCreate
		want bool
	}{
		{"dm", &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}}, false},
		{"plain member", withMember(&discordgo.Member{Roles: []string{"players"}}), false},
		{"admin role", withMember(&discordgo.Member{Roles: []string{"players", "mods"}}), true},
		{"administrator", withMember(&discordgo.Member{Permissions: discordgo.PermissionAdministrator}), true},
	}
	for _, tc := range cases {
		if got := p.IsPrivileged(tc.i); got != tc.want {
			t.Errorf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func withMember(m *discordgo.Member) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Member: m}}
}
