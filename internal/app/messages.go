package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	d "github.com/jose-valero/pug-draft-bot/internal/adapters/discord"
	"github.com/jose-valero/pug-draft-bot/internal/draft"
	"github.com/jose-valero/pug-draft-bot/internal/queue"
)

// userMessage turns engine and queue errors into chat replies.
func userMessage(err error) string {
	var filled *draft.CaptainSpotsFilledError
	switch {
	case errors.As(err, &filled):
		return fmt.Sprintf("Both captains are set: 🔵 %s, 🔴 %s.", d.Mention(string(filled.Blue)), d.Mention(string(filled.Red)))
	case errors.Is(err, draft.ErrSessionNotFound):
		return "⚠️ No draft in progress."
	case errors.Is(err, draft.ErrStaleSession):
		return "⚠️ This board belongs to an older draft."
	case errors.Is(err, draft.ErrForeignUser):
		return "⚠️ That player is not part of this draft."
	case errors.Is(err, draft.ErrIsCaptainAlready):
		return "Already a captain."
	case errors.Is(err, draft.ErrInvalidPlayerNumber):
		return "⚠️ No available player has that number."
	case errors.Is(err, draft.ErrNotYourTurn):
		return "⏳ Only the captain on the clock can pick."
	case errors.Is(err, draft.ErrAwaitingCaptains):
		return "⏳ Captains have not been chosen yet."
	case errors.Is(err, draft.ErrPlayersExhausted):
		return "The draft is already complete."
	case errors.Is(err, draft.ErrNoCandidates):
		return "⚠️ Nobody left who can be drawn as captain."
	case errors.Is(err, draft.ErrHistoryInvariant), errors.Is(err, draft.ErrPickSequenceInvariant):
		return "⚠️ This draft is in a broken state. Requeue to start over."
	case errors.Is(err, queue.ErrAlreadyIn):
		return "You're already in a queue."
	case errors.Is(err, queue.ErrNotIn):
		return "⚠️ You're not in any queue."
	case errors.Is(err, queue.ErrNotFound):
		return "⚠️ Unknown game mode."
	}
	return "⚠️ " + err.Error()
}

// actorMention names whoever triggered an interaction.
func actorMention(u *discordgo.User) string {
	if u == nil {
		return "an admin"
	}
	return d.Mention(u.ID)
}

// describeReset words the reset after the fact: under the history-only policy
// captains and teams survive it.
func describeReset(v draft.View, u *discordgo.User) string {
	if v.Phase == draft.PhaseAwaitingCaptains {
		return fmt.Sprintf("♻️ Draft reset by %s. Captains are open again.", actorMention(u))
	}
	return fmt.Sprintf("♻️ Pick history cleared by %s. Captains and teams are kept.", actorMention(u))
}

func teamIcon(t draft.Team) string {
	if t == draft.Red {
		return "🔴"
	}
	return "🔵"
}

func describeAssigned(as []draft.Assignment) string {
	if len(as) == 0 {
		return "No captain assigned."
	}
	parts := make([]string, len(as))
	for k, a := range as {
		parts[k] = fmt.Sprintf("%s %s", teamIcon(a.Team), d.Mention(string(a.Player)))
	}
	return "🎖️ Captain: " + strings.Join(parts, ", ")
}

func describePicks(picks []draft.PickAction) string {
	lines := make([]string, 0, len(picks))
	for _, p := range picks {
		switch {
		case p.Kind == draft.PickCaptain:
			lines = append(lines, fmt.Sprintf("%s %s is captain.", teamIcon(p.Team), d.Mention(string(p.Player))))
		case p.Auto:
			lines = append(lines, fmt.Sprintf("%s %s (#%d) is the last one left.", teamIcon(p.Team), d.Mention(string(p.Player)), p.Number))
		default:
			lines = append(lines, fmt.Sprintf("%s picks %s (#%d).", teamIcon(p.Team), d.Mention(string(p.Player)), p.Number))
		}
	}
	return strings.Join(lines, "\n")
}

// describeDraw is the text the countdown leaves behind once it fired.
func describeDraw(out draft.CaptainOutcome, err error) string {
	if err != nil {
		return "⚠️ Could not draw captains: " + err.Error()
	}
	v := out.View
	msg := fmt.Sprintf("🎲 Captains drawn: 🔵 %s · 🔴 %s.", d.Mention(string(v.BlueCaptain)), d.Mention(string(v.RedCaptain)))
	if next := v.CaptainOf(v.Next); next != "" {
		msg += fmt.Sprintf(" %s picks first.", d.Mention(string(next)))
	}
	return msg
}

func rosterPing(ids []string) string {
	parts := make([]string, len(ids))
	for k, id := range ids {
		parts[k] = d.Mention(id)
	}
	return strings.Join(parts, " ")
}
