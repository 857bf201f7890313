package ui

import (
	"fmt"
	"strings"
	"time"
)

// Board title markers; the publisher finds old boards by these prefixes.
const (
	QueueBoardMarker = "PUG Queues"
	DraftBoardMarker = "PUG Draft"
)

// NameFunc resolves a user id to a display name.
type NameFunc func(userID string) string

func mention(id string) string { return "<@" + id + ">" }

func draftTitle(mode string) string {
	return fmt.Sprintf("%s · %s", DraftBoardMarker, mode)
}

// humanize how long ago something happened
func humanSince(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := now.Sub(t)
	if d < time.Minute {
		return "just now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	}
	if d < 48*time.Hour {
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return t.Format("Jan 2")
}

// fallback to falsy data
func safe(s string) string {
	t := strings.TrimSpace(s)
	if t == "" || t == "-" {
		return "—"
	}
	return t
}

func bulletList(team []string, max int) string {
	if len(team) == 0 {
		return "—"
	}
	if max > 0 && len(team) > max {
		team = team[:max]
	}
	var b strings.Builder
	for _, p := range team {
		fmt.Fprintf(&b, "• %s\n", p)
	}
	return strings.TrimRight(b.String(), "\n")
}

func quoteBlock(s string) string {
	if s == "" {
		return "> —"
	}
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = "> " + lines[i]
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
