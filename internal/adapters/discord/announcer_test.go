package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/pug-draft-bot/internal/draft"
)

type fakeMessenger struct {
	sent    []string
	edited  map[string]string
	sendErr error
}

func (f *fakeMessenger) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, content)
	return &discordgo.Message{ID: "m1", ChannelID: channelID, Content: content}, nil
}

func (f *fakeMessenger) ChannelMessageEdit(channelID, messageID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.edited == nil {
		f.edited = map[string]string{}
	}
	f.edited[channelID+"/"+messageID] = content
	return &discordgo.Message{ID: messageID, ChannelID: channelID, Content: content}, nil
}

func TestChannelAnnouncer_PostThenEdit(t *testing.T) {
	fm := &fakeMessenger{}
	a := NewChannelAnnouncer(fm, "thread-1")

	h, err := a.Post(context.Background(), "drawing...")
	if err != nil {
		t.Fatal(err)
	}
	if h != (draft.MessageHandle{ChannelID: "thread-1", MessageID: "m1"}) {
		t.Fatalf("unexpected handle %+v", h)
	}
	if err := a.Edit(context.Background(), h, "done"); err != nil {
		t.Fatal(err)
	}
	if got := fm.edited["thread-1/m1"]; got != "done" {
		t.Fatalf("edit content = %q", got)
	}

	// a handle without channel falls back to the announcer's channel
	if err := a.Edit(context.Background(), draft.MessageHandle{MessageID: "m9"}, "x"); err != nil {
		t.Fatal(err)
	}
	if _, ok := fm.edited["thread-1/m9"]; !ok {
		t.Fatalf("expected edit in thread-1, got %v", fm.edited)
	}
}

func TestChannelAnnouncer_PostError(t *testing.T) {
	boom := errors.New("missing access")
	a := NewChannelAnnouncer(&fakeMessenger{sendErr: boom}, "c")
	if _, err := a.Post(context.Background(), "hi"); !errors.Is(err, boom) {
		t.Fatalf("want wrapped error, got %v", err)
	}
}
