package discord

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/verdant/drip/internal/notify"
)

type mockSession struct {
	createCalls int
	sent        []string // "channelID:content"
	sendErr     error
}

func (m *mockSession) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	m.createCalls++
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (m *mockSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.sent = append(m.sent, channelID+":"+content)
	return &discordgo.Message{ID: "msg-1"}, nil
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(AdapterOpts{}); err == nil {
		t.Error("expected error for missing bot token")
	}
}

func TestSend(t *testing.T) {
	mock := &mockSession{}
	a, err := New(AdapterOpts{Session: mock})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	id, err := a.Send(context.Background(), notify.Message{To: "u1", Body: "soil check"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if id != "msg-1" {
		t.Errorf("delivery ID = %q", id)
	}
	if len(mock.sent) != 1 || mock.sent[0] != "dm-u1:soil check" {
		t.Errorf("sent = %v", mock.sent)
	}
}

func TestSendReusesDMChannel(t *testing.T) {
	mock := &mockSession{}
	a, _ := New(AdapterOpts{Session: mock})

	for i := 0; i < 3; i++ {
		if _, err := a.Send(context.Background(), notify.Message{To: "u1", Body: "hi"}); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	if mock.createCalls != 1 {
		t.Errorf("expected 1 UserChannelCreate call, got %d", mock.createCalls)
	}
}

func TestSendError(t *testing.T) {
	mock := &mockSession{sendErr: fmt.Errorf("forbidden")}
	a, _ := New(AdapterOpts{Session: mock})

	if _, err := a.Send(context.Background(), notify.Message{To: "u1", Body: "hi"}); err == nil {
		t.Error("expected error from failed send")
	}
}

func TestSendCanceledContext(t *testing.T) {
	a, _ := New(AdapterOpts{Session: &mockSession{}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Send(ctx, notify.Message{To: "u1", Body: "hi"}); err == nil {
		t.Error("expected error from canceled context")
	}
}

func TestAdapterName(t *testing.T) {
	a, _ := New(AdapterOpts{Session: &mockSession{}})
	if a.Name() != "discord" {
		t.Errorf("Name() = %q", a.Name())
	}
}
