// Package slack implements the notify Adapter for Slack direct messages.
package slack

import (
	"context"
	"fmt"
	"sync"

	slackapi "github.com/slack-go/slack"
	"github.com/verdant/drip/internal/notify"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	OpenConversationContext(ctx context.Context, params *slackapi.OpenConversationParameters) (*slackapi.Channel, bool, bool, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Adapter delivers reminders as Slack DMs. The recipient is the
// account's channel ID (a Slack user ID).
type Adapter struct {
	client slackClient

	mu  sync.Mutex
	dms map[string]string // user ID -> opened DM channel ID
}

// AdapterOpts holds parameters for creating a Slack Adapter.
type AdapterOpts struct {
	BotToken string // xoxb-... Slack bot token
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// New creates a Slack Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	a := &Adapter{
		client: opts.Client,
		dms:    map[string]string{},
	}
	if a.client == nil {
		a.client = slackapi.New(opts.BotToken)
	}
	return a, nil
}

// Name implements notify.Adapter.
func (a *Adapter) Name() string { return "slack" }

// Send opens (or reuses) a DM with the recipient and posts the message.
// The returned delivery ID is the Slack message timestamp.
func (a *Adapter) Send(ctx context.Context, msg notify.Message) (string, error) {
	channelID, err := a.dmChannel(ctx, msg.To)
	if err != nil {
		return "", err
	}

	_, ts, err := a.client.PostMessageContext(ctx, channelID, slackapi.MsgOptionText(msg.Body, false))
	if err != nil {
		return "", fmt.Errorf("slack: post message to %s: %w", msg.To, err)
	}
	return ts, nil
}

// dmChannel resolves a user ID to a DM channel, caching open conversations.
func (a *Adapter) dmChannel(ctx context.Context, userID string) (string, error) {
	a.mu.Lock()
	if id, ok := a.dms[userID]; ok {
		a.mu.Unlock()
		return id, nil
	}
	a.mu.Unlock()

	ch, _, _, err := a.client.OpenConversationContext(ctx, &slackapi.OpenConversationParameters{
		Users: []string{userID},
	})
	if err != nil {
		return "", fmt.Errorf("slack: open conversation with %s: %w", userID, err)
	}

	a.mu.Lock()
	a.dms[userID] = ch.ID
	a.mu.Unlock()
	return ch.ID, nil
}
