// Package discord implements the notify Adapter for Discord direct messages.
package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/verdant/drip/internal/notify"
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// realSession wraps *discordgo.Session to implement the session interface.
type realSession struct {
	s *discordgo.Session
}

func (r *realSession) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return r.s.UserChannelCreate(recipientID, options...)
}
func (r *realSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSend(channelID, content, options...)
}

// Adapter delivers reminders as Discord DMs. The recipient is the
// account's channel ID (a Discord user ID).
type Adapter struct {
	sess session

	mu  sync.Mutex
	dms map[string]string // user ID -> DM channel ID
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken string
	// For testing: inject a mock session instead of the real Gateway.
	Session session
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	a := &Adapter{
		sess: opts.Session,
		dms:  map[string]string{},
	}
	if a.sess == nil {
		dg, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		a.sess = &realSession{s: dg}
	}
	return a, nil
}

// Name implements notify.Adapter.
func (a *Adapter) Name() string { return "discord" }

// Send opens (or reuses) a DM channel to the recipient and sends the
// message. The returned delivery ID is the Discord message ID.
func (a *Adapter) Send(ctx context.Context, msg notify.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("discord: send canceled: %w", err)
	}

	channelID, err := a.dmChannel(msg.To)
	if err != nil {
		return "", err
	}

	m, err := a.sess.ChannelMessageSend(channelID, msg.Body)
	if err != nil {
		return "", fmt.Errorf("discord: send to %s: %w", msg.To, err)
	}
	return m.ID, nil
}

// dmChannel resolves a user ID to a DM channel, caching created channels.
func (a *Adapter) dmChannel(userID string) (string, error) {
	a.mu.Lock()
	if id, ok := a.dms[userID]; ok {
		a.mu.Unlock()
		return id, nil
	}
	a.mu.Unlock()

	ch, err := a.sess.UserChannelCreate(userID)
	if err != nil {
		return "", fmt.Errorf("discord: open DM with %s: %w", userID, err)
	}

	a.mu.Lock()
	a.dms[userID] = ch.ID
	a.mu.Unlock()
	return ch.ID, nil
}
