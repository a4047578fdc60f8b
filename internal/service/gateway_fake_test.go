package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spec-kit/ticket-bot/internal/gateway"
)

type sentMessage struct {
	target string
	msg    gateway.OutboundMessage
}

// fakeGateway records every outbound call and lets tests force failures on
// individual operations.
type fakeGateway struct {
	mu              sync.Mutex
	nextID          int
	channels        map[string]bool
	messages        []sentMessage
	directs         []sentMessage
	deletedMessages []string
	deletedChannels []string
	history         []gateway.Message

	failCreateChannel bool
	failDirect        bool
	failSendTo        map[string]bool
	failDeleteMessage bool
	failFetch         bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		channels:   make(map[string]bool),
		failSendTo: make(map[string]bool),
	}
}

func (g *fakeGateway) id(prefix string) string {
	g.nextID++
	return fmt.Sprintf("%s-%d", prefix, g.nextID)
}

func (g *fakeGateway) SendMessage(ctx context.Context, channelID string, msg gateway.OutboundMessage) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSendTo[channelID] {
		return "", errors.New("send failed")
	}
	g.messages = append(g.messages, sentMessage{target: channelID, msg: msg})
	return g.id("msg"), nil
}

func (g *fakeGateway) SendDirect(ctx context.Context, userID string, msg gateway.OutboundMessage) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failDirect {
		return "", errors.New("user does not accept DMs")
	}
	g.directs = append(g.directs, sentMessage{target: userID, msg: msg})
	return g.id("dm"), nil
}

func (g *fakeGateway) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failDeleteMessage {
		return errors.New("message already gone")
	}
	g.deletedMessages = append(g.deletedMessages, messageID)
	return nil
}

func (g *fakeGateway) CreateChannel(ctx context.Context, req gateway.ChannelCreate) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failCreateChannel {
		return "", errors.New("channel quota exceeded")
	}
	channelID := g.id("chan")
	g.channels[channelID] = true
	return channelID, nil
}

func (g *fakeGateway) DeleteChannel(ctx context.Context, channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.channels, channelID)
	g.deletedChannels = append(g.deletedChannels, channelID)
	return nil
}

func (g *fakeGateway) ChannelReachable(ctx context.Context, channelID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.channels[channelID]
}

func (g *fakeGateway) FetchMessages(ctx context.Context, channelID string, limit int) ([]gateway.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failFetch {
		return nil, errors.New("history unavailable")
	}
	if len(g.history) > limit {
		return append([]gateway.Message{}, g.history[:limit]...), nil
	}
	return append([]gateway.Message{}, g.history...), nil
}

func (g *fakeGateway) Ping(ctx context.Context) (time.Duration, error) {
	return time.Millisecond, nil
}

func (g *fakeGateway) dropChannel(channelID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.channels, channelID)
}

func (g *fakeGateway) messagesTo(channelID string) []gateway.OutboundMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []gateway.OutboundMessage
	for _, sent := range g.messages {
		if sent.target == channelID {
			out = append(out, sent.msg)
		}
	}
	return out
}

func (g *fakeGateway) directsTo(userID string) []gateway.OutboundMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []gateway.OutboundMessage
	for _, sent := range g.directs {
		if sent.target == userID {
			out = append(out, sent.msg)
		}
	}
	return out
}

func (g *fakeGateway) channelDeleted(channelID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range g.deletedChannels {
		if id == channelID {
			return true
		}
	}
	return false
}
