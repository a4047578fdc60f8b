package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/gateway"
)

// NoticeRotator keeps exactly one live security notice in the designated
// channel: each rotation deletes the previously recorded message and posts a
// fresh one. The message registry is in memory only, so a restart may leave
// one stale notice behind.
type NoticeRotator struct {
	gateway   gateway.Gateway
	channelID string
	interval  time.Duration
	logger    *zap.Logger

	mu           sync.Mutex
	lastMessages map[string]string
}

// NewNoticeRotator constructs the rotator.
func NewNoticeRotator(gw gateway.Gateway, channelID string, interval time.Duration, logger *zap.Logger) *NoticeRotator {
	return &NoticeRotator{
		gateway:      gw,
		channelID:    channelID,
		interval:     interval,
		logger:       logger,
		lastMessages: make(map[string]string),
	}
}

// Run posts once immediately, then on every interval tick until ctx is done.
func (r *NoticeRotator) Run(ctx context.Context) {
	r.Rotate(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Rotate(ctx)
		}
	}
}

// Rotate performs one rotation: delete the previous notice (tolerating
// "already gone"), post a new one, record its handle.
func (r *NoticeRotator) Rotate(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previousID := r.lastMessages[r.channelID]; previousID != "" {
		if err := r.gateway.DeleteMessage(ctx, r.channelID, previousID); err != nil {
			r.logger.Debug("previous notice already gone",
				zap.String("message_id", previousID),
				zap.Error(err))
		}
	}

	messageID, err := r.gateway.SendMessage(ctx, r.channelID, noticeMessage())
	if err != nil {
		r.logger.Warn("security notice not posted", zap.Error(err))
		return
	}
	r.lastMessages[r.channelID] = messageID
}

func noticeMessage() gateway.OutboundMessage {
	return gateway.OutboundMessage{Embed: &gateway.Embed{
		Title:       "🛡️ Security Notice",
		Description: "**Important:** Staff will __never__ message you first. Beware of scammers in DMs claiming they \"saw your ticket\".",
		Color:       ColorWarning,
		Timestamp:   time.Now().UTC(),
	}}
}
