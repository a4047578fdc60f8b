package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util"
)

// FeedbackService runs the two-step post-closure survey: a star rating
// prompt over DM, then an optional free-text comment. Sessions live only in
// memory and are lost on restart.
type FeedbackService struct {
	sessions        *bigcache.BigCache
	gateway         gateway.Gateway
	dispatcher      events.Dispatcher
	logger          *zap.Logger
	reviewChannelID string
	maxCommentLen   int
}

// FeedbackDependencies bundles collaborators for the feedback service.
type FeedbackDependencies struct {
	Sessions        *bigcache.BigCache
	Gateway         gateway.Gateway
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
	ReviewChannelID string
	MaxCommentLen   int
}

// NewFeedbackService constructs the service.
func NewFeedbackService(deps FeedbackDependencies) *FeedbackService {
	maxLen := deps.MaxCommentLen
	if maxLen <= 0 {
		maxLen = 500
	}
	return &FeedbackService{
		sessions:        deps.Sessions,
		gateway:         deps.Gateway,
		dispatcher:      deps.Dispatcher,
		logger:          deps.Logger,
		reviewChannelID: deps.ReviewChannelID,
		maxCommentLen:   maxLen,
	}
}

// BeginSurvey DMs the rating prompt and opens a session for the requester.
// Callers treat a failure as best-effort: closure never rolls back because
// the survey could not be delivered.
func (s *FeedbackService) BeginSurvey(ctx context.Context, requesterID, serviceDescription, staffTag string) error {
	prompt := gateway.OutboundMessage{
		Embed: &gateway.Embed{
			Title:       "⭐ Rate Your Experience",
			Description: fmt.Sprintf("How was your experience with **%s**?", serviceDescription),
			Color:       ColorPrimary,
			Timestamp:   time.Now().UTC(),
		},
		Components: []gateway.ActionRow{{Select: &gateway.SelectMenu{
			CustomID:    "vouch_rating",
			Placeholder: "Select rating...",
			Options: []gateway.SelectOption{
				{Label: "5 Stars - Excellent", Value: "vouch_5", Emoji: "⭐"},
				{Label: "4 Stars - Great", Value: "vouch_4", Emoji: "⭐"},
				{Label: "3 Stars - Good", Value: "vouch_3", Emoji: "⭐"},
				{Label: "2 Stars - Fair", Value: "vouch_2", Emoji: "⭐"},
				{Label: "1 Star - Poor", Value: "vouch_1", Emoji: "⭐"},
			},
		}}},
	}

	messageID, err := s.gateway.SendDirect(ctx, requesterID, prompt)
	if err != nil {
		return apperrors.NewDeliveryError("survey prompt", err)
	}

	session := domain.FeedbackSession{
		ServiceDescription: serviceDescription,
		StaffTag:           staffTag,
		PromptMessageID:    messageID,
	}
	return s.saveSession(requesterID, session)
}

// RecordRating stores the chosen rating on the pending session. Reports
// whether a session accepted the rating; no session or an out-of-range
// rating is a no-op.
func (s *FeedbackService) RecordRating(ctx context.Context, requesterID string, rating int) (bool, error) {
	if rating < 1 || rating > 5 {
		return false, nil
	}
	session, ok, err := s.loadSession(requesterID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	session.Rating = rating
	if err := s.saveSession(requesterID, session); err != nil {
		return false, err
	}
	return true, nil
}

// SubmitComment consumes the session and publishes the completed review.
// Requires a rating already recorded; otherwise a no-op. The session is
// deleted regardless of delivery outcome, so a second submission does
// nothing.
func (s *FeedbackService) SubmitComment(ctx context.Context, requesterID, requesterTag, comment string) (bool, error) {
	session, ok, err := s.loadSession(requesterID)
	if err != nil {
		return false, err
	}
	if !ok || !session.Rated() {
		return false, nil
	}

	if runes := []rune(comment); len(runes) > s.maxCommentLen {
		comment = string(runes[:s.maxCommentLen])
	}

	_ = s.sessions.Delete(requesterID)

	review := gateway.OutboundMessage{Embed: &gateway.Embed{
		Title: "Customer Review",
		Description: fmt.Sprintf("**Rating:** %d/5 %s\n**Service:** %s",
			session.Rating, Stars(session.Rating), session.ServiceDescription),
		Color: RatingColor(session.Rating),
		Fields: []gateway.EmbedField{
			{Name: "User", Value: requesterTag, Inline: true},
			{Name: "Handled By", Value: session.StaffTag, Inline: true},
		},
		Timestamp: time.Now().UTC(),
	}}
	if comment != "" {
		review.Embed.Fields = append(review.Embed.Fields, gateway.EmbedField{Name: "Comment", Value: comment})
	}

	if _, err := s.gateway.SendMessage(ctx, s.reviewChannelID, review); err != nil {
		s.logger.Warn("review not delivered",
			zap.String("requester_id", requesterID),
			zap.Error(apperrors.NewDeliveryError("review", err)))
		return true, nil
	}

	s.publish(ctx, events.Event{
		Type: events.EventReviewPublished,
		Payload: events.ReviewPublishedPayload{
			RequesterID: requesterID,
			Rating:      session.Rating,
			HasComment:  comment != "",
		},
	})
	return true, nil
}

// HasSession reports whether the requester has a pending survey.
func (s *FeedbackService) HasSession(requesterID string) bool {
	_, ok, err := s.loadSession(requesterID)
	return err == nil && ok
}

func (s *FeedbackService) loadSession(requesterID string) (domain.FeedbackSession, bool, error) {
	var session domain.FeedbackSession
	data, err := s.sessions.Get(requesterID)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return session, false, nil
	}
	if err != nil {
		return session, false, err
	}
	if err := json.Unmarshal(data, &session); err != nil {
		return session, false, err
	}
	return session, true, nil
}

func (s *FeedbackService) saveSession(requesterID string, session domain.FeedbackSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.sessions.Set(requesterID, data)
}

func (s *FeedbackService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
