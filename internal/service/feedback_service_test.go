package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/persistence"
)

func newFeedbackEnv(t *testing.T) (*FeedbackService, *fakeGateway) {
	t.Helper()
	sessions, err := persistence.NewSessionCache()
	require.NoError(t, err)
	gw := newFakeGateway()
	svc := NewFeedbackService(FeedbackDependencies{
		Sessions:        sessions,
		Gateway:         gw,
		Logger:          zap.NewNop(),
		ReviewChannelID: reviewChannel,
		MaxCommentLen:   500,
	})
	return svc, gw
}

func TestBeginSurveySendsRatingPrompt(t *testing.T) {
	svc, gw := newFeedbackEnv(t)

	require.NoError(t, svc.BeginSurvey(context.Background(), "alice", "Buying Services", "staff#1"))

	dms := gw.directsTo("alice")
	require.Len(t, dms, 1)
	require.NotNil(t, dms[0].Components[0].Select)
	require.Equal(t, "vouch_rating", dms[0].Components[0].Select.CustomID)
	require.Len(t, dms[0].Components[0].Select.Options, 5)
	require.True(t, svc.HasSession("alice"))
}

func TestBeginSurveyDeliveryFailure(t *testing.T) {
	svc, gw := newFeedbackEnv(t)
	gw.failDirect = true

	err := svc.BeginSurvey(context.Background(), "alice", "Buying Services", "staff#1")
	require.Error(t, err)
	require.False(t, svc.HasSession("alice"))
}

func TestRecordRatingWithoutSessionIsNoOp(t *testing.T) {
	svc, _ := newFeedbackEnv(t)

	accepted, err := svc.RecordRating(context.Background(), "alice", 4)
	require.NoError(t, err)
	require.False(t, accepted)
}

func TestRecordRatingRejectsOutOfRange(t *testing.T) {
	svc, _ := newFeedbackEnv(t)
	require.NoError(t, svc.BeginSurvey(context.Background(), "alice", "Buying Services", "staff#1"))

	for _, rating := range []int{0, 6, -1} {
		accepted, err := svc.RecordRating(context.Background(), "alice", rating)
		require.NoError(t, err)
		require.False(t, accepted)
	}
}

func TestSubmitCommentWithoutRatingIsNoOp(t *testing.T) {
	svc, gw := newFeedbackEnv(t)
	require.NoError(t, svc.BeginSurvey(context.Background(), "alice", "Buying Services", "staff#1"))

	submitted, err := svc.SubmitComment(context.Background(), "alice", "alice#1", "too soon")
	require.NoError(t, err)
	require.False(t, submitted)
	require.Empty(t, gw.messagesTo(reviewChannel))
}

func TestSubmitCommentPublishesReviewOnce(t *testing.T) {
	svc, gw := newFeedbackEnv(t)
	ctx := context.Background()
	require.NoError(t, svc.BeginSurvey(ctx, "alice", "Buying Services", "staff#1"))

	accepted, err := svc.RecordRating(ctx, "alice", 2)
	require.NoError(t, err)
	require.True(t, accepted)

	submitted, err := svc.SubmitComment(ctx, "alice", "alice#1", "slow response")
	require.NoError(t, err)
	require.True(t, submitted)

	reviews := gw.messagesTo(reviewChannel)
	require.Len(t, reviews, 1)
	require.Contains(t, reviews[0].Embed.Description, "2/5 ★★☆☆☆")
	require.Equal(t, ColorError, reviews[0].Embed.Color)

	// The session was consumed; a second submission does nothing.
	submitted, err = svc.SubmitComment(ctx, "alice", "alice#1", "again")
	require.NoError(t, err)
	require.False(t, submitted)
	require.Len(t, gw.messagesTo(reviewChannel), 1)
}

func TestSubmitCommentTruncatesLongComment(t *testing.T) {
	svc, gw := newFeedbackEnv(t)
	ctx := context.Background()
	require.NoError(t, svc.BeginSurvey(ctx, "alice", "Buying Services", "staff#1"))
	_, err := svc.RecordRating(ctx, "alice", 5)
	require.NoError(t, err)

	long := strings.Repeat("x", 600)
	submitted, err := svc.SubmitComment(ctx, "alice", "alice#1", long)
	require.NoError(t, err)
	require.True(t, submitted)

	reviews := gw.messagesTo(reviewChannel)
	require.Len(t, reviews, 1)
	comment := reviews[0].Embed.Fields[len(reviews[0].Embed.Fields)-1]
	require.Equal(t, "Comment", comment.Name)
	require.Len(t, comment.Value, 500)
}

func TestStars(t *testing.T) {
	require.Equal(t, "★★★★★", Stars(5))
	require.Equal(t, "★★★☆☆", Stars(3))
	require.Equal(t, "☆☆☆☆☆", Stars(0))
}
