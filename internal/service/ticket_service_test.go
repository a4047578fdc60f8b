package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/config"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/persistence"
	"github.com/spec-kit/ticket-bot/internal/repository"
	apperrors "github.com/spec-kit/ticket-bot/pkg/util"
)

const (
	transcriptChannel = "transcripts"
	reviewChannel     = "reviews"
)

type ticketEnv struct {
	store    *persistence.DocumentStore
	repo     repository.TicketRepository
	gw       *fakeGateway
	tickets  *TicketService
	feedback *FeedbackService
}

func newTicketEnv(t *testing.T) *ticketEnv {
	t.Helper()

	store, err := persistence.OpenDocumentStore(config.StoreConfig{
		Path: filepath.Join(t.TempDir(), "tickets.json"),
	}, zap.NewNop())
	require.NoError(t, err)

	sessions, err := persistence.NewSessionCache()
	require.NoError(t, err)

	gw := newFakeGateway()
	logger := zap.NewNop()
	dispatcher := events.NewInMemoryDispatcher()
	repo := repository.NewTicketRepository(store)

	feedback := NewFeedbackService(FeedbackDependencies{
		Sessions:        sessions,
		Gateway:         gw,
		Dispatcher:      dispatcher,
		Logger:          logger,
		ReviewChannelID: reviewChannel,
	})
	tickets := NewTicketService(TicketDependencies{
		TicketRepo:  repo,
		Gateway:     gw,
		Transcripts: NewTranscriptService(gw, transcriptChannel, 100, logger),
		Feedback:    feedback,
		Dispatcher:  dispatcher,
		Logger:      logger,
		Workspace: config.WorkspaceConfig{
			AdminRoleID:         "admin-role",
			TicketCategoryID:    "ticket-category",
			TranscriptChannelID: transcriptChannel,
			ReviewChannelID:     reviewChannel,
		},
		CloseGrace: 0,
	})

	return &ticketEnv{store: store, repo: repo, gw: gw, tickets: tickets, feedback: feedback}
}

func TestOpenAssignsSequentialNumbers(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	first, err := env.tickets.Open(ctx, OpenRequest{RequesterID: "alice", RequesterTag: "alice#1", ServiceType: "services", Description: "Buying Services"})
	require.NoError(t, err)
	require.Equal(t, 1, first.Number)
	require.True(t, first.Open)

	second, err := env.tickets.Open(ctx, OpenRequest{RequesterID: "bob", RequesterTag: "bob#2", ServiceType: "buy-limiteds", Description: "Buying Limiteds"})
	require.NoError(t, err)
	require.Equal(t, 2, second.Number)

	// The intro message lands in the new channel with a close affordance.
	intro := env.gw.messagesTo(first.ChannelID)
	require.Len(t, intro, 1)
	require.Len(t, intro[0].Components, 1)
	require.Equal(t, "close_ticket", intro[0].Components[0].Buttons[0].CustomID)
}

func TestOpenConflictLeavesStoreUntouched(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	_, err := env.tickets.Open(ctx, OpenRequest{RequesterID: "alice", RequesterTag: "alice#1", ServiceType: "services", Description: "Buying Services"})
	require.NoError(t, err)

	before, err := env.store.Raw()
	require.NoError(t, err)

	_, err = env.tickets.Open(ctx, OpenRequest{RequesterID: "alice", RequesterTag: "alice#1", ServiceType: "services", Description: "Buying Services"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "CONFLICT"))

	after, err := env.store.Raw()
	require.NoError(t, err)
	require.Equal(t, before, after)

	counter, err := env.repo.Counter()
	require.NoError(t, err)
	require.Equal(t, 1, counter)
}

func TestOpenLeavesCounterGapAfterFailedProvisioning(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	_, err := env.tickets.Open(ctx, OpenRequest{RequesterID: "alice", RequesterTag: "alice#1", ServiceType: "services", Description: "Buying Services"})
	require.NoError(t, err)

	env.gw.failCreateChannel = true
	_, err = env.tickets.Open(ctx, OpenRequest{RequesterID: "bob", RequesterTag: "bob#2", ServiceType: "services", Description: "Buying Services"})
	require.Error(t, err)

	// Number 2 is burned; the next successful creation gets 3.
	env.gw.failCreateChannel = false
	ticket, err := env.tickets.Open(ctx, OpenRequest{RequesterID: "bob", RequesterTag: "bob#2", ServiceType: "services", Description: "Buying Services"})
	require.NoError(t, err)
	require.Equal(t, 3, ticket.Number)
}

func TestOpenHealsRecordWithUnreachableChannel(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	stale, err := env.tickets.Open(ctx, OpenRequest{RequesterID: "alice", RequesterTag: "alice#1", ServiceType: "services", Description: "Buying Services"})
	require.NoError(t, err)

	// Channel vanished without the record being closed.
	env.gw.dropChannel(stale.ChannelID)

	fresh, err := env.tickets.Open(ctx, OpenRequest{RequesterID: "alice", RequesterTag: "alice#1", ServiceType: "services", Description: "Buying Services"})
	require.NoError(t, err)
	require.Equal(t, 2, fresh.Number)

	all, err := env.repo.ListByRequester("alice")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.False(t, all[0].Open)
	require.Equal(t, "system", all[0].ClosedBy)
	require.True(t, all[1].Open)
}

func TestCloseUnknownChannelIsNoOp(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	_, err := env.tickets.Open(ctx, OpenRequest{RequesterID: "alice", RequesterTag: "alice#1", ServiceType: "services", Description: "Buying Services"})
	require.NoError(t, err)

	before, err := env.store.Raw()
	require.NoError(t, err)

	require.NoError(t, env.tickets.Close(ctx, "no-such-channel", "staff#1"))

	after, err := env.store.Raw()
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Empty(t, env.gw.messagesTo(transcriptChannel))
}

func TestTicketLifecycle(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	ticketA, err := env.tickets.Open(ctx, OpenRequest{RequesterID: "alice", RequesterTag: "alice#1", ServiceType: "services", Description: "Buying Services"})
	require.NoError(t, err)
	require.Equal(t, 1, ticketA.Number)

	ticketB, err := env.tickets.Open(ctx, OpenRequest{RequesterID: "bob", RequesterTag: "bob#2", ServiceType: "buy-dahood", Description: "Buying DaHood Skins"})
	require.NoError(t, err)
	require.Equal(t, 2, ticketB.Number)

	require.NoError(t, env.tickets.Close(ctx, ticketA.ChannelID, "staff#1"))

	// Transcript was archived before the record flipped.
	archived := env.gw.messagesTo(transcriptChannel)
	require.Len(t, archived, 1)
	require.NotNil(t, archived[0].File)
	require.Equal(t, "ticket-1.txt", archived[0].File.Name)

	// The survey DM reached alice.
	require.Len(t, env.gw.directsTo("alice"), 1)

	// The record is closed and attributed.
	open, err := env.repo.OpenByRequester("alice")
	require.NoError(t, err)
	require.Nil(t, open)
	all, err := env.repo.ListByRequester("alice")
	require.NoError(t, err)
	require.Equal(t, "staff#1", all[0].ClosedBy)
	require.NotNil(t, all[0].ClosedAt)

	// Bob is untouched.
	openB, err := env.repo.OpenByRequester("bob")
	require.NoError(t, err)
	require.NotNil(t, openB)

	// Alice completes the survey.
	accepted, err := env.feedback.RecordRating(ctx, "alice", 5)
	require.NoError(t, err)
	require.True(t, accepted)
	submitted, err := env.feedback.SubmitComment(ctx, "alice", "alice#1", "great")
	require.NoError(t, err)
	require.True(t, submitted)

	reviews := env.gw.messagesTo(reviewChannel)
	require.Len(t, reviews, 1)
	require.Contains(t, reviews[0].Embed.Description, "5/5 ★★★★★")
	require.Equal(t, "Comment", reviews[0].Embed.Fields[len(reviews[0].Embed.Fields)-1].Name)
	require.Equal(t, "great", reviews[0].Embed.Fields[len(reviews[0].Embed.Fields)-1].Value)

	// The channel is deleted after the grace period.
	require.Eventually(t, func() bool {
		return env.gw.channelDeleted(ticketA.ChannelID)
	}, 2*time.Second, 10*time.Millisecond)

	// With no open ticket left, alice can open a new one.
	reopened, err := env.tickets.Open(ctx, OpenRequest{RequesterID: "alice", RequesterTag: "alice#1", ServiceType: "services", Description: "Buying Services"})
	require.NoError(t, err)
	require.Equal(t, 3, reopened.Number)
}

func TestCloseSurvivesBestEffortFailures(t *testing.T) {
	env := newTicketEnv(t)
	ctx := context.Background()

	ticket, err := env.tickets.Open(ctx, OpenRequest{RequesterID: "alice", RequesterTag: "alice#1", ServiceType: "services", Description: "Buying Services"})
	require.NoError(t, err)

	// DMs disabled and history unavailable: the close still completes.
	env.gw.failDirect = true
	env.gw.failFetch = true

	require.NoError(t, env.tickets.Close(ctx, ticket.ChannelID, "staff#1"))

	open, err := env.repo.OpenByRequester("alice")
	require.NoError(t, err)
	require.Nil(t, open)
}
