package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/api/dto"
	"github.com/spec-kit/ticket-bot/internal/config"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/gateway"
	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/persistence"
	"github.com/spec-kit/ticket-bot/internal/repository"
	"github.com/spec-kit/ticket-bot/internal/service"
)

// stubGateway is a minimal in-memory gateway for handler tests.
type stubGateway struct {
	mu       sync.Mutex
	nextID   int
	channels map[string]bool
	sent     []string
	directs  []string
}

func newStubGateway() *stubGateway {
	return &stubGateway{channels: make(map[string]bool)}
}

func (g *stubGateway) SendMessage(ctx context.Context, channelID string, msg gateway.OutboundMessage) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, channelID)
	g.nextID++
	return fmt.Sprintf("msg-%d", g.nextID), nil
}

func (g *stubGateway) SendDirect(ctx context.Context, userID string, msg gateway.OutboundMessage) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.directs = append(g.directs, userID)
	g.nextID++
	return fmt.Sprintf("dm-%d", g.nextID), nil
}

func (g *stubGateway) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return nil
}

func (g *stubGateway) CreateChannel(ctx context.Context, req gateway.ChannelCreate) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	id := fmt.Sprintf("chan-%d", g.nextID)
	g.channels[id] = true
	return id, nil
}

func (g *stubGateway) DeleteChannel(ctx context.Context, channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.channels, channelID)
	return nil
}

func (g *stubGateway) ChannelReachable(ctx context.Context, channelID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.channels[channelID]
}

func (g *stubGateway) FetchMessages(ctx context.Context, channelID string, limit int) ([]gateway.Message, error) {
	return nil, errors.New("no history")
}

func (g *stubGateway) Ping(ctx context.Context) (time.Duration, error) {
	return time.Millisecond, nil
}

func newTestApp(t *testing.T) (*fiber.App, repository.TicketRepository) {
	t.Helper()

	store, err := persistence.OpenDocumentStore(config.StoreConfig{
		Path: filepath.Join(t.TempDir(), "tickets.json"),
	}, zap.NewNop())
	require.NoError(t, err)
	sessions, err := persistence.NewSessionCache()
	require.NoError(t, err)

	gw := newStubGateway()
	logger := zap.NewNop()
	dispatcher := events.NewInMemoryDispatcher()
	repo := repository.NewTicketRepository(store)

	feedback := service.NewFeedbackService(service.FeedbackDependencies{
		Sessions:        sessions,
		Gateway:         gw,
		Dispatcher:      dispatcher,
		Logger:          logger,
		ReviewChannelID: "reviews",
	})
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  repo,
		Gateway:     gw,
		Transcripts: service.NewTranscriptService(gw, "transcripts", 100, logger),
		Feedback:    feedback,
		Dispatcher:  dispatcher,
		Logger:      logger,
		Workspace: config.WorkspaceConfig{
			AdminRoleID:      "admin-role",
			TicketCategoryID: "ticket-category",
		},
	})

	handler := NewInteractionsHandler(tickets, feedback, nil, observability.NewMetrics(), logger, 500)

	app := fiber.New()
	app.Post("/interactions", handler.Handle)
	return app, repo
}

func postInteraction(t *testing.T, app *fiber.App, req dto.InteractionRequest) dto.InteractionResponse {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq := httptest.NewRequest(http.MethodPost, "/interactions", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(httpReq, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.InteractionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSetupCommandRequiresAdmin(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postInteraction(t, app, dto.InteractionRequest{
		ID:      "i-1",
		Kind:    "slash_command",
		UserID:  "alice",
		UserTag: "alice#1",
		Command: "setup-tickets",
	})
	require.Equal(t, "message", resp.Type)
	require.True(t, resp.Ephemeral)
	require.Contains(t, resp.Content, "Administrator permission required")

	resp = postInteraction(t, app, dto.InteractionRequest{
		ID:      "i-2",
		Kind:    "slash_command",
		UserID:  "alice",
		UserTag: "alice#1",
		Command: "setup-tickets",
		IsAdmin: true,
	})
	require.Equal(t, "message", resp.Type)
	require.False(t, resp.Ephemeral)
	require.NotNil(t, resp.Message)
}

func TestServiceSelectionOpensTicket(t *testing.T) {
	app, repo := newTestApp(t)

	resp := postInteraction(t, app, dto.InteractionRequest{
		ID:       "i-1",
		Kind:     "select_menu",
		UserID:   "alice",
		UserTag:  "alice#1",
		CustomID: "ticket_type",
		Values:   []string{"services"},
	})
	require.Equal(t, "message", resp.Type)
	require.True(t, resp.Ephemeral)

	open, err := repo.OpenByRequester("alice")
	require.NoError(t, err)
	require.NotNil(t, open)
	require.Equal(t, 1, open.Number)

	// A second attempt surfaces the conflict to the requester.
	resp = postInteraction(t, app, dto.InteractionRequest{
		ID:       "i-2",
		Kind:     "select_menu",
		UserID:   "alice",
		UserTag:  "alice#1",
		CustomID: "ticket_type",
		Values:   []string{"services"},
	})
	require.Equal(t, "message", resp.Type)
	message, ok := resp.Message.(map[string]any)
	require.True(t, ok)
	embed, ok := message["embed"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, embed["title"], "Existing Ticket")
}

func TestBuySellFollowUp(t *testing.T) {
	app, repo := newTestApp(t)

	resp := postInteraction(t, app, dto.InteractionRequest{
		ID:       "i-1",
		Kind:     "select_menu",
		UserID:   "alice",
		UserTag:  "alice#1",
		CustomID: "ticket_type",
		Values:   []string{"limiteds"},
	})
	require.Equal(t, "message", resp.Type)
	require.True(t, resp.Ephemeral)

	// No ticket yet; the follow-up select opens it.
	open, err := repo.OpenByRequester("alice")
	require.NoError(t, err)
	require.Nil(t, open)

	resp = postInteraction(t, app, dto.InteractionRequest{
		ID:       "i-2",
		Kind:     "select_menu",
		UserID:   "alice",
		UserTag:  "alice#1",
		CustomID: "action_limiteds",
		Values:   []string{"sell_limiteds"},
	})
	require.Equal(t, "message", resp.Type)

	open, err = repo.OpenByRequester("alice")
	require.NoError(t, err)
	require.NotNil(t, open)
	require.Equal(t, "sell-limiteds", open.ServiceType)
	require.Equal(t, "Selling Limiteds", open.Description)
}

func TestCancelCloseClearsPrompt(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postInteraction(t, app, dto.InteractionRequest{
		ID:        "i-1",
		Kind:      "button",
		UserID:    "staff",
		UserTag:   "staff#1",
		ChannelID: "chan-1",
		CustomID:  "cancel_close",
	})
	require.Equal(t, "update", resp.Type)
	require.Equal(t, "Cancelled.", resp.Content)
}

func TestUnknownInteractionIsIgnored(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postInteraction(t, app, dto.InteractionRequest{
		ID:       "i-1",
		Kind:     "button",
		UserID:   "alice",
		CustomID: "mystery_button",
	})
	require.Equal(t, "none", resp.Type)
}
