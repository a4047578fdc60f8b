package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/config"
)

// HTTPClient talks to the messaging gateway REST API.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// NewHTTPClient builds a gateway client from configuration.
func NewHTTPClient(cfg config.GatewayConfig, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
	}
}

var _ Gateway = (*HTTPClient)(nil)

type messageResponse struct {
	ID string `json:"id"`
}

type channelResponse struct {
	ID string `json:"id"`
}

// SendMessage posts to a channel.
func (c *HTTPClient) SendMessage(ctx context.Context, channelID string, msg OutboundMessage) (string, error) {
	var resp messageResponse
	path := fmt.Sprintf("/channels/%s/messages", url.PathEscape(channelID))
	if err := c.do(ctx, http.MethodPost, path, msg, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// SendDirect delivers a direct message to a user.
func (c *HTTPClient) SendDirect(ctx context.Context, userID string, msg OutboundMessage) (string, error) {
	var resp messageResponse
	path := fmt.Sprintf("/users/%s/messages", url.PathEscape(userID))
	if err := c.do(ctx, http.MethodPost, path, msg, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// DeleteMessage removes a message.
func (c *HTTPClient) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	path := fmt.Sprintf("/channels/%s/messages/%s", url.PathEscape(channelID), url.PathEscape(messageID))
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// CreateChannel provisions a channel with permission overwrites.
func (c *HTTPClient) CreateChannel(ctx context.Context, req ChannelCreate) (string, error) {
	var resp channelResponse
	if err := c.do(ctx, http.MethodPost, "/channels", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// DeleteChannel removes a channel.
func (c *HTTPClient) DeleteChannel(ctx context.Context, channelID string) error {
	return c.do(ctx, http.MethodDelete, "/channels/"+url.PathEscape(channelID), nil, nil)
}

// ChannelReachable reports whether a channel can still be fetched.
func (c *HTTPClient) ChannelReachable(ctx context.Context, channelID string) bool {
	err := c.do(ctx, http.MethodGet, "/channels/"+url.PathEscape(channelID), nil, nil)
	return err == nil
}

// FetchMessages returns up to limit recent messages, newest first.
func (c *HTTPClient) FetchMessages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	var msgs []Message
	path := fmt.Sprintf("/channels/%s/messages?limit=%s", url.PathEscape(channelID), strconv.Itoa(limit))
	if err := c.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Ping measures a round trip to the gateway.
func (c *HTTPClient) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := c.do(ctx, http.MethodGet, "/gateway", nil, nil); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Debug("gateway call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("gateway %s %s: status %d: %s", method, path, resp.StatusCode, payload)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
