package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Gateway delivers text messages to a chat and returns the message id
type Gateway interface {
	Send(ctx context.Context, chatID int64, text string) (int64, error)
}

// TelegramGateway sends messages through the Telegram Bot API
type TelegramGateway struct {
	BaseURL    string
	Token      string
	httpClient *http.Client
}

// Message is one delivery recorded by MockGateway
type Message struct {
	ID     int64
	ChatID int64
	Text   string
}

// MockGateway records messages instead of sending them
type MockGateway struct {
	mu       sync.Mutex
	nextID   int64
	messages []Message
	// Err, when set, is returned by every Send
	Err error
}

// NewTelegramGateway creates a new TelegramGateway
func NewTelegramGateway(baseURL, token string) *TelegramGateway {
	return &TelegramGateway{
		BaseURL: baseURL,
		Token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewMockGateway creates a new MockGateway
func NewMockGateway() *MockGateway {
	return &MockGateway{nextID: 1000}
}

// Send posts text to chatID via sendMessage
func (g *TelegramGateway) Send(ctx context.Context, chatID int64, text string) (int64, error) {
	if g.Token == "" {
		return 0, errors.New("relay token is not configured")
	}

	jsonBody, err := json.Marshal(map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", g.BaseURL, g.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}

	var response struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
		Result      struct {
			MessageID int64 `json:"message_id"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return 0, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !response.OK {
		return 0, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, response.Description)
	}
	return response.Result.MessageID, nil
}

// Send records the message and returns a sequential id
func (g *MockGateway) Send(_ context.Context, chatID int64, text string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return 0, g.Err
	}
	g.nextID++
	g.messages = append(g.messages, Message{ID: g.nextID, ChatID: chatID, Text: text})
	return g.nextID, nil
}

// Messages returns a copy of everything sent so far
func (g *MockGateway) Messages() []Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Message, len(g.messages))
	copy(out, g.messages)
	return out
}
