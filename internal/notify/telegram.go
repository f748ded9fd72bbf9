package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// TelegramSender delivers alerts via the Telegram Bot API. With a default
// chat ID configured it doubles as a broadcast Sender; SendTo targets an
// individual subscriber's chat.
type TelegramSender struct {
	token         string
	defaultChatID string
	client        *http.Client
}

// NewTelegramSender creates a TelegramSender for the given bot token.
// defaultChatID may be empty when the sender is used only for per-user
// delivery.
func NewTelegramSender(token, defaultChatID string) *TelegramSender {
	return &TelegramSender{
		token:         token,
		defaultChatID: defaultChatID,
		client:        &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts a message to the default chat.
func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	if t.defaultChatID == "" {
		return fmt.Errorf("telegram: no default chat configured")
	}
	return t.post(ctx, t.defaultChatID, title, message)
}

// SendTo posts a message to one subscriber's chat.
func (t *TelegramSender) SendTo(ctx context.Context, chatID int64, title, message string) error {
	return t.post(ctx, strconv.FormatInt(chatID, 10), title, message)
}

func (t *TelegramSender) post(ctx context.Context, chatID, title, message string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)

	text := fmt.Sprintf("*%s*\n%s", title, message)

	payload := map[string]string{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Name returns the sender identifier.
func (t *TelegramSender) Name() string {
	return "telegram"
}

var _ Sender = (*TelegramSender)(nil)
var _ UserSender = (*TelegramSender)(nil)
