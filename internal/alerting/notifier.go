package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Notification describes a page falling back to substitute data.
type Notification struct {
	Page      string
	SessionID string
	Reason    string
	Message   string
	At        time.Time
}

// Notifier delivers fallback warnings.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// LogNotifier writes warnings to the structured log.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier constructs a log-backed notifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "alert_log").Logger()}
}

// Notify logs the notification at warn level.
func (n *LogNotifier) Notify(_ context.Context, note Notification) error {
	n.logger.Warn().
		Str("page", note.Page).
		Str("session_id", note.SessionID).
		Str("reason", note.Reason).
		Msg(note.Message)
	return nil
}

// Multi fans a notification out to every notifier and joins their errors.
type Multi []Notifier

// Notify delivers to all members even when some fail.
func (m Multi) Notify(ctx context.Context, note Notification) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, note); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// TelegramNotifier pushes warnings through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify calls sendMessage with the rendered warning.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram responded with status %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil && !result.OK {
		return errors.New("telegram returned ok=false")
	}

	n.logger.Info().Str("page", note.Page).Msg("fallback warning sent (telegram)")
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("[Live Dashboard Warning]\n")
	builder.WriteString(fmt.Sprintf("Page: %s\n", note.Page))
	builder.WriteString(fmt.Sprintf("At: %s UTC\n", note.At.UTC().Format(time.RFC3339)))
	if note.SessionID != "" {
		builder.WriteString(fmt.Sprintf("Session: %s\n", note.SessionID))
	}
	builder.WriteString(note.Message)
	return builder.String()
}

var (
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = (*TelegramNotifier)(nil)
	_ Notifier = Multi(nil)
)
