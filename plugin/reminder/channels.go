package reminder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Channel names a notification transport.
type Channel string

const (
	ChannelTelegram Channel = "telegram"
	ChannelWebhook  Channel = "webhook"
	ChannelLog      Channel = "log"
)

// ChannelSender delivers a rendered message to one owner.
type ChannelSender interface {
	Send(ctx context.Context, ownerID int64, message string) error
	Name() string
}

// NotificationDispatcher routes notifications to registered channels.
type NotificationDispatcher struct {
	channels map[Channel]ChannelSender
	logger   *slog.Logger
	mu       sync.RWMutex
}

// NewNotificationDispatcher creates a new notification dispatcher.
func NewNotificationDispatcher() *NotificationDispatcher {
	return &NotificationDispatcher{
		channels: make(map[Channel]ChannelSender),
		logger:   slog.Default(),
	}
}

// SetLogger sets a custom logger.
func (d *NotificationDispatcher) SetLogger(logger *slog.Logger) {
	d.logger = logger
}

// Register registers a channel sender, replacing any previous one.
func (d *NotificationDispatcher) Register(channel Channel, sender ChannelSender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channels[channel] = sender
	d.logger.Info("registered notification channel", "channel", channel, "sender", sender.Name())
}

// Channels returns the registered channel names in sorted order.
func (d *NotificationDispatcher) Channels() []Channel {
	d.mu.RLock()
	defer d.mu.RUnlock()
	list := make([]Channel, 0, len(d.channels))
	for channel := range d.channels {
		list = append(list, channel)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}

// Send sends a notification through the specified channel.
func (d *NotificationDispatcher) Send(ctx context.Context, ownerID int64, channel Channel, message string) error {
	d.mu.RLock()
	sender, ok := d.channels[channel]
	d.mu.RUnlock()

	if !ok {
		return fmt.Errorf("channel not registered: %s", channel)
	}
	return sender.Send(ctx, ownerID, message)
}

// Broadcast sends a notification through all registered channels and
// returns the failures.
func (d *NotificationDispatcher) Broadcast(ctx context.Context, ownerID int64, message string) []error {
	d.mu.RLock()
	senders := make([]ChannelSender, 0, len(d.channels))
	for _, sender := range d.channels {
		senders = append(senders, sender)
	}
	d.mu.RUnlock()

	var errs []error
	for _, sender := range senders {
		if err := sender.Send(ctx, ownerID, message); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sender.Name(), err))
		}
	}
	return errs
}

// TelegramConfig holds Bot API settings.
type TelegramConfig struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// TelegramSender posts messages through the Bot API sendMessage method.
// The owner id is the chat id.
type TelegramSender struct {
	config     TelegramConfig
	httpClient *http.Client
	logger     *slog.Logger
}

type telegramSendRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// NewTelegramSender creates a new Telegram sender.
func NewTelegramSender(config TelegramConfig) *TelegramSender {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.telegram.org"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &TelegramSender{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     slog.Default(),
	}
}

// Send sends an HTML formatted message to the owner's chat.
func (s *TelegramSender) Send(ctx context.Context, ownerID int64, message string) error {
	body, err := json.Marshal(telegramSendRequest{
		ChatID:    ownerID,
		Text:      message,
		ParseMode: "HTML",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(s.config.BaseURL, "/"), s.config.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// The URL embeds the token; never log it.
		return fmt.Errorf("failed to send telegram message: %w", redactToken(err, s.config.Token))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read telegram response: %w", err)
	}

	var tgResp telegramResponse
	if err := json.Unmarshal(respBody, &tgResp); err != nil {
		return fmt.Errorf("failed to parse telegram response (status %d): %w", resp.StatusCode, err)
	}
	if !tgResp.OK {
		return fmt.Errorf("telegram API error: %s", tgResp.Description)
	}

	s.logger.Debug("telegram notification sent", "owner_id", ownerID)
	return nil
}

// Name returns the sender name.
func (s *TelegramSender) Name() string {
	return string(ChannelTelegram)
}

func redactToken(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), token, "<redacted>"))
}

// WebhookConfig holds webhook configuration.
type WebhookConfig struct {
	URL     string
	Secret  string
	Timeout time.Duration
	Headers map[string]string
}

// WebhookSender posts notifications as JSON to an external endpoint.
type WebhookSender struct {
	config     WebhookConfig
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// WebhookPayload represents the webhook request body.
type WebhookPayload struct {
	Event     string    `json:"event"`
	OwnerID   int64     `json:"owner_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NewWebhookSender creates a new webhook sender.
func NewWebhookSender(config WebhookConfig) *WebhookSender {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &WebhookSender{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     slog.Default(),
		now:        time.Now,
	}
}

// Send sends a webhook notification.
func (s *WebhookSender) Send(ctx context.Context, ownerID int64, message string) error {
	body, err := json.Marshal(WebhookPayload{
		Event:     "reminder.triggered",
		OwnerID:   ownerID,
		Message:   message,
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.Secret != "" {
		req.Header.Set("X-Webhook-Secret", s.config.Secret)
	}
	for k, v := range s.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("webhook request failed", "url", s.config.URL, "error", err)
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		s.logger.Error("webhook returned error",
			"url", s.config.URL,
			"status", resp.StatusCode,
			"response", string(respBody),
		)
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	s.logger.Debug("webhook notification sent", "owner_id", ownerID, "status", resp.StatusCode)
	return nil
}

// Name returns the sender name.
func (s *WebhookSender) Name() string {
	return string(ChannelWebhook)
}

// LogSender writes notifications to the log. Used in dev mode when no
// transport is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender writing to logger, or slog.Default() if nil.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send logs the notification.
func (s *LogSender) Send(_ context.Context, ownerID int64, message string) error {
	s.logger.Info("reminder notification", "owner_id", ownerID, "message", message)
	return nil
}

// Name returns the sender name.
func (s *LogSender) Name() string {
	return string(ChannelLog)
}
