package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tuanvumaihuynh/restock-watch/internal/config"
	"github.com/tuanvumaihuynh/restock-watch/internal/model"
)

const telegramAPIURL = "https://api.telegram.org"

var _ Notifier = (*TelegramNotifier)(nil)

// TelegramNotifier sends one Bot API message per batch.
type TelegramNotifier struct {
	cfg      config.Telegram
	apiURL   string
	client   *http.Client
	renderer *Renderer
	logger   *slog.Logger
}

type TelegramOption func(*TelegramNotifier)

// WithTelegramAPIURL overrides the Bot API base URL.
func WithTelegramAPIURL(url string) TelegramOption {
	return func(n *TelegramNotifier) {
		n.apiURL = strings.TrimRight(url, "/")
	}
}

func NewTelegramNotifier(cfg config.Telegram, renderer *Renderer, logger *slog.Logger, opts ...TelegramOption) *TelegramNotifier {
	n := &TelegramNotifier{
		cfg:      cfg,
		apiURL:   telegramAPIURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		renderer: renderer,
		logger:   logger.With(slog.String("notifier", "telegram")),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (n *TelegramNotifier) Notify(ctx context.Context, transitions []model.Transition) {
	if len(transitions) == 0 {
		return
	}

	lines := make([]string, 0, len(transitions))
	for _, t := range transitions {
		msg, err := n.renderer.Render(t)
		if err != nil {
			n.logger.ErrorContext(ctx, "error rendering notification", slog.String("item_id", t.ID), slog.Any("error", err))
			continue
		}
		lines = append(lines, msg)
	}
	if len(lines) == 0 {
		return
	}

	if err := n.send(ctx, strings.Join(lines, "\n\n")); err != nil {
		n.logger.ErrorContext(ctx, "error sending telegram message",
			slog.Int("count", len(lines)),
			slog.Any("error", err),
		)
		return
	}

	n.logger.InfoContext(ctx, "telegram message sent", slog.Int("count", len(lines)))
}

func (n *TelegramNotifier) send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: n.cfg.ChatID, Text: text})
	if err != nil {
		return fmt.Errorf("marshal send message request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, n.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		// the url carries the bot token
		return fmt.Errorf("send message: %w", redactToken(err, n.cfg.BotToken))
	}
	defer resp.Body.Close()

	var out sendMessageResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return fmt.Errorf("decode send message response (status %d): %w", resp.StatusCode, err)
	}
	if !out.OK {
		return fmt.Errorf("telegram rejected message (status %d): %s", resp.StatusCode, out.Description)
	}

	return nil
}

func redactToken(err error, token string) error {
	if token == "" {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), token, "<redacted>"))
}
