package notify

import (
	"errors"
	"log/slog"

	"github.com/tuanvumaihuynh/restock-watch/internal/config"
)

// NewDelivery builds the notifiers that reach a person: log and telegram.
func NewDelivery(cfg config.Notifier, tg config.Telegram, logger *slog.Logger) (Multi, error) {
	renderer, err := NewRenderer(cfg.Template)
	if err != nil {
		return nil, err
	}

	var notifiers Multi
	if cfg.Has(config.NotifierChannelLog) {
		notifiers = append(notifiers, NewLogNotifier(logger, renderer))
	}
	if cfg.Has(config.NotifierChannelTelegram) {
		if tg.BotToken == "" || tg.ChatID == "" {
			return nil, errors.New("telegram channel requires TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
		}
		notifiers = append(notifiers, NewTelegramNotifier(tg, renderer, logger))
	}

	return notifiers, nil
}
