package config

import (
	"fmt"
	"strings"
)

// NotifierChannel is one delivery channel for back-in-stock notifications.
type NotifierChannel string

const (
	NotifierChannelLog      NotifierChannel = "log"
	NotifierChannelTelegram NotifierChannel = "telegram"
	NotifierChannelKafka    NotifierChannel = "kafka"
	NotifierChannelOutbox   NotifierChannel = "outbox"
)

// UnmarshalText implements [encoding.TextUnmarshaler].
func (c *NotifierChannel) UnmarshalText(text []byte) error {
	switch ch := NotifierChannel(strings.ToLower(strings.TrimSpace(string(text)))); ch {
	case NotifierChannelLog, NotifierChannelTelegram, NotifierChannelKafka, NotifierChannelOutbox:
		*c = ch
	default:
		return fmt.Errorf("unknown notifier channel: %s", text)
	}
	return nil
}

type Notifier struct {
	Channels []NotifierChannel `env:"NOTIFIER_CHANNELS" envDefault:"log" envSeparator:","`
	Template string            `env:"NOTIFIER_TEMPLATE"`
}

// Has reports whether ch is enabled.
func (n Notifier) Has(ch NotifierChannel) bool {
	for _, c := range n.Channels {
		if c == ch {
			return true
		}
	}
	return false
}

type Telegram struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `env:"TELEGRAM_CHAT_ID"`
}
