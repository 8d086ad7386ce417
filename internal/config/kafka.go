package config

import "time"

type Kafka struct {
	Addresses   []string      `env:"KAFKA_ADDRESSES,required" envSeparator:","`
	ClientID    string        `env:"KAFKA_CLIENT_ID" envDefault:"restock-watch"`
	Group       string        `env:"KAFKA_GROUP" envDefault:"restock-watch-notifier"`
	PingTimeout time.Duration `env:"KAFKA_PING_TIMEOUT" envDefault:"5s"`
}
