package config

import "time"

// Relay controls how outbox rows are drained to Kafka.
type Relay struct {
	BatchSize      uint32        `env:"RELAY_BATCH_SIZE" envDefault:"50"`
	Interval       time.Duration `env:"RELAY_INTERVAL" envDefault:"2s"`
	ProduceTimeout time.Duration `env:"RELAY_PRODUCE_TIMEOUT" envDefault:"10s"`
}
