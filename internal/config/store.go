package config

import (
	"fmt"
	"strings"
)

// StoreDriver selects the backend holding the persisted stock state.
type StoreDriver uint8

const (
	StoreDriverPostgres StoreDriver = iota
	StoreDriverSQLite
)

func (d StoreDriver) String() string {
	return []string{"POSTGRES", "SQLITE"}[d]
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *StoreDriver) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "POSTGRES":
		*d = StoreDriverPostgres
	case "SQLITE":
		*d = StoreDriverSQLite
	default:
		return fmt.Errorf("unknown store driver: %s", text)
	}
	return nil
}

func (d StoreDriver) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Store struct {
	Driver StoreDriver `env:"STORE_DRIVER" envDefault:"POSTGRES"`
}

type SQLite struct {
	Path        string `env:"SQLITE_PATH" envDefault:"data/data.db"`
	BusyTimeout int    `env:"SQLITE_BUSY_TIMEOUT_MS" envDefault:"5000"`
}
