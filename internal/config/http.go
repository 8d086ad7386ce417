package config

import (
	"net"
	"strconv"
	"time"
)

type HTTP struct {
	Host            string        `env:"HTTP_HOST"`
	Port            uint32        `env:"HTTP_PORT" envDefault:"8080"`
	Swagger         bool          `env:"HTTP_SWAGGER" envDefault:"true"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Addr is the listen address for net.Listen.
func (h HTTP) Addr() string {
	return net.JoinHostPort(h.Host, strconv.FormatUint(uint64(h.Port), 10))
}
