package config

import "time"

type Watcher struct {
	RegionCode string        `env:"WATCHER_REGION_CODE,required"`
	Interval   time.Duration `env:"WATCHER_INTERVAL" envDefault:"10m"`
	RunOnce    bool          `env:"WATCHER_RUN_ONCE" envDefault:"false"`
	// MetricsAddr is where rw-watcher serves /metrics. Empty disables it.
	MetricsAddr string `env:"WATCHER_METRICS_ADDR" envDefault:":9090"`
}
