package config

import "time"

// Source configures the catalog fetch.
//
// SessionDir holds <region>/headers.json and <region>/cookies.json captured from a
// logged-in browser. The watcher reads them, refreshes cookies set by the server and
// clears them on 401/403, but never creates headers.json itself: an operator (or an
// external capture job) must write both files before the session strategy can run.
// Until then the chain falls back to the static SOURCE_HEADERS/SOURCE_COOKIES.
type Source struct {
	APIURL     string            `env:"SOURCE_API_URL,required"`
	Timeout    time.Duration     `env:"SOURCE_TIMEOUT" envDefault:"30s"`
	UserAgent  string            `env:"SOURCE_USER_AGENT" envDefault:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
	SessionDir string            `env:"SOURCE_SESSION_DIR" envDefault:"data/session"`
	Headers    map[string]string `env:"SOURCE_HEADERS" envSeparator:"|" envKeyValSeparator:"="`
	Cookies    map[string]string `env:"SOURCE_COOKIES" envSeparator:"|" envKeyValSeparator:"="`
}
