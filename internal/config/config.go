package config

import (
	"strings"
	"time"
)

type Config struct {
	APIURL        string        `flag:"api-url"`
	WSURL         string        `flag:"ws-url"`
	DataDir       string        `flag:"data-dir"`
	LogLevel      string        `flag:"log-level"`
	MetricsAddr   string        `flag:"metrics-addr"`
	Room          string        `flag:"room"`
	FallbackDelay time.Duration `flag:"fallback-delay"`
}

// ChatURL is the WebSocket endpoint of the chat. Unless set explicitly it is derived from the API
// URL by swapping the scheme.
func (c *Config) ChatURL() string {
	if c.WSURL != "" {
		return c.WSURL
	}

	base := strings.TrimRight(c.APIURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	return base + "/ws/chat"
}
