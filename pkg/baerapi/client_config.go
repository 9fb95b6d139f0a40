package baerapi

import (
	"log/slog"
	"time"

	"resty.dev/v3"
)

// Credentials supplies the bearer token for authenticated calls and is told when the server
// rejects it.
type Credentials interface {
	Token() string
	Expire()
}

type ClientConfig struct {
	BaseURL string

	TransportSettings *resty.TransportSettings

	ResponseMiddlewares []resty.ResponseMiddleware

	Credentials Credentials

	// Logger receives resty's messages. slog.Default() when nil.
	Logger *slog.Logger
}

var DefaultConfig = &ClientConfig{
	BaseURL: DefaultBaseURL,
	TransportSettings: &resty.TransportSettings{
		DialerTimeout:         2 * time.Second,
		DialerKeepAlive:       30 * time.Second,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   2 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
	},
}
