package baerapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/samber/lo"
	"resty.dev/v3"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8000"

	// MaxContentLength is the longest post or comment accepted, in characters.
	MaxContentLength = 280
)

type Client struct {
	client *resty.Client

	mu          sync.RWMutex
	credentials Credentials
}

func NewClient(cfg *ClientConfig) *Client {
	if cfg == nil {
		cfg = DefaultConfig
	}

	settings := lo.Ternary(cfg.TransportSettings != nil, cfg.TransportSettings, DefaultConfig.TransportSettings)
	baseURL := lo.Ternary(cfg.BaseURL != "", cfg.BaseURL, DefaultBaseURL)

	logger := lo.Ternary(cfg.Logger != nil, cfg.Logger, slog.Default())

	// The default backend is plain HTTP on loopback, so resty's warning about sending credentials
	// without TLS would fire on every authenticated call.
	client := resty.NewWithTransportSettings(settings).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetLogger(restyLogger{logger: logger.With("component", "baerapi.Client")}).
		SetDisableWarn(true)

	for _, m := range cfg.ResponseMiddlewares {
		client.AddResponseMiddleware(m)
	}

	return &Client{
		client:      client,
		credentials: cfg.Credentials,
	}
}

// SetCredentials replaces the token source. The session store and the client depend on each
// other, so the store is attached after both exist.
func (c *Client) SetCredentials(credentials Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credentials = credentials
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) r(ctx context.Context) *resty.Request {
	return c.client.R().WithContext(ctx)
}

// authed returns a request carrying the bearer token when a session exists.
func (c *Client) authed(ctx context.Context) (*resty.Request, bool) {
	req := c.r(ctx)

	c.mu.RLock()
	credentials := c.credentials
	c.mu.RUnlock()

	if credentials == nil {
		return req, false
	}

	token := credentials.Token()
	if token == "" {
		return req, false
	}

	return req.SetAuthToken(token), true
}

// send executes the request and applies the policies shared by every endpoint: transport
// failures become ErrNetwork, non-2xx statuses become *StatusError and a 401 on an
// authenticated call expires the session.
func (c *Client) send(req *resty.Request, method, path string, authenticated bool) (*resty.Response, error) {
	res, err := req.
		SetError(&errorBody{}).
		Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}

	if !res.IsError() {
		return res, nil
	}

	statusErr := &StatusError{
		Method: method,
		Path:   path,
		Status: res.StatusCode(),
		Kind:   kindOf(res.StatusCode()),
	}

	if body, ok := res.Error().(*errorBody); ok && body != nil {
		statusErr.Detail = body.message()
	}

	if res.StatusCode() == http.StatusUnauthorized && authenticated {
		statusErr.Kind = ErrSessionExpired

		c.mu.RLock()
		credentials := c.credentials
		c.mu.RUnlock()
		if credentials != nil {
			credentials.Expire()
		}
	}

	return res, statusErr
}

func kindOf(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrAuth
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return ErrValidation
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrServer
	}
}
