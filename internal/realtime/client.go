package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"baerhub/internal/session"
	"baerhub/pkg/async"
	"baerhub/pkg/baerapi"
)

const (
	// HistoryLimit is how many stored messages are shown when joining a room.
	HistoryLimit = 50

	DefaultFallbackDelay = 1500 * time.Millisecond

	// OutboxSize is how many sent lines may wait for the connection before Send refuses more.
	OutboxSize = 64
)

const (
	noticeDisconnected     = "Disconnected."
	noticeConnectionFailed = "Connection failed."
	noticeNotSent          = "Message not sent."
	dividerLive            = "─── live ───"
)

var (
	ErrNotJoined    = errors.New("not joined to a room")
	ErrEmptyMessage = errors.New("message is empty")
	ErrOutboxFull   = errors.New("too many messages waiting to be sent")
	ErrNoSession    = errors.New("no session")
)

type State int

const (
	Disconnected State = iota
	Connecting
	Joined
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Joined:
		return "joined"
	default:
		return "disconnected"
	}
}

type HistoryFetcher interface {
	ChatLogs(ctx context.Context, room string) ([]baerapi.ChatMessage, error)
}

type Config struct {
	URL           string
	FallbackDelay time.Duration
	Dialer        *websocket.Dialer
}

// Client holds at most one chat connection. Each joined room gets a generation number; anything
// scheduled for an older generation is dropped.
//
// Sink methods are called with emitMu held and must not call back into the Client.
type Client struct {
	logger        *slog.Logger
	url           string
	fallbackDelay time.Duration
	dialer        *websocket.Dialer
	history       HistoryFetcher
	sink          Sink

	emitMu sync.Mutex

	mu       sync.Mutex
	gen      uint64
	state    State
	room     string
	username string
	conn     *websocket.Conn
	cancel   context.CancelFunc
	outbox   chan string
	fallback *time.Timer
}

func NewClient(cfg Config, history HistoryFetcher, sink Sink, logger *slog.Logger) *Client {
	logger = lo.Ternary(logger != nil, logger, slog.Default())

	return &Client{
		logger:        logger.With("component", "realtime.Client"),
		url:           cfg.URL,
		fallbackDelay: lo.Ternary(cfg.FallbackDelay > 0, cfg.FallbackDelay, DefaultFallbackDelay),
		dialer:        lo.Ternary(cfg.Dialer != nil, cfg.Dialer, websocket.DefaultDialer),
		history:       history,
		sink:          sink,
	}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

// Join connects to room, replacing any existing connection. It returns once the socket is open;
// history and live frames are delivered to the sink from the connection's goroutine.
func (c *Client) Join(ctx context.Context, s session.Session, room string) error {
	if !s.LoggedIn() {
		return ErrNoSession
	}

	c.Teardown()

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state = Connecting
	c.room = room
	c.username = s.User.Username
	c.mu.Unlock()

	c.emit(gen, func() {
		c.sink.Reset(room)
		c.sink.SetRoster(nil)
	})

	logger := c.logger.With("room", room)

	target, err := c.endpoint(s.Token, room)
	if err != nil {
		c.disconnected(gen, noticeConnectionFailed)
		return err
	}

	conn, _, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		logger.Warn("dial failed", "error", err)
		c.disconnected(gen, noticeConnectionFailed)
		return fmt.Errorf("joining %s: %w", room, err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	outbox := make(chan string, OutboxSize)

	c.mu.Lock()
	if c.gen != gen {
		// Torn down or superseded while dialing.
		c.mu.Unlock()
		cancel()
		_ = conn.Close()
		return context.Canceled
	}
	c.state = Joined
	c.conn = conn
	c.cancel = cancel
	c.outbox = outbox
	c.mu.Unlock()

	logger.Info("joined")

	go c.loop(loopCtx, gen, conn, room, outbox)

	return nil
}

// Send writes text to the joined room and shows it as the user's own message. There is no
// acknowledgement and nothing is retried. A full outbox refuses the text with ErrOutboxFull.
func (c *Client) Send(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Joined || c.outbox == nil {
		return ErrNotJoined
	}

	select {
	case c.outbox <- text:
		return nil
	default:
		c.logger.Warn("outbox full, message refused", "room", c.room)
		return ErrOutboxFull
	}
}

// Leave closes the connection and returns to the room list right away.
func (c *Client) Leave() {
	c.Teardown()
	c.sink.ShowRooms()
}

// Teardown closes the connection and forgets the room without showing anything. Pending room
// list fallbacks are cancelled. Once it returns the sink hears nothing more from the old
// connection.
func (c *Client) Teardown() {
	c.mu.Lock()
	c.gen++
	conn, cancel := c.conn, c.cancel
	if c.fallback != nil {
		c.fallback.Stop()
		c.fallback = nil
	}
	c.state = Disconnected
	c.room = ""
	c.conn = nil
	c.cancel = nil
	c.outbox = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}

	// Wait out an emission that checked the old generation just before the bump.
	c.emitMu.Lock()
	c.emitMu.Unlock() //nolint:staticcheck
}

func (c *Client) endpoint(token, room string) (string, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("token", token)
	q.Set("room", room)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (c *Client) loop(ctx context.Context, gen uint64, conn *websocket.Conn, room string, outbox <-chan string) {
	logger := c.logger.With("room", room)

	c.loadHistory(ctx, gen, room)

	frames := async.Generator(ctx, func(ctx context.Context, yield async.Yielder[[]byte]) error {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return err
			}
			if err := yield(data); err != nil {
				return err
			}
		}
	})

	for {
		select {
		case <-ctx.Done():
			return

		case text := <-outbox:
			// Shown as it goes out; queued lines wait for history so they never land above it.
			c.emit(gen, func() {
				c.sink.Append(Entry{
					ID:        uuid.NewString(),
					Kind:      EntryChat,
					Username:  c.currentUsername(),
					Text:      text,
					Timestamp: time.Now(),
					Mine:      true,
				})
			})
			if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				logger.Warn("send failed", "error", err)
				c.emit(gen, func() { c.sink.Append(system(noticeNotSent)) })
			}

		case result, ok := <-frames:
			if !ok || result.Err != nil {
				if result.Err != nil {
					logger.Info("connection closed", "error", result.Err)
				}
				_ = conn.Close()
				c.disconnected(gen, "")
				return
			}
			c.handleFrame(gen, result.Value)
		}
	}
}

func (c *Client) loadHistory(ctx context.Context, gen uint64, room string) {
	if c.history == nil {
		return
	}

	logs, err := c.history.ChatLogs(ctx, room)
	if err != nil {
		c.logger.Warn("loading history failed", "room", room, "error", err)
		return
	}

	if len(logs) > HistoryLimit {
		logs = logs[len(logs)-HistoryLimit:]
	}
	if len(logs) == 0 {
		return
	}

	username := c.currentUsername()

	c.emit(gen, func() {
		c.sink.Append(divider(fmt.Sprintf("─── last %d messages ───", len(logs))))
		for _, msg := range logs {
			c.sink.Append(Entry{
				ID:        historyID(msg),
				Kind:      EntryChat,
				Username:  msg.Username,
				Text:      msg.Text,
				Timestamp: timestampOf(msg.Timestamp),
				History:   true,
				Mine:      msg.Username == username,
			})
		}
		c.sink.Append(divider(dividerLive))
	})
}

func (c *Client) handleFrame(gen uint64, data []byte) {
	f, ok := decodeFrame(data)
	if !ok {
		framesReceived.WithLabelValues("invalid").Inc()
		c.emit(gen, func() { c.sink.Append(system(string(data))) })
		return
	}

	framesReceived.WithLabelValues(lo.Ternary(f.Type == frameSystem || f.Type == frameChat, f.Type, "unknown")).Inc()

	switch f.Type {
	case frameSystem:
		c.emit(gen, func() {
			c.sink.Append(system(f.Text))
			if f.Users != nil {
				c.sink.SetRoster(f.Users)
			}
		})

	case frameChat:
		if f.Username == c.currentUsername() {
			return
		}
		c.emit(gen, func() {
			c.sink.Append(Entry{
				ID:        uuid.NewString(),
				Kind:      EntryChat,
				Username:  f.Username,
				Text:      f.Text,
				Timestamp: timestampOf(f.Timestamp),
			})
		})

	default:
		c.emit(gen, func() { c.sink.Append(system(string(data))) })
	}
}

// disconnected shows the close notices and schedules the return to the room list.
func (c *Client) disconnected(gen uint64, notice string) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.state = Disconnected
	c.conn = nil
	c.outbox = nil
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.fallback = time.AfterFunc(c.fallbackDelay, func() {
		c.emit(gen, func() {
			c.mu.Lock()
			c.fallback = nil
			c.room = ""
			c.mu.Unlock()

			c.sink.ShowRooms()
		})
	})
	c.mu.Unlock()

	if notice != "" {
		c.sink.Append(system(notice))
	}
	c.sink.Append(system(noticeDisconnected))
}

// emit runs fn only while gen is the live generation.
func (c *Client) emit(gen uint64, fn func()) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	current := c.gen == gen
	c.mu.Unlock()

	if current {
		fn()
	}
}

func (c *Client) currentUsername() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

func system(text string) Entry {
	return Entry{ID: uuid.NewString(), Kind: EntrySystem, Text: text, Timestamp: time.Now()}
}

func divider(text string) Entry {
	return Entry{ID: uuid.NewString(), Kind: EntryDivider, Text: text, Timestamp: time.Now()}
}

func historyID(msg baerapi.ChatMessage) string {
	if msg.ID != 0 {
		return fmt.Sprintf("log-%d", msg.ID)
	}
	return uuid.NewString()
}

func timestampOf(ts *baerapi.Timestamp) time.Time {
	if ts == nil || ts.IsZero() {
		return time.Now()
	}
	return ts.Time
}
