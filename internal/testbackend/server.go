// Package testbackend is an in-process fake of the baerhub backend for tests.
package testbackend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"baerhub/pkg/baerapi"
)

// isoformat matches what the backend emits: naive UTC with microseconds.
const isoformat = "2006-01-02T15:04:05.000000"

type Request struct {
	Method string
	Path   string
	Query  string
	Auth   string
}

type user struct {
	baerapi.User
	password string
}

type Server struct {
	*httptest.Server

	// FailLikes makes like and unlike answer 500.
	FailLikes atomic.Bool
	// HistoryDelay slows down /chat_logs.
	HistoryDelay atomic.Int64
	upgrader websocket.Upgrader

	mu       sync.Mutex
	users    map[string]*user
	tokens   map[string]string
	posts    []*baerapi.Post
	nextID   int64
	likes    map[int64]map[string]bool
	comments map[int64][]baerapi.Comment
	rooms    []baerapi.Room
	logs     map[string][]baerapi.ChatMessage
	conns    map[*peer]struct{}
	requests []Request
	onJoin   func(room, username string) []any
}

type peer struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	room     string
	username string
}

func (p *peer) send(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteJSON(v)
}

func (p *peer) sendRaw(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

// New starts a fake backend with the general room. It is closed on test cleanup by the caller.
func New() *Server {
	s := &Server{
		users:    map[string]*user{},
		tokens:   map[string]string{},
		likes:    map[int64]map[string]bool{},
		comments: map[int64][]baerapi.Comment{},
		logs:     map[string][]baerapi.ChatMessage{},
		conns:    map[*peer]struct{}{},
		rooms: []baerapi.Room{{
			Name:        "general",
			Description: "General discussion",
			Owner:       "system",
		}},
	}

	s.Server = httptest.NewServer(s.router())

	return s
}

// ChatURL is the WebSocket endpoint of the fake.
func (s *Server) ChatURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws/chat"
}

func (s *Server) router() http.Handler {
	r := chi.NewMux()

	r.Use(
		// Recording
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				s.mu.Lock()
				s.requests = append(s.requests, Request{
					Method: r.Method,
					Path:   r.URL.Path,
					Query:  r.URL.RawQuery,
					Auth:   r.Header.Get("Authorization"),
				})
				s.mu.Unlock()
				next.ServeHTTP(w, r)
			})
		},
	)

	r.Get("/ws/chat", s.chat)

	r.Group(func(r chi.Router) {
		// json content type
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				next.ServeHTTP(w, r)
			})
		})

		r.Post("/token", s.token)
		r.Post("/user", s.createUser)

		r.Get("/tweets", s.listTweets)
		r.Post("/tweets", s.createTweet)
		r.Get("/tweets/{id}", s.getTweet)
		r.Patch("/tweets/{id}", s.editTweet)
		r.Delete("/tweets/{id}", s.deleteTweet)
		r.Post("/tweets/{id}/like", s.like)
		r.Delete("/tweets/{id}/like", s.unlike)
		r.Get("/tweets/{id}/comments", s.listComments)
		r.Post("/tweets/{id}/comments", s.createComment)

		r.Get("/rooms", s.listRooms)
		r.Post("/rooms", s.createRoom)
		r.Delete("/rooms/{name}", s.deleteRoom)

		r.Get("/chat_logs", s.chatLogs)
	})

	return r
}

// AddUser registers an account directly.
func (s *Server) AddUser(username, password, displayName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addUser(username, password, displayName)
}

func (s *Server) addUser(username, password, displayName string) *user {
	u := &user{
		User: baerapi.User{
			ID:          int64(len(s.users) + 1),
			Username:    username,
			DisplayName: displayName,
			Role:        "user",
		},
		password: password,
	}
	s.users[username] = u
	return u
}

// OnJoin sets a hook returning frames pushed to a socket right after it opens, before the join
// notice.
func (s *Server) OnJoin(fn func(room, username string) []any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onJoin = fn
}

// Logs returns the stored history of room.
func (s *Server) Logs(room string) []baerapi.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]baerapi.ChatMessage(nil), s.logs[room]...)
}

// IssueToken returns a valid token for an existing user.
func (s *Server) IssueToken(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := uuid.NewString()
	s.tokens[token] = username
	return token
}

// RevokeTokens invalidates every issued token.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]string{}
}

// AddChatLog stores a message in room's history.
func (s *Server) AddChatLog(room, username, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLog(room, username, text, time.Now().UTC())
}

func (s *Server) appendLog(room, username, text string, at time.Time) baerapi.ChatMessage {
	ts := baerapi.NewTimestamp(at)
	msg := baerapi.ChatMessage{
		ID:        int64(len(s.logs[room]) + 1),
		Username:  username,
		Text:      text,
		Timestamp: &ts,
	}
	s.logs[room] = append(s.logs[room], msg)
	return msg
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests counts recorded requests with the given method and path prefix.
func (s *Server) CountRequests(method, pathPrefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			n++
		}
	}
	return n
}

func (s *Server) authUser(r *http.Request) *user {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	username, ok := s.tokens[token]
	if !ok {
		return nil
	}
	return s.users[username]
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
}
