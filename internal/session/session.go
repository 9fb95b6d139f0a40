package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/samber/lo"

	"baerhub/internal/core"
	"baerhub/pkg/baerapi"
)

var ErrMissingCredentials = fmt.Errorf("%w: username and password required", baerapi.ErrValidation)

type Change int

const (
	LoggedIn Change = iota
	LoggedOut
	Expired
)

func (c Change) String() string {
	switch c {
	case LoggedIn:
		return "logged_in"
	case LoggedOut:
		return "logged_out"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

type Session struct {
	Token string
	User  *baerapi.User
}

func (s Session) LoggedIn() bool {
	return s.Token != "" && s.User != nil
}

// Authenticator is the part of the API client the store needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*baerapi.Token, error)
	CreateUser(ctx context.Context, user baerapi.UserCreate) (*baerapi.User, error)
}

type Listener func(Change, Session)

// Store owns the current session. It is safe for concurrent use and satisfies
// baerapi.Credentials, so the API client can read the token and expire it on 401.
type Store struct {
	logger  *slog.Logger
	storage core.Storage
	auth    Authenticator

	mu      sync.RWMutex
	session Session

	listenersMu sync.Mutex
	nextID      int
	listeners   map[int]Listener
}

// New returns a store rehydrated from storage. Nothing is fetched from the network.
func New(ctx context.Context, storage core.Storage, auth Authenticator, logger *slog.Logger) *Store {
	logger = lo.Ternary(logger != nil, logger, slog.Default())

	s := &Store{
		logger:    logger.With("component", "session.Store"),
		storage:   storage,
		auth:      auth,
		listeners: map[int]Listener{},
	}

	s.session = s.load(ctx)

	return s
}

func (s *Store) load(ctx context.Context) Session {
	token, err := s.storage.Get(ctx, core.TokenKey)
	if err != nil {
		if !errors.Is(err, core.ErrKeyNotFound) {
			s.logger.Warn("reading stored token", "error", err)
		}
		return Session{}
	}

	raw, err := s.storage.Get(ctx, core.UserKey)
	if err != nil {
		s.logger.Warn("stored token has no user, discarding", "error", err)
		s.clear(ctx)
		return Session{}
	}

	var user baerapi.User
	if err := json.Unmarshal(raw, &user); err != nil || user.Username == "" {
		s.logger.Warn("stored user is unreadable, discarding", "error", err)
		s.clear(ctx)
		return Session{}
	}

	return Session{Token: string(token), User: &user}
}

func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Store) Token() string {
	return s.Current().Token
}

// Login authenticates and persists the new session. On failure the previous session stays.
func (s *Store) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	return s.login(ctx, baerapi.User{Username: username}, password)
}

func (s *Store) login(ctx context.Context, user baerapi.User, password string) (Session, error) {
	token, err := s.auth.Login(ctx, user.Username, password)
	if err != nil {
		return Session{}, err
	}

	session := Session{Token: token.AccessToken, User: &user}

	if err := s.persist(ctx, session); err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	s.logger.Info("logged in", "username", user.Username)
	s.notify(LoggedIn, session)

	return session, nil
}

// CreateAccount registers a user without logging in. Missing credentials fail locally.
func (s *Store) CreateAccount(ctx context.Context, username, password, displayName string) (*baerapi.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	return s.auth.CreateUser(ctx, baerapi.UserCreate{
		Username:    username,
		Password:    password,
		DisplayName: strings.TrimSpace(displayName),
	})
}

// Register creates the account and logs in with the same credentials.
func (s *Store) Register(ctx context.Context, username, password, displayName string) (Session, error) {
	created, err := s.CreateAccount(ctx, username, password, displayName)
	if err != nil {
		return Session{}, err
	}

	user := baerapi.User{
		Username:    strings.TrimSpace(username),
		DisplayName: strings.TrimSpace(displayName),
	}
	if created != nil {
		user.ID = created.ID
		user.Role = created.Role
		user.DisplayName = lo.Ternary(created.DisplayName != "", created.DisplayName, user.DisplayName)
	}

	return s.login(ctx, user, password)
}

func (s *Store) Logout(ctx context.Context) {
	s.end(ctx, LoggedOut)
}

// Expire ends the session after the server rejected its token.
func (s *Store) Expire() {
	s.end(context.Background(), Expired)
}

func (s *Store) end(ctx context.Context, change Change) {
	s.mu.Lock()
	previous := s.session
	s.session = Session{}
	s.mu.Unlock()

	s.clear(ctx)

	if !previous.LoggedIn() {
		return
	}

	s.logger.Info("session ended", "username", previous.User.Username, "reason", change)
	s.notify(change, Session{})
}

// Subscribe registers fn for session changes. Callbacks run outside the store lock.
func (s *Store) Subscribe(fn Listener) func() {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(change Change, session Session) {
	s.listenersMu.Lock()
	listeners := lo.Values(s.listeners)
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(change, session)
	}
}

func (s *Store) persist(ctx context.Context, session Session) error {
	raw, err := json.Marshal(session.User)
	if err != nil {
		return err
	}

	if err := s.storage.Put(ctx, core.UserKey, raw); err != nil {
		return fmt.Errorf("persisting user: %w", err)
	}

	if err := s.storage.Put(ctx, core.TokenKey, []byte(session.Token)); err != nil {
		return fmt.Errorf("persisting token: %w", err)
	}

	return nil
}

func (s *Store) clear(ctx context.Context) {
	for _, key := range []string{core.TokenKey, core.UserKey} {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Warn("clearing stored session", "key", key, "error", err)
		}
	}
}
