package lobby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"

	"baerhub/internal/session"
	"baerhub/pkg/baerapi"
)

// DefaultRoom always exists and cannot be deleted.
const DefaultRoom = "general"

var (
	ErrNameRequired = fmt.Errorf("%w: room name is required", baerapi.ErrValidation)
	ErrNotOwner     = errors.New("only the owner can delete this room")
	ErrNotLoggedIn  = errors.New("not logged in")
)

type API interface {
	Rooms(ctx context.Context) ([]baerapi.Room, error)
	CreateRoom(ctx context.Context, room baerapi.RoomCreate) (*baerapi.Room, error)
	DeleteRoom(ctx context.Context, name string) error
}

type Sessions interface {
	Current() session.Session
}

// Lobby is the room list. Like the feed, responses that land after Reset are dropped.
type Lobby struct {
	api      API
	sessions Sessions
	logger   *slog.Logger

	mu    sync.Mutex
	epoch uint64
	rooms []baerapi.Room
}

func New(api API, sessions Sessions, logger *slog.Logger) *Lobby {
	logger = lo.Ternary(logger != nil, logger, slog.Default())

	return &Lobby{
		api:      api,
		sessions: sessions,
		logger:   logger.With("component", "lobby.Lobby"),
	}
}

func (l *Lobby) Rooms() []baerapi.Room {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.rooms)
}

func (l *Lobby) Refresh(ctx context.Context) error {
	epoch := l.currentEpoch()

	rooms, err := l.api.Rooms(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.epoch != epoch {
		l.logger.Debug("dropping rooms fetched before reset")
		return nil
	}
	l.rooms = rooms

	return nil
}

// Create adds a room and puts it first in the list.
func (l *Lobby) Create(ctx context.Context, name, description string) (baerapi.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return baerapi.Room{}, ErrNameRequired
	}
	if !l.sessions.Current().LoggedIn() {
		return baerapi.Room{}, ErrNotLoggedIn
	}

	epoch := l.currentEpoch()

	room, err := l.api.CreateRoom(ctx, baerapi.RoomCreate{Name: name, Description: strings.TrimSpace(description)})
	if err != nil {
		return baerapi.Room{}, err
	}

	l.mu.Lock()
	if l.epoch == epoch {
		l.rooms = slices.Insert(
			slices.DeleteFunc(l.rooms, func(r baerapi.Room) bool { return r.Name == room.Name }),
			0, *room,
		)
	}
	l.mu.Unlock()

	l.logger.Info("room created", "room", room.Name)

	return *room, nil
}

// CanDelete reports whether the viewer may delete room.
func (l *Lobby) CanDelete(room baerapi.Room) bool {
	current := l.sessions.Current()
	return current.LoggedIn() && room.Name != DefaultRoom && room.Owner == current.User.Username
}

func (l *Lobby) Delete(ctx context.Context, name string) error {
	l.mu.Lock()
	room, ok := lo.Find(l.rooms, func(r baerapi.Room) bool { return r.Name == name })
	l.mu.Unlock()

	if !ok {
		room = baerapi.Room{Name: name}
	}
	if name == DefaultRoom || (ok && !l.CanDelete(room)) {
		return ErrNotOwner
	}

	if err := l.api.DeleteRoom(ctx, name); err != nil {
		return err
	}

	l.mu.Lock()
	l.rooms = slices.DeleteFunc(l.rooms, func(r baerapi.Room) bool { return r.Name == name })
	l.mu.Unlock()

	return nil
}

func (l *Lobby) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.epoch++
	l.rooms = nil
}

func (l *Lobby) currentEpoch() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.epoch
}
