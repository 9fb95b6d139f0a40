package realtime

import (
	"slices"
	"sync"
	"time"
)

type EntryKind int

const (
	EntrySystem EntryKind = iota
	EntryChat
	EntryDivider
)

// Entry is one rendered line of a room's transcript.
type Entry struct {
	ID        string
	Kind      EntryKind
	Username  string
	Text      string
	Timestamp time.Time
	// History entries were loaded from the chat log and are rendered muted.
	History bool
	// Mine is set for messages authored by the current user.
	Mine bool
}

// Sink receives everything the chat client wants shown.
type Sink interface {
	Reset(room string)
	Append(entry Entry)
	SetRoster(users []string)
	// ShowRooms asks the host to return to the room list.
	ShowRooms()
}

type UpdateKind int

const (
	UpdateReset UpdateKind = iota
	UpdateAppend
	UpdateRoster
	UpdateShowRooms
)

type Update struct {
	Kind   UpdateKind
	Room   string
	Entry  Entry
	Roster []string
}

// Transcript is the in-memory Sink used by the terminal client.
type Transcript struct {
	mu         sync.RWMutex
	room       string
	entries    []Entry
	roster     []string
	roomsShown int
	listener   func(Update)
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// Listen sets a callback invoked after every change. It runs outside the transcript lock.
func (t *Transcript) Listen(fn func(Update)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listener = fn
}

func (t *Transcript) Reset(room string) {
	t.mu.Lock()
	t.room = room
	t.entries = nil
	t.roster = nil
	listener := t.listener
	t.mu.Unlock()

	if listener != nil {
		listener(Update{Kind: UpdateReset, Room: room})
	}
}

func (t *Transcript) Append(entry Entry) {
	t.mu.Lock()
	t.entries = append(t.entries, entry)
	room := t.room
	listener := t.listener
	t.mu.Unlock()

	if listener != nil {
		listener(Update{Kind: UpdateAppend, Room: room, Entry: entry})
	}
}

func (t *Transcript) SetRoster(users []string) {
	t.mu.Lock()
	t.roster = slices.Clone(users)
	room := t.room
	listener := t.listener
	t.mu.Unlock()

	if listener != nil {
		listener(Update{Kind: UpdateRoster, Room: room, Roster: slices.Clone(users)})
	}
}

func (t *Transcript) ShowRooms() {
	t.mu.Lock()
	t.roomsShown++
	room := t.room
	listener := t.listener
	t.mu.Unlock()

	if listener != nil {
		listener(Update{Kind: UpdateShowRooms, Room: room})
	}
}

func (t *Transcript) Room() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.room
}

func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.entries)
}

func (t *Transcript) Roster() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.roster)
}

// RoomsShown counts how often the room list was requested.
func (t *Transcript) RoomsShown() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.roomsShown
}
