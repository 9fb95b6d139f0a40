package realtime_test

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"baerhub/internal/realtime"
	"baerhub/internal/session"
	"baerhub/internal/testbackend"
	"baerhub/pkg/baerapi"
)

const (
	fallbackDelay = 50 * time.Millisecond
	waitFor       = 2 * time.Second
	tick          = 10 * time.Millisecond
)

type staticCredentials string

func (s staticCredentials) Token() string { return string(s) }
func (staticCredentials) Expire()         {}

type fixture struct {
	backend    *testbackend.Server
	transcript *realtime.Transcript
	client     *realtime.Client
	session    session.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	backend := testbackend.New()
	t.Cleanup(backend.Close)

	backend.AddUser("alice", "secret123", "")
	token := backend.IssueToken("alice")

	api := baerapi.NewClient(&baerapi.ClientConfig{BaseURL: backend.URL, Credentials: staticCredentials(token)})
	t.Cleanup(func() { _ = api.Close() })

	transcript := realtime.NewTranscript()
	client := realtime.NewClient(realtime.Config{
		URL:           backend.ChatURL(),
		FallbackDelay: fallbackDelay,
	}, api, transcript, nil)
	t.Cleanup(client.Teardown)

	return &fixture{
		backend:    backend,
		transcript: transcript,
		client:     client,
		session:    session.Session{Token: token, User: &baerapi.User{Username: "alice"}},
	}
}

func (f *fixture) join(t *testing.T, room string) {
	t.Helper()

	require.NoError(t, f.client.Join(context.Background(), f.session, room))
	require.Equal(t, realtime.Joined, f.client.State())

	// The join notice carries the roster and arrives after history.
	require.Eventually(t, func() bool {
		return slices.Contains(f.transcript.Roster(), "alice")
	}, waitFor, tick)
}

func indexOf(entries []realtime.Entry, text string) int {
	return slices.IndexFunc(entries, func(e realtime.Entry) bool { return e.Text == text })
}

func count(entries []realtime.Entry, text string) int {
	n := 0
	for _, e := range entries {
		if e.Text == text {
			n++
		}
	}
	return n
}

func TestJoinRendersHistoryBeforeLiveFrames(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.backend.AddChatLog("general", "bob", "old one")
	f.backend.AddChatLog("general", "alice", "old two")
	f.backend.HistoryDelay.Store(int64(200 * time.Millisecond))
	f.backend.OnJoin(func(string, string) []any {
		return []any{testbackend.ChatFrame("bob", "live hello")}
	})

	f.join(t, "general")

	require.Eventually(t, func() bool {
		return indexOf(f.transcript.Entries(), "live hello") >= 0
	}, waitFor, tick)

	entries := f.transcript.Entries()
	require.Equal(t, "general", f.transcript.Room())

	require.Equal(t, realtime.EntryDivider, entries[0].Kind)
	require.Equal(t, "─── last 2 messages ───", entries[0].Text)

	require.Equal(t, "old one", entries[1].Text)
	require.True(t, entries[1].History)
	require.False(t, entries[1].Mine)

	require.Equal(t, "old two", entries[2].Text)
	require.True(t, entries[2].History)
	require.True(t, entries[2].Mine)

	require.Equal(t, "─── live ───", entries[3].Text)
	require.Greater(t, indexOf(entries, "live hello"), 3)
	require.False(t, entries[indexOf(entries, "live hello")].History)
}

func TestJoinWithoutHistoryHasNoDividers(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.join(t, "general")

	for _, e := range f.transcript.Entries() {
		require.NotEqual(t, realtime.EntryDivider, e.Kind)
	}
}

func TestHistoryIsCapped(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for range realtime.HistoryLimit + 5 {
		f.backend.AddChatLog("general", "bob", "old")
	}

	f.join(t, "general")

	entries := f.transcript.Entries()
	require.Equal(t, "─── last 50 messages ───", entries[0].Text)
	require.Equal(t, realtime.HistoryLimit, count(entries, "old"))
}

func TestSendSuppressesOwnEcho(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.join(t, "general")

	require.NoError(t, f.client.Send("  hi there  "))

	require.Eventually(t, func() bool {
		return indexOf(f.transcript.Entries(), "hi there") >= 0
	}, waitFor, tick)

	entry := f.transcript.Entries()[indexOf(f.transcript.Entries(), "hi there")]
	require.True(t, entry.Mine)
	require.Equal(t, "alice", entry.Username)

	// The server echoes the message back; a later frame proves the echo was processed.
	require.Eventually(t, func() bool {
		return len(f.backend.Logs("general")) == 1
	}, waitFor, tick)
	f.backend.Push("general", testbackend.ChatFrame("bob", "after"))

	require.Eventually(t, func() bool {
		return indexOf(f.transcript.Entries(), "after") >= 0
	}, waitFor, tick)
	require.Equal(t, 1, count(f.transcript.Entries(), "hi there"))
}

func TestSystemFrameReplacesRoster(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.join(t, "general")

	f.backend.Push("general", testbackend.SystemFrame("bob has joined the room", "alice", "bob"))
	require.Eventually(t, func() bool {
		return slices.Equal(f.transcript.Roster(), []string{"alice", "bob"})
	}, waitFor, tick)

	f.backend.Push("general", testbackend.SystemFrame("bob has left the room", "alice"))
	require.Eventually(t, func() bool {
		return slices.Equal(f.transcript.Roster(), []string{"alice"})
	}, waitFor, tick)

	// A system frame without users keeps the roster.
	f.backend.Push("general", testbackend.SystemFrame("maintenance soon"))
	require.Eventually(t, func() bool {
		return indexOf(f.transcript.Entries(), "maintenance soon") >= 0
	}, waitFor, tick)
	require.Equal(t, []string{"alice"}, f.transcript.Roster())
}

func TestNonJSONFrameIsShownAsSystemText(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.join(t, "general")

	f.backend.PushRaw("general", []byte("plain text"))

	require.Eventually(t, func() bool {
		i := indexOf(f.transcript.Entries(), "plain text")
		return i >= 0 && f.transcript.Entries()[i].Kind == realtime.EntrySystem
	}, waitFor, tick)
}

func TestUndecodableFramesAreShownAsSystemText(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.join(t, "general")

	raw := []string{`"just a string"`, `[1,2]`, `{"type":"typing","username":"bob"}`}
	for _, data := range raw {
		f.backend.PushRaw("general", []byte(data))
	}

	for _, data := range raw {
		require.Eventually(t, func() bool {
			i := indexOf(f.transcript.Entries(), data)
			return i >= 0 && f.transcript.Entries()[i].Kind == realtime.EntrySystem
		}, waitFor, tick, data)
	}
}

func TestSendRefusesWhenOutboxFull(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.backend.HistoryDelay.Store(int64(500 * time.Millisecond))

	// The outbox is drained only after history has loaded.
	require.NoError(t, f.client.Join(context.Background(), f.session, "general"))

	for i := range realtime.OutboxSize {
		require.NoError(t, f.client.Send(fmt.Sprintf("line %d", i)))
	}
	require.ErrorIs(t, f.client.Send("one too many"), realtime.ErrOutboxFull)

	require.Eventually(t, func() bool {
		return len(f.backend.Logs("general")) == realtime.OutboxSize
	}, waitFor, tick)

	entries := f.transcript.Entries()
	mine := 0
	for _, e := range entries {
		if e.Mine {
			mine++
		}
	}
	require.Equal(t, realtime.OutboxSize, mine)
	require.Equal(t, -1, indexOf(entries, "one too many"))
}

func TestServerCloseFallsBackToRooms(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.join(t, "general")

	f.backend.Disconnect("general")

	require.Eventually(t, func() bool {
		return indexOf(f.transcript.Entries(), "Disconnected.") >= 0
	}, waitFor, tick)
	require.Equal(t, realtime.Disconnected, f.client.State())
	require.ErrorIs(t, f.client.Send("late"), realtime.ErrNotJoined)

	require.Eventually(t, func() bool {
		return f.transcript.RoomsShown() == 1
	}, waitFor, tick)
	require.Empty(t, f.client.Room())
}

func TestDialFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.session.Token = "bogus"

	require.Error(t, f.client.Join(context.Background(), f.session, "general"))

	entries := f.transcript.Entries()
	require.Equal(t, []string{"Connection failed.", "Disconnected."}, []string{entries[0].Text, entries[1].Text})

	require.Eventually(t, func() bool {
		return f.transcript.RoomsShown() == 1
	}, waitFor, tick)
}

func TestTeardownSkipsFallback(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.join(t, "general")

	f.client.Teardown()

	require.Equal(t, realtime.Disconnected, f.client.State())
	require.Empty(t, f.client.Room())
	require.Eventually(t, func() bool {
		return f.backend.Online("general") == 0
	}, waitFor, tick)

	time.Sleep(4 * fallbackDelay)
	require.Zero(t, f.transcript.RoomsShown())
	require.Equal(t, -1, indexOf(f.transcript.Entries(), "Disconnected."))
}

func TestTeardownCancelsPendingFallback(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.session.Token = "bogus"

	require.Error(t, f.client.Join(context.Background(), f.session, "general"))
	f.client.Teardown()

	time.Sleep(4 * fallbackDelay)
	require.Zero(t, f.transcript.RoomsShown())
}

func TestLeaveShowsRoomsImmediately(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.join(t, "general")

	f.client.Leave()
	require.Equal(t, 1, f.transcript.RoomsShown())

	time.Sleep(4 * fallbackDelay)
	require.Equal(t, 1, f.transcript.RoomsShown())
}

func TestJoinReplacesConnection(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.join(t, "random")
	f.join(t, "general")

	require.Equal(t, "general", f.client.Room())
	require.Eventually(t, func() bool {
		return f.backend.Online("random") == 0 && f.backend.Online("general") == 1
	}, waitFor, tick)

	time.Sleep(4 * fallbackDelay)
	require.Zero(t, f.transcript.RoomsShown())
}

func TestSendValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.ErrorIs(t, f.client.Send("hello"), realtime.ErrNotJoined)

	f.join(t, "general")
	require.ErrorIs(t, f.client.Send("   "), realtime.ErrEmptyMessage)
}

func TestJoinRequiresSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	require.ErrorIs(t, f.client.Join(context.Background(), session.Session{}, "general"), realtime.ErrNoSession)
}
