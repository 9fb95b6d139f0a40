package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"baerhub/internal/feed"
	"baerhub/internal/nav"
	"baerhub/internal/realtime"
	"baerhub/pkg/baerapi"
)

func TestEntry(t *testing.T) {
	t.Parallel()

	r := New(nav.Dark)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)

	require.Contains(t, r.Entry(realtime.Entry{Kind: realtime.EntryChat, Username: "bob", Text: "hey", Timestamp: at}), "hey")
	require.Contains(t, r.Entry(realtime.Entry{Kind: realtime.EntryChat, Username: "bob", Text: "old", Timestamp: at, History: true}), "bob")
	require.Contains(t, r.Entry(realtime.Entry{Kind: realtime.EntrySystem, Text: "Disconnected.", Timestamp: at}), "10:00")
	require.Contains(t, r.Entry(realtime.Entry{Kind: realtime.EntryDivider, Text: "─── live ───"}), "live")
}

func TestCard(t *testing.T) {
	t.Parallel()

	r := New(nav.Light)
	card := feed.Card{Post: baerapi.Post{
		ID:        7,
		Content:   "hello world",
		Author:    baerapi.Author{Username: "alice"},
		LikeCount: 3,
		LikedByMe: true,
	}}

	out := r.Card(card, true)
	require.Contains(t, out, "hello world")
	require.Contains(t, out, "@alice")
	require.Contains(t, out, "♥ 3")
	require.Contains(t, out, "delete")

	card.Like = feed.RolledBack
	require.Contains(t, r.Card(card, false), "not saved")
	require.NotContains(t, r.Card(card, false), "delete")
}

func TestNav(t *testing.T) {
	t.Parallel()

	r := New(nav.Light)
	require.Contains(t, r.Nav(nav.View{}), "Log In")

	out := r.Nav(nav.View{Pill: &nav.Pill{Letter: "A", Username: "alice", DisplayName: "Alice", DropdownOpen: true}})
	require.Contains(t, out, "@alice")
	require.Contains(t, out, "Log out")
}

func TestRoom(t *testing.T) {
	t.Parallel()

	r := New(nav.Light)
	out := r.Room(baerapi.Room{Name: "general", Online: 2}, false)
	require.Contains(t, out, "# general")
	require.Contains(t, out, "No description")
	require.Contains(t, out, "2 online")
}
