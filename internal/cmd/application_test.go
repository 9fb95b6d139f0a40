package cmd

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"baerhub/internal/testbackend"
)

type cliHarness struct {
	t       *testing.T
	backend *testbackend.Server
	dataDir string
}

func newHarness(t *testing.T) *cliHarness {
	t.Helper()

	backend := testbackend.New()
	t.Cleanup(backend.Close)

	return &cliHarness{t: t, backend: backend, dataDir: t.TempDir()}
}

// run executes the CLI with stdin and returns what it printed.
func (h *cliHarness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()

	var out bytes.Buffer
	command := New()
	command.Writer = &out
	command.ErrWriter = io.Discard
	command.Reader = strings.NewReader(stdin)

	argv := append([]string{"baerhub", "--api-url", h.backend.URL, "--data-dir", h.dataDir}, args...)
	err := command.Run(context.Background(), argv)

	return out.String(), err
}

func TestSessionCommands(t *testing.T) {
	h := newHarness(t)
	h.backend.AddUser("alice", "secret123", "Alice")

	out, err := h.run("", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Log In")

	out, err = h.run("secret123\n", "login", "alice")
	require.NoError(t, err)
	require.Contains(t, out, "Welcome back, alice!")

	out, err = h.run("", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "@alice")

	out, err = h.run("", "logout")
	require.NoError(t, err)
	require.Contains(t, out, "Logged out.")

	out, err = h.run("", "login", "--password", "nope", "alice")
	require.ErrorIs(t, err, errReported)
	require.Contains(t, out, "Incorrect username or password.")

	out, err = h.run("", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Log In")
}

func TestRegisterLogsIn(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "register", "--password", "hunter22", "--display-name", "Bob", "bob")
	require.NoError(t, err)
	require.Contains(t, out, "Welcome back, bob!")

	out, err = h.run("", "register", "--password", "hunter22", "bob")
	require.ErrorIs(t, err, errReported)
	require.Contains(t, out, "Username already taken")
}

func TestPostCommands(t *testing.T) {
	h := newHarness(t)
	h.backend.AddUser("alice", "secret123", "")

	_, err := h.run("", "login", "--password", "secret123", "alice")
	require.NoError(t, err)

	out, err := h.run("", "post", "hello", "world")
	require.NoError(t, err)
	require.Contains(t, out, "hello world")
	require.Contains(t, out, "Tweeted!")

	out, err = h.run("", "post", "   ")
	require.ErrorIs(t, err, errReported)
	require.Contains(t, out, "Write something first.")
	require.Equal(t, 1, h.backend.CountRequests("POST", "/tweets"))

	out, err = h.run("", "feed")
	require.NoError(t, err)
	require.Contains(t, out, "hello world")
	require.Contains(t, out, "#1")

	out, err = h.run("", "like", "1")
	require.NoError(t, err)
	require.Contains(t, out, "♥ 1")

	out, err = h.run("", "edit", "1", "hello again")
	require.NoError(t, err)
	require.Contains(t, out, "Tweet updated!")

	_, err = h.run("", "comment", "1", "first")
	require.NoError(t, err)

	out, err = h.run("", "comments", "1")
	require.NoError(t, err)
	require.Contains(t, out, "first")

	out, err = h.run("n\n", "delete", "1")
	require.NoError(t, err)
	require.Contains(t, out, "Kept.")

	out, err = h.run("y\n", "delete", "1")
	require.NoError(t, err)
	require.Contains(t, out, "Tweet deleted.")

	out, err = h.run("", "feed")
	require.NoError(t, err)
	require.Contains(t, out, "No posts yet.")
}

func TestAnonymousPostAsksToLogIn(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "post", "hello")
	require.ErrorIs(t, err, errReported)
	require.Contains(t, out, "Log in first.")
	require.NotContains(t, out, "like")
	require.Zero(t, h.backend.CountRequests("POST", "/tweets"))
}

func TestPostIDRequired(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "like", "first")
	require.ErrorIs(t, err, errPostID)
}

func TestRoomCommands(t *testing.T) {
	h := newHarness(t)
	h.backend.AddUser("alice", "secret123", "")

	out, err := h.run("", "rooms", "create", "--description", "cats only", "cats")
	require.ErrorIs(t, err, errReported)
	require.Contains(t, out, "Log in to create rooms.")

	_, err = h.run("", "login", "--password", "secret123", "alice")
	require.NoError(t, err)

	out, err = h.run("", "rooms", "create", "--description", "cats only", "cats")
	require.NoError(t, err)
	require.Contains(t, out, "# cats")

	out, err = h.run("", "rooms")
	require.NoError(t, err)
	require.Contains(t, out, "# general")
	require.Contains(t, out, "cats only")

	out, err = h.run("", "rooms", "delete", "--yes", "general")
	require.ErrorIs(t, err, errReported)
	require.Contains(t, out, "Only the owner can delete this room.")

	out, err = h.run("", "rooms", "delete", "--yes", "cats")
	require.NoError(t, err)
	require.Contains(t, out, `Room "cats" deleted.`)
}

func TestThemeCommand(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "theme")
	require.NoError(t, err)
	require.Equal(t, "light\n", out)

	out, err = h.run("", "theme", "toggle")
	require.NoError(t, err)
	require.Equal(t, "dark\n", out)

	out, err = h.run("", "theme")
	require.NoError(t, err)
	require.Equal(t, "dark\n", out)

	_, err = h.run("", "theme", "sepia")
	require.Error(t, err)
}

func TestChatCommand(t *testing.T) {
	h := newHarness(t)
	h.backend.AddUser("alice", "secret123", "")

	_, err := h.run("", "login", "--password", "secret123", "alice")
	require.NoError(t, err)

	out, err := h.run("/leave\n", "chat", "--room", "general")
	require.NoError(t, err)
	require.Contains(t, out, "# general")
	require.Contains(t, out, "General discussion")

	out, err = h.run("/quit\n", "chat", "--room", "general")
	require.NoError(t, err)
	require.NotContains(t, out, "General discussion")
}
