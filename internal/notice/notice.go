// Package notice turns errors and outcomes into the short messages shown to the user.
package notice

import (
	"errors"
	"fmt"

	"baerhub/internal/feed"
	"baerhub/internal/lobby"
	"baerhub/internal/realtime"
	"baerhub/internal/session"
	"baerhub/pkg/baerapi"
)

type Level int

const (
	Success Level = iota
	Error
)

func (l Level) String() string {
	if l == Error {
		return "error"
	}
	return "success"
}

type Notice struct {
	Level Level
	Text  string
}

func (n Notice) String() string {
	return n.Text
}

const (
	Tweeted        = "Tweeted!"
	TweetUpdated   = "Tweet updated!"
	TweetDeleted   = "Tweet deleted."
	LoggedOut      = "Logged out."
	SessionExpired = "Session expired. Log in again."
	NetworkError   = "Network error. Is the backend running?"
	BadCredentials = "Incorrect username or password."
	FillAllFields  = "Fill in all fields."
)

func OK(text string) Notice {
	return Notice{Level: Success, Text: text}
}

func WelcomeBack(username string) Notice {
	return OK(fmt.Sprintf("Welcome back, %s!", username))
}

// messages is checked in order; the first matching sentinel wins.
var messages = []struct {
	err  error
	text string
}{
	{baerapi.ErrSessionExpired, SessionExpired},
	{baerapi.ErrNetwork, NetworkError},
	{baerapi.ErrAuth, BadCredentials},
	{baerapi.ErrEmptyContent, "Write something first."},
	{baerapi.ErrContentTooLong, "Max 280 characters."},
	{session.ErrMissingCredentials, "Username and password required."},
	{lobby.ErrNameRequired, "Room name is required."},
	{lobby.ErrNotOwner, "Only the owner can delete this room."},
	{lobby.ErrNotLoggedIn, "Log in to create rooms."},
	{feed.ErrNotLoggedIn, "Log in first."},
	{feed.ErrLikePending, "Still saving your last like."},
	{feed.ErrNotAuthor, "Not your tweet."},
	{feed.ErrNoPendingDelete, "Nothing to delete."},
	{feed.ErrUnknownPost, "No such tweet."},
	{feed.ErrEndOfFeed, "No older tweets."},
	{realtime.ErrNotJoined, "Join a room first."},
	{realtime.ErrEmptyMessage, "Type a message first."},
	{realtime.ErrOutboxFull, "Still sending, try again in a moment."},
	{realtime.ErrNoSession, "Log in to chat."},
}

// ForError returns the message for err. Server-provided detail text is preferred for request
// errors without a fixed message; fallback is used when there is neither.
func ForError(err error, fallback string) Notice {
	if err == nil {
		return OK(fallback)
	}

	for _, m := range messages {
		if errors.Is(err, m.err) {
			return Notice{Level: Error, Text: m.text}
		}
	}

	if detail := baerapi.Detail(err); detail != "" {
		return Notice{Level: Error, Text: detail}
	}

	if fallback == "" {
		fallback = err.Error()
	}

	return Notice{Level: Error, Text: fallback}
}
