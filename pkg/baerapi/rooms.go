package baerapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	roomsPath    = "/rooms"
	roomPath     = "/rooms/{name}"
	chatLogsPath = "/chat_logs"
)

func (c *Client) Rooms(ctx context.Context) ([]Room, error) {
	res, err := c.send(c.r(ctx).SetResult(&[]Room{}), http.MethodGet, roomsPath, false)
	if err != nil {
		return nil, err
	}

	return *res.Result().(*[]Room), nil
}

func (c *Client) CreateRoom(ctx context.Context, room RoomCreate) (*Room, error) {
	room.Name = strings.TrimSpace(room.Name)
	room.Description = strings.TrimSpace(room.Description)

	if room.Name == "" {
		return nil, fmt.Errorf("%w: room name is required", ErrValidation)
	}

	req, authenticated := c.authed(ctx)

	res, err := c.send(req.SetBody(room).SetResult(&Room{}), http.MethodPost, roomsPath, authenticated)
	if err != nil {
		return nil, err
	}

	return res.Result().(*Room), nil
}

func (c *Client) DeleteRoom(ctx context.Context, name string) error {
	req, authenticated := c.authed(ctx)

	_, err := c.send(req.SetPathParam("name", name), http.MethodDelete, roomPath, authenticated)
	return err
}

// ChatLogs returns the stored messages of room, oldest first. An empty room name asks for every
// room. The server answers 404 when there is nothing yet, which is reported as no history.
func (c *Client) ChatLogs(ctx context.Context, room string) ([]ChatMessage, error) {
	req, authenticated := c.authed(ctx)
	if room != "" {
		req.SetQueryParam("room", room)
	}

	res, err := c.send(req.SetResult(&[]ChatMessage{}), http.MethodGet, chatLogsPath, authenticated)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return *res.Result().(*[]ChatMessage), nil
}
