package baerapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const (
	tokenPath = "/token"
	userPath  = "/user"
)

// Login exchanges credentials for an access token. Wrong credentials return ErrAuth.
func (c *Client) Login(ctx context.Context, username, password string) (*Token, error) {
	res, err := c.send(
		c.r(ctx).
			SetFormData(map[string]string{
				"username": username,
				"password": password,
			}).
			SetResult(&Token{}),
		http.MethodPost, tokenPath, false,
	)
	if err != nil {
		return nil, err
	}

	token := res.Result().(*Token)
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrServer)
	}

	return token, nil
}

// CreateUser registers a new account. It does not log in.
func (c *Client) CreateUser(ctx context.Context, user UserCreate) (*User, error) {
	user.Username = strings.TrimSpace(user.Username)
	user.DisplayName = strings.TrimSpace(user.DisplayName)

	if user.Username == "" || user.Password == "" {
		return nil, fmt.Errorf("%w: username and password required", ErrValidation)
	}

	res, err := c.send(
		c.r(ctx).
			SetBody(user).
			SetResult(&User{}),
		http.MethodPost, userPath, false,
	)
	if err != nil {
		return nil, err
	}

	return res.Result().(*User), nil
}
