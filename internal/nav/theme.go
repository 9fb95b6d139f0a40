package nav

import (
	"context"
	"errors"
	"fmt"

	"baerhub/internal/core"
)

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

var ErrUnknownTheme = errors.New("unknown theme")

func ParseTheme(s string) (Theme, error) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, s)
	}
}

func (n *Nav) loadTheme(ctx context.Context) Theme {
	raw, err := n.storage.Get(ctx, core.ThemeKey)
	if err != nil {
		if !errors.Is(err, core.ErrKeyNotFound) {
			n.logger.Warn("reading theme", "error", err)
		}
		return Light
	}

	theme, err := ParseTheme(string(raw))
	if err != nil {
		return Light
	}
	return theme
}

func (n *Nav) Theme() Theme {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.theme
}

func (n *Nav) SetTheme(ctx context.Context, theme Theme) error {
	if _, err := ParseTheme(string(theme)); err != nil {
		return err
	}

	if err := n.storage.Put(ctx, core.ThemeKey, []byte(theme)); err != nil {
		return err
	}

	n.mu.Lock()
	n.theme = theme
	n.mu.Unlock()

	return nil
}

func (n *Nav) ToggleTheme(ctx context.Context) (Theme, error) {
	next := Dark
	if n.Theme() == Dark {
		next = Light
	}

	return next, n.SetTheme(ctx, next)
}
