package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"baerhub/internal/app"
	"baerhub/internal/cmd/flags"
	"baerhub/internal/nav"
	"baerhub/internal/notice"
)

var loginCmd = &cli.Command{
	Name:      "login",
	Usage:     "Log in and remember the session",
	ArgsUsage: "[username]",
	Flags:     []cli.Flag{flags.Password},
	Action: func(ctx context.Context, c *cli.Command) error {
		username, password, err := credentials(c)
		if err != nil {
			return err
		}

		return withApp(ctx, c, func(ctx context.Context, a *app.App, out *output) error {
			modal := a.Nav().Modal()
			modal.Open(nav.LoginTab)
			modal.FillLogin(username, password)

			n, err := modal.SubmitLogin(ctx)
			out.Notice(n)
			if err != nil {
				return fmt.Errorf("%w: %w", errReported, err)
			}
			return nil
		})
	},
}

var registerCmd = &cli.Command{
	Name:      "register",
	Usage:     "Create an account and log in",
	ArgsUsage: "[username]",
	Flags:     []cli.Flag{flags.Password, flags.DisplayName},
	Action: func(ctx context.Context, c *cli.Command) error {
		username, password, err := credentials(c)
		if err != nil {
			return err
		}

		return withApp(ctx, c, func(ctx context.Context, a *app.App, out *output) error {
			modal := a.Nav().Modal()
			modal.Open(nav.RegisterTab)
			modal.FillRegister(username, password, c.String("display-name"))

			n, err := modal.SubmitRegister(ctx)
			out.Notice(n)
			if err != nil {
				return fmt.Errorf("%w: %w", errReported, err)
			}
			return nil
		})
	},
}

var logoutCmd = &cli.Command{
	Name:  "logout",
	Usage: "Forget the session",
	Action: func(ctx context.Context, c *cli.Command) error {
		return withApp(ctx, c, func(ctx context.Context, a *app.App, out *output) error {
			a.Logout(ctx)
			out.Notice(notice.OK(notice.LoggedOut))
			return nil
		})
	},
}

var whoamiCmd = &cli.Command{
	Name:  "whoami",
	Usage: "Show who is logged in",
	Action: func(ctx context.Context, c *cli.Command) error {
		return withApp(ctx, c, func(_ context.Context, a *app.App, out *output) error {
			out.Println(out.renderer.Nav(a.Nav().View()))
			return nil
		})
	},
}

// credentials takes the username from the first argument and the password from --password,
// prompting for whatever is missing.
func credentials(c *cli.Command) (string, string, error) {
	p := newPrompter(c)

	username := c.Args().First()
	if username == "" {
		var err error
		if username, err = p.Line("Username: "); err != nil {
			return "", "", err
		}
	}

	password := c.String("password")
	if password == "" {
		var err error
		if password, err = p.Secret("Password: "); err != nil {
			return "", "", err
		}
	}

	return username, password, nil
}
