package cmd

import (
	"context"

	"github.com/urfave/cli/v3"

	"baerhub/internal/app"
	"baerhub/internal/nav"
	"baerhub/internal/render"
)

var themeCmd = &cli.Command{
	Name:      "theme",
	Usage:     "Show or change the color theme",
	ArgsUsage: "[light|dark|toggle]",
	Action: func(ctx context.Context, c *cli.Command) error {
		return withApp(ctx, c, func(ctx context.Context, a *app.App, out *output) error {
			arg := c.Args().First()

			var err error
			switch arg {
			case "":
			case "toggle":
				_, err = a.Nav().ToggleTheme(ctx)
			default:
				var theme nav.Theme
				if theme, err = nav.ParseTheme(arg); err == nil {
					err = a.Nav().SetTheme(ctx, theme)
				}
			}
			if err != nil {
				return err
			}

			out.renderer = render.New(a.Nav().Theme())
			out.Println(string(a.Nav().Theme()))
			return nil
		})
	},
}
