package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"baerhub/internal/app"
	"baerhub/internal/cmd/flags"
)

var roomsCmd = &cli.Command{
	Name:  "rooms",
	Usage: "List chat rooms",
	Action: func(ctx context.Context, c *cli.Command) error {
		return withApp(ctx, c, func(ctx context.Context, a *app.App, out *output) error {
			return listRooms(ctx, a, out)
		})
	},
	Commands: []*cli.Command{
		{
			Name:      "create",
			Usage:     "Create a chat room",
			ArgsUsage: "<name>",
			Flags:     []cli.Flag{flags.Description},
			Action: func(ctx context.Context, c *cli.Command) error {
				return withApp(ctx, c, func(ctx context.Context, a *app.App, out *output) error {
					room, err := a.Lobby().Create(ctx, c.Args().First(), c.String("description"))
					if err != nil {
						return out.Fail(err, "Could not create the room.")
					}
					out.Println(out.renderer.Room(room, a.Lobby().CanDelete(room)))
					return nil
				})
			},
		},
		{
			Name:      "delete",
			Usage:     "Delete a room you own",
			ArgsUsage: "<name>",
			Flags:     []cli.Flag{flags.Yes},
			Action: func(ctx context.Context, c *cli.Command) error {
				name := c.Args().First()

				return withApp(ctx, c, func(ctx context.Context, a *app.App, out *output) error {
					if err := a.Lobby().Refresh(ctx); err != nil {
						return out.Fail(err, "Could not load the rooms.")
					}
					if !c.Bool("yes") && !newPrompter(c).Confirm(fmt.Sprintf("Delete room %q?", name)) {
						out.Println("Kept.")
						return nil
					}
					if err := a.Lobby().Delete(ctx, name); err != nil {
						return out.Fail(err, "Could not delete the room.")
					}
					out.Println(fmt.Sprintf("Room %q deleted.", name))
					return nil
				})
			},
		},
	},
}

func listRooms(ctx context.Context, a *app.App, out *output) error {
	if err := a.Lobby().Refresh(ctx); err != nil {
		return out.Fail(err, "Could not load the rooms.")
	}

	for _, room := range a.Lobby().Rooms() {
		out.Println(out.renderer.Room(room, a.Lobby().CanDelete(room)))
	}
	return nil
}
