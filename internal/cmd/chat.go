package cmd

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"baerhub/internal/app"
	"baerhub/internal/cmd/flags"
	"baerhub/internal/config"
	"baerhub/internal/core"
	"baerhub/internal/metrics"
	"baerhub/internal/notice"
	"baerhub/internal/persistence"
	"baerhub/internal/realtime"
	"baerhub/internal/render"
	"baerhub/pkg/async"
)

var chatCmd = &cli.Command{
	Name:  "chat",
	Usage: "Join a chat room. /users lists who is online, /leave returns to the rooms, /quit exits",
	Flags: []cli.Flag{
		flags.Room,
		flags.MetricsAddr,
		flags.FallbackDelay,
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return run(ctx, c,
			pal.Provide[core.Storage](&persistence.Store{}),
			pal.Provide[core.MetricsServer](&metrics.HTTPServer{}),
			pal.Provide(&app.App{}),
			pal.Provide(&chatRunner{in: c.Root().Reader, w: c.Root().Writer}),
		)
	},
}

const roomListTimeout = 5 * time.Second

type chatRunner struct {
	Logger *slog.Logger
	Config *config.Config
	App    *app.App

	in io.Reader
	w  io.Writer
}

func (r *chatRunner) Init(_ context.Context) error {
	r.Logger = r.Logger.With("component", "cmd.chatRunner")
	if r.in == nil {
		r.in = os.Stdin
	}
	return nil
}

func (r *chatRunner) Run(ctx context.Context) error {
	out := newOutput(r.w, render.New(r.App.Nav().Theme()))
	chat := r.App.Chat()
	transcript := r.App.Transcript()

	// Listener callbacks run on the connection goroutine and must not call back into the client.
	leave := make(chan struct{}, 1)
	transcript.Listen(func(u realtime.Update) {
		switch u.Kind {
		case realtime.UpdateReset:
			if u.Room != "" {
				out.Println(out.renderer.Header(u.Room))
			}
		case realtime.UpdateAppend:
			out.Println(out.renderer.Entry(u.Entry))
		case realtime.UpdateRoster:
			if len(u.Roster) > 0 {
				out.Println(out.renderer.Roster(u.Roster))
			}
		case realtime.UpdateShowRooms:
			select {
			case leave <- struct{}{}:
			default:
			}
		}
	})
	defer transcript.Listen(nil)

	if err := chat.Join(ctx, r.App.Session().Current(), r.Config.Room); err != nil {
		return out.Fail(err, "Could not join "+r.Config.Room+".")
	}

	lines := async.Generator(ctx, func(ctx context.Context, yield async.Yielder[string]) error {
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			if err := yield(scanner.Text()); err != nil {
				return err
			}
		}
		return scanner.Err()
	})

	for {
		select {
		case <-ctx.Done():
			chat.Teardown()
			return nil

		case <-leave:
			return r.showRooms(ctx, out)

		case res, ok := <-lines:
			if !ok {
				chat.Leave()
				return r.showRooms(ctx, out)
			}
			line, err := res.Unpack()
			if err != nil {
				r.Logger.Warn("reading input failed", "error", err)
				chat.Leave()
				return r.showRooms(ctx, out)
			}

			switch strings.TrimSpace(line) {
			case "":
			case "/quit":
				chat.Teardown()
				return nil
			case "/leave":
				chat.Leave()
			case "/users":
				out.Println(out.renderer.Roster(transcript.Roster()))
			default:
				if err := chat.Send(line); err != nil {
					out.Notice(notice.ForError(err, ""))
				}
			}
		}
	}
}

func (r *chatRunner) showRooms(ctx context.Context, out *output) error {
	// The chat context may already be gone.
	listCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), roomListTimeout)
	defer cancel()

	if err := listRooms(listCtx, r.App, out); err != nil {
		r.Logger.Debug("room list failed", "error", err)
	}
	return nil
}
