package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"baerhub/internal/app"
	"baerhub/internal/cmd/flags"
	"baerhub/internal/config"
	"baerhub/internal/notice"
	"baerhub/internal/persistence"
	"baerhub/internal/render"
	"baerhub/pkg/clicfg"
)

const VERSION = "0.1.0"

// errReported marks failures whose message was already shown to the user.
var errReported = errors.New("reported")

func New() *cli.Command {
	return &cli.Command{
		Name:    "baerhub",
		Usage:   "baerhub is a terminal client for the baerhub feed and chat",
		Version: VERSION,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := initLogger(c); err != nil {
				return ctx, err
			}
			return ctx, nil
		},
		Flags: []cli.Flag{
			flags.APIURL,
			flags.WSURL,
			flags.DataDir,
			flags.LogLevel,
			flags.Timeout,
		},
		Commands: []*cli.Command{
			loginCmd,
			registerCmd,
			logoutCmd,
			whoamiCmd,
			feedCmd,
			postCmd,
			editCmd,
			deleteCmd,
			likeCmd,
			commentsCmd,
			commentCmd,
			roomsCmd,
			chatCmd,
			themeCmd,
		},
	}
}

func Run() {
	if err := New().Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func parseConfig(c *cli.Command) (*config.Config, error) {
	cfg := config.Config{}
	if err := clicfg.ParseFlags(c, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// withApp runs fn against an App backed by the on-disk store. Short commands do not need the
// service container.
func withApp(ctx context.Context, c *cli.Command, fn func(context.Context, *app.App, *output) error) error {
	cfg, err := parseConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
	defer cancel()

	store, err := persistence.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Shutdown(ctx) //nolint:errcheck

	a := app.New(ctx, cfg, store, slog.Default())
	defer a.Close() //nolint:errcheck

	return fn(ctx, a, newOutput(c.Root().Writer, render.New(a.Nav().Theme())))
}

// run starts the long-running services under pal until they finish or a signal arrives.
func run(ctx context.Context, c *cli.Command, services ...pal.ServiceDef) error {
	cfg, err := parseConfig(c)
	if err != nil {
		return err
	}
	services = append(services, pal.Provide(cfg))

	return pal.New(services...).
		InjectSlog().
		InitTimeout(5*time.Second).
		HealthCheckTimeout(1*time.Second).
		ShutdownTimeout(5*time.Second).
		Run(ctx, syscall.SIGINT, syscall.SIGTERM)
}

type output struct {
	w        io.Writer
	renderer *render.Renderer
}

func newOutput(w io.Writer, renderer *render.Renderer) *output {
	if w == nil {
		w = os.Stdout
	}
	return &output{w: w, renderer: renderer}
}

func (o *output) Println(s string) {
	fmt.Fprintln(o.w, s)
}

func (o *output) Notice(n notice.Notice) {
	o.Println(o.renderer.Notice(n))
}

// Fail prints the user-facing message for err and returns it for the exit code.
func (o *output) Fail(err error, fallback string) error {
	n := notice.ForError(err, fallback)
	o.Notice(n)
	return fmt.Errorf("%w: %w", errReported, err)
}
