package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/lo"
	"resty.dev/v3"

	"baerhub/internal/config"
	"baerhub/internal/core"
	"baerhub/internal/feed"
	"baerhub/internal/lobby"
	"baerhub/internal/metrics"
	"baerhub/internal/nav"
	"baerhub/internal/realtime"
	"baerhub/internal/session"
	"baerhub/pkg/baerapi"
)

var ErrNotInitialized = errors.New("app is not initialized")

// App is the session context every command works in. It owns the API client and the view-models,
// and resets them when the session ends.
type App struct {
	Logger  *slog.Logger
	Config  *config.Config
	Storage core.Storage

	api        *baerapi.Client
	session    *session.Store
	transcript *realtime.Transcript
	chat       *realtime.Client
	lobby      *lobby.Lobby
	feed       *feed.View
	nav        *nav.Nav

	unsubscribe func()
}

// New builds a ready App outside of the service container.
func New(ctx context.Context, cfg *config.Config, storage core.Storage, logger *slog.Logger) *App {
	a := &App{Logger: logger, Config: cfg, Storage: storage}
	a.wire(ctx)
	return a
}

func (a *App) Init(ctx context.Context) error {
	a.wire(ctx)
	return nil
}

func (a *App) Shutdown(_ context.Context) error {
	return a.Close()
}

func (a *App) wire(ctx context.Context) {
	a.Logger = lo.Ternary(a.Logger != nil, a.Logger, slog.Default())

	a.api = baerapi.NewClient(&baerapi.ClientConfig{
		BaseURL:             a.Config.APIURL,
		TransportSettings:   baerapi.DefaultConfig.TransportSettings,
		ResponseMiddlewares: []resty.ResponseMiddleware{metrics.APIMiddleware},
		Logger:              a.Logger,
	})

	// The store reads the client's token and the client expires the store on 401.
	a.session = session.New(ctx, a.Storage, a.api, a.Logger)
	a.api.SetCredentials(a.session)

	a.transcript = realtime.NewTranscript()
	a.chat = realtime.NewClient(realtime.Config{
		URL:           a.Config.ChatURL(),
		FallbackDelay: a.Config.FallbackDelay,
	}, a.api, a.transcript, a.Logger)

	a.lobby = lobby.New(a.api, a.session, a.Logger)
	a.feed = feed.New(a.api, a.session, a.Logger)
	a.nav = nav.New(ctx, a.session, a.Storage, a.Logger)

	a.unsubscribe = a.session.Subscribe(func(change session.Change, _ session.Session) {
		if change == session.LoggedIn {
			return
		}

		a.Logger.Debug("session ended, resetting views", "reason", change)
		a.chat.Teardown()
		a.transcript.Reset("")
		a.feed.Reset()
		a.lobby.Reset()
	})
}

func (a *App) API() *baerapi.Client             { return a.api }
func (a *App) Session() *session.Store          { return a.session }
func (a *App) Transcript() *realtime.Transcript { return a.transcript }
func (a *App) Chat() *realtime.Client           { return a.chat }
func (a *App) Lobby() *lobby.Lobby              { return a.lobby }
func (a *App) Feed() *feed.View                 { return a.feed }
func (a *App) Nav() *nav.Nav                    { return a.nav }

// Logout ends the session. Subscribers tear down the chat and reset the views before it returns.
func (a *App) Logout(ctx context.Context) {
	a.session.Logout(ctx)
}

func (a *App) Close() error {
	if a.api == nil {
		return ErrNotInitialized
	}

	a.unsubscribe()
	a.nav.Close()
	a.chat.Teardown()

	return a.api.Close()
}
