package nav

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"

	"baerhub/internal/core"
	"baerhub/internal/notice"
	"baerhub/internal/session"
	"baerhub/pkg/baerapi"
)

type Auth interface {
	Current() session.Session
	Login(ctx context.Context, username, password string) (session.Session, error)
	CreateAccount(ctx context.Context, username, password, displayName string) (*baerapi.User, error)
	Logout(ctx context.Context)
	Subscribe(fn session.Listener) func()
}

// Pill is the logged-in user's badge in the nav bar.
type Pill struct {
	Letter       string
	Username     string
	DisplayName  string
	DropdownOpen bool
}

// View is what the nav bar shows. Pill is nil for anonymous visitors, who get the log in
// affordance instead.
type View struct {
	Pill  *Pill
	Theme Theme
}

func (v View) LoggedIn() bool {
	return v.Pill != nil
}

type Nav struct {
	auth    Auth
	storage core.Storage
	logger  *slog.Logger

	mu           sync.Mutex
	dropdownOpen bool
	modal        *Modal
	theme        Theme
	unsubscribe  func()
}

func New(ctx context.Context, auth Auth, storage core.Storage, logger *slog.Logger) *Nav {
	logger = lo.Ternary(logger != nil, logger, slog.Default())

	n := &Nav{
		auth:    auth,
		storage: storage,
		logger:  logger.With("component", "nav.Nav"),
	}

	n.theme = n.loadTheme(ctx)
	n.unsubscribe = auth.Subscribe(func(session.Change, session.Session) {
		n.mu.Lock()
		n.dropdownOpen = false
		n.mu.Unlock()
	})

	return n
}

func (n *Nav) Close() {
	n.unsubscribe()
}

func (n *Nav) View() View {
	current := n.auth.Current()

	n.mu.Lock()
	defer n.mu.Unlock()

	view := View{Theme: n.theme}
	if !current.LoggedIn() {
		return view
	}

	view.Pill = &Pill{
		Letter:       avatarLetter(current.User.Name()),
		Username:     current.User.Username,
		DisplayName:  current.User.Name(),
		DropdownOpen: n.dropdownOpen,
	}

	return view
}

func (n *Nav) ToggleDropdown() {
	if !n.auth.Current().LoggedIn() {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.dropdownOpen = !n.dropdownOpen
}

// OutsideClick closes the dropdown.
func (n *Nav) OutsideClick() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dropdownOpen = false
}

// Modal returns the shared login/register modal, creating it on first use.
func (n *Nav) Modal() *Modal {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.modal == nil {
		n.modal = newModal(n.auth, n.logger)
	}
	return n.modal
}

func (n *Nav) Logout(ctx context.Context) notice.Notice {
	n.auth.Logout(ctx)
	return notice.OK(notice.LoggedOut)
}

func avatarLetter(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}

	r, _ := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r))
}
