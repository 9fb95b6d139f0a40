package nav

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"baerhub/internal/notice"
)

var ErrFormIncomplete = errors.New("form incomplete")

type Tab int

const (
	LoginTab Tab = iota
	RegisterTab
)

func (t Tab) String() string {
	if t == RegisterTab {
		return "register"
	}
	return "login"
}

type Form struct {
	Username    string
	Password    string
	DisplayName string
	Error       string
}

// Modal is the one login/register dialog shared by every page.
type Modal struct {
	auth   Auth
	logger *slog.Logger

	mu       sync.Mutex
	open     bool
	tab      Tab
	login    Form
	register Form
}

func newModal(auth Auth, logger *slog.Logger) *Modal {
	return &Modal{auth: auth, logger: logger}
}

func (m *Modal) Open(tab Tab) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.open = true
	m.switchTab(tab)
}

func (m *Modal) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.open = false
	m.login.Password = ""
	m.register.Password = ""
}

func (m *Modal) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *Modal) Tab() Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tab
}

// SwitchTab changes the tab and clears both error texts.
func (m *Modal) SwitchTab(tab Tab) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.switchTab(tab)
}

func (m *Modal) switchTab(tab Tab) {
	m.tab = tab
	m.login.Error = ""
	m.register.Error = ""
}

func (m *Modal) LoginForm() Form {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.login
}

func (m *Modal) RegisterForm() Form {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.register
}

func (m *Modal) FillLogin(username, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.login.Username = username
	m.login.Password = password
}

func (m *Modal) FillRegister(username, password, displayName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.register.Username = username
	m.register.Password = password
	m.register.DisplayName = displayName
}

// SubmitLogin logs in with the login form. On success the modal closes; otherwise the form
// error is set and returned as the notice.
func (m *Modal) SubmitLogin(ctx context.Context) (notice.Notice, error) {
	m.mu.Lock()
	m.login.Error = ""
	username := strings.TrimSpace(m.login.Username)
	password := m.login.Password
	m.mu.Unlock()

	if username == "" || password == "" {
		return m.loginFailed(notice.Notice{Level: notice.Error, Text: notice.FillAllFields}, nil)
	}

	s, err := m.auth.Login(ctx, username, password)
	if err != nil {
		m.logger.Debug("login failed", "username", username, "error", err)
		return m.loginFailed(notice.ForError(err, "Login failed."), err)
	}

	m.Close()

	return notice.WelcomeBack(s.User.Username), nil
}

func (m *Modal) loginFailed(n notice.Notice, err error) (notice.Notice, error) {
	m.mu.Lock()
	m.login.Error = n.Text
	m.mu.Unlock()

	if err == nil {
		err = ErrFormIncomplete
	}
	return n, err
}

// SubmitRegister creates the account, then moves its credentials into the login form and
// submits that.
func (m *Modal) SubmitRegister(ctx context.Context) (notice.Notice, error) {
	m.mu.Lock()
	m.register.Error = ""
	form := m.register
	m.mu.Unlock()

	if _, err := m.auth.CreateAccount(ctx, form.Username, form.Password, form.DisplayName); err != nil {
		n := notice.ForError(err, "Registration failed.")

		m.mu.Lock()
		m.register.Error = n.Text
		m.mu.Unlock()

		return n, err
	}

	m.mu.Lock()
	m.login.Username = strings.TrimSpace(form.Username)
	m.login.Password = form.Password
	m.register = Form{}
	m.switchTab(LoginTab)
	m.mu.Unlock()

	return m.SubmitLogin(ctx)
}
