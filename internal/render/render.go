// Package render draws the view-models for the terminal.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"baerhub/internal/feed"
	"baerhub/internal/nav"
	"baerhub/internal/notice"
	"baerhub/internal/realtime"
	"baerhub/pkg/baerapi"
)

type palette struct {
	accent lipgloss.Color
	text   lipgloss.Color
	muted  lipgloss.Color
	error  lipgloss.Color
	ok     lipgloss.Color
}

var palettes = map[nav.Theme]palette{
	nav.Light: {accent: "#c2410c", text: "#1f2937", muted: "#6b7280", error: "#b91c1c", ok: "#15803d"},
	nav.Dark:  {accent: "#fb923c", text: "#f3f4f6", muted: "#9ca3af", error: "#f87171", ok: "#4ade80"},
}

type Renderer struct {
	me     lipgloss.Style
	other  lipgloss.Style
	sender lipgloss.Style
	system lipgloss.Style
	muted  lipgloss.Style
	accent lipgloss.Style
	card   lipgloss.Style
	errorS lipgloss.Style
	okS    lipgloss.Style
	pill   lipgloss.Style
}

func New(theme nav.Theme) *Renderer {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[nav.Light]
	}

	return &Renderer{
		me:     lipgloss.NewStyle().Foreground(p.accent),
		other:  lipgloss.NewStyle().Foreground(p.text),
		sender: lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		system: lipgloss.NewStyle().Foreground(p.muted).Italic(true),
		muted:  lipgloss.NewStyle().Foreground(p.muted).Faint(true),
		accent: lipgloss.NewStyle().Foreground(p.accent),
		card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.muted).
			Padding(0, 1),
		errorS: lipgloss.NewStyle().Foreground(p.error),
		okS:    lipgloss.NewStyle().Foreground(p.ok),
		pill:   lipgloss.NewStyle().Foreground(p.text).Background(p.accent).Padding(0, 1),
	}
}

func clock(t time.Time) string {
	return t.Local().Format("15:04")
}

// Header titles the transcript of room.
func (r *Renderer) Header(room string) string {
	return r.sender.Render("# " + room)
}

// Entry renders one transcript line. History entries are muted as a whole.
func (r *Renderer) Entry(e realtime.Entry) string {
	at := clock(e.Timestamp)

	switch {
	case e.Kind == realtime.EntryDivider:
		return r.system.Render(e.Text)

	case e.Kind == realtime.EntrySystem:
		return r.system.Render(e.Text + " " + at)

	case e.History && e.Mine:
		return r.muted.Render(e.Text + " " + at)

	case e.History:
		return r.muted.Render(e.Username + " " + e.Text + " " + at)

	case e.Mine:
		return r.me.Render(e.Text) + " " + r.muted.Render(at)

	default:
		return r.sender.Render(e.Username) + " " + r.other.Render(e.Text) + " " + r.muted.Render(at)
	}
}

func (r *Renderer) Roster(users []string) string {
	if len(users) == 0 {
		return r.muted.Render("nobody online")
	}
	return r.accent.Render(fmt.Sprintf("%d online: ", len(users))) + strings.Join(users, ", ")
}

// Card renders a post. canModify adds the author's edit/delete hints.
func (r *Renderer) Card(c feed.Card, canModify bool) string {
	p := c.Post

	header := r.sender.Render(p.Author.DisplayName)
	if p.Author.DisplayName == "" {
		header = r.sender.Render(p.Author.Username)
	}
	header += " " + r.muted.Render(fmt.Sprintf("@%s · #%d · %s", p.Author.Username, p.ID, p.CreatedAt.Local().Format("Jan 2 15:04")))
	if p.IsEdited {
		header += r.muted.Render(" · edited")
	}

	heart := lo.Ternary(p.LikedByMe, "♥", "♡")
	footer := fmt.Sprintf("%s %d   💬 %d", heart, p.LikeCount, p.CommentCount)
	switch c.Like {
	case feed.Pending:
		footer += r.muted.Render(" …")
	case feed.RolledBack:
		footer += r.errorS.Render(" (not saved)")
	}
	if canModify {
		footer += r.muted.Render("   edit · delete")
	}

	body := strings.Join([]string{header, p.Content, r.accent.Render(footer)}, "\n")

	style := r.card
	if c.Transition == feed.FadeIn {
		style = style.BorderForeground(r.accent.GetForeground())
	}
	if c.Transition == feed.FadeOut {
		style = style.Faint(true)
	}

	return style.Render(body)
}

func (r *Renderer) Comment(c baerapi.Comment) string {
	return fmt.Sprintf("%s %s %s", r.sender.Render(c.Author.Username), c.Content, r.muted.Render(c.CreatedAt.Local().Format("Jan 2 15:04")))
}

// Room renders a lobby entry. canDelete adds the owner's delete hint.
func (r *Renderer) Room(room baerapi.Room, canDelete bool) string {
	line := r.accent.Render("# "+room.Name) + " " + r.muted.Render(lo.Ternary(room.Description != "", room.Description, "No description"))
	if room.Online > 0 {
		line += " " + r.okS.Render(fmt.Sprintf("● %d online", room.Online))
	}
	if canDelete {
		line += " " + r.muted.Render("(yours, deletable)")
	}
	return line
}

// Nav renders the nav bar: the user pill, or the log in affordance.
func (r *Renderer) Nav(v nav.View) string {
	if !v.LoggedIn() {
		return r.accent.Render("Log In")
	}

	line := r.pill.Render(v.Pill.Letter) + " " + v.Pill.DisplayName + " " + r.muted.Render("@"+v.Pill.Username)
	if v.Pill.DropdownOpen {
		line += "\n  " + r.muted.Render("Log out")
	}
	return line
}

func (r *Renderer) Notice(n notice.Notice) string {
	if n.Level == notice.Error {
		return r.errorS.Render(n.Text)
	}
	return r.okS.Render(n.Text)
}
