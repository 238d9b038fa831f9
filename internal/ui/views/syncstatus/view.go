package syncstatus

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	reconciledto "webtally/internal/modules/reconcile/dto"
	"webtally/internal/platform/notify"
	"webtally/internal/ui/theme"
)

const feedLimit = 20

// ─── port ────────────────────────────────────────────────────────────────────

type SyncPort interface {
	SyncStatus(ctx context.Context) (reconciledto.StatusOutput, error)
	Notifications(ctx context.Context, limit int) ([]notify.Notification, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Status reconciledto.StatusOutput
	Feed   []notify.Notification
	Err    error
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port   SyncPort
	status reconciledto.StatusOutput
	feed   []notify.Notification
	err    error
	body   viewport.Model
	width  int
	height int
}

func New(port SyncPort) Model {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Foreground(theme.Text)
	return Model{port: port, body: vp}
}

func (m Model) Init() tea.Cmd {
	return m.Refresh()
}

// Refresh reloads the sync state and the notification feed.
func (m Model) Refresh() tea.Cmd {
	return func() tea.Msg {
		status, err := m.port.SyncStatus(context.Background())
		if err != nil {
			return LoadedMsg{Err: err}
		}
		feed, err := m.port.Notifications(context.Background(), feedLimit)
		return LoadedMsg{Status: status, Feed: feed, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.body.Width = msg.Width
		m.body.Height = msg.Height
		m.body.SetContent(m.render())

	case LoadedMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.status = msg.Status
			m.feed = msg.Feed
		}
		m.body.SetContent(m.render())
		return m, nil
	}

	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.body.View()
}

// Status returns the last loaded sync state.
func (m Model) Status() reconciledto.StatusOutput { return m.status }

func (m Model) render() string {
	if m.err != nil {
		return theme.Warn.Render("sync: " + m.err.Error())
	}
	s := m.status
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Sync") + "\n\n")
	sb.WriteString(theme.Muted.Render("owner:     ") + s.Owner + "\n")
	last := "never"
	if !s.LastSync.IsZero() {
		last = s.LastSync.Local().Format("2006-01-02 15:04")
	}
	sb.WriteString(theme.Muted.Render("last sync: ") + last + "\n")
	if s.SyncNeeded {
		sb.WriteString(theme.Muted.Render("state:     ") + theme.Warn.Render("sync needed") + "\n")
	} else {
		sb.WriteString(theme.Muted.Render("state:     ") + theme.Productive.Render("up to date") + "\n")
	}
	if s.Remote != nil {
		sb.WriteString(theme.Muted.Render("remote:    "))
		if s.Remote.SyncNeeded {
			sb.WriteString(theme.Warn.Render("has newer data") + "\n")
		} else {
			sb.WriteString("in step\n")
		}
	}
	if s.LastError != "" {
		sb.WriteString(theme.Warn.Render("error:     "+s.LastError) + "\n")
	}

	sb.WriteString("\n" + theme.Title.Render("Notifications") + "\n\n")
	if len(m.feed) == 0 {
		sb.WriteString(theme.Muted.Render("nothing yet") + "\n")
	}
	for _, n := range m.feed {
		sb.WriteString(theme.Muted.Render(n.At.Local().Format("Jan 02 15:04")) + "  " +
			theme.Hot.Render(n.Title) + "  " + n.Message + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("s: sync now"))
	return sb.String()
}
