package blocking

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	blockingdto "webtally/internal/modules/blocking/dto"
	focusdto "webtally/internal/modules/focus/dto"
	"webtally/internal/ui/components"
	"webtally/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type BlockingPort interface {
	Blocking(ctx context.Context) (blockingdto.StatusOutput, error)
	Focus(ctx context.Context) (focusdto.SessionOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Status blockingdto.StatusOutput
	Focus  focusdto.SessionOutput
	Err    error
}

// ─── list item ───────────────────────────────────────────────────────────────

type siteItem struct {
	site  string
	rules int
}

func (i siteItem) Title() string       { return i.site }
func (i siteItem) Description() string { return fmt.Sprintf("%d rules", i.rules) }
func (i siteItem) FilterValue() string { return i.site }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port   BlockingPort
	list   list.Model
	status blockingdto.StatusOutput
	focus  focusdto.SessionOutput
	err    error
	width  int
	height int
}

func New(port BlockingPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Red).BorderForeground(theme.Red)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Subtext0).BorderForeground(theme.Red)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Blocked sites"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return Model{port: port, list: l}
}

func (m Model) Init() tea.Cmd {
	return m.Refresh()
}

// Refresh reloads blocking state and the focus session.
func (m Model) Refresh() tea.Cmd {
	return func() tea.Msg {
		status, err := m.port.Blocking(context.Background())
		if err != nil {
			return LoadedMsg{Err: err}
		}
		session, err := m.port.Focus(context.Background())
		return LoadedMsg{Status: status, Focus: session, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.width/2, m.height)

	case LoadedMsg:
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		m.status = msg.Status
		m.focus = msg.Focus
		cmds = append(cmds, m.list.SetItems(siteItems(msg.Status)))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	listW := m.width / 2
	listPane := lipgloss.NewStyle().Width(listW).Height(m.height).Render(m.list.View())
	statusPane := theme.Pane.
		Width(max(m.width-listW-2, 10)).
		Height(max(m.height-2, 1)).
		Render(m.renderStatus())
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, statusPane)
}

// Filtering reports whether the list's search filter is currently active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// SelectedSite returns the highlighted blocked site, if any.
func (m Model) SelectedSite() (string, bool) {
	if item, ok := m.list.SelectedItem().(siteItem); ok {
		return item.site, true
	}
	return "", false
}

// Status returns the last loaded blocking state.
func (m Model) Status() blockingdto.StatusOutput { return m.status }

// FocusSession returns the last loaded focus session.
func (m Model) FocusSession() focusdto.SessionOutput { return m.focus }

// ─── private ─────────────────────────────────────────────────────────────────

func siteItems(status blockingdto.StatusOutput) []list.Item {
	rules := make(map[string]int, len(status.BlockedSites))
	for _, r := range status.Rules {
		rules[r.Domain]++
	}
	items := make([]list.Item, 0, len(status.BlockedSites))
	for _, site := range status.BlockedSites {
		items = append(items, siteItem{site: site, rules: rules[site]})
	}
	return items
}

func onOff(v bool) string {
	if v {
		return theme.Distracting.Render("on")
	}
	return theme.Muted.Render("off")
}

func (m Model) renderStatus() string {
	if m.err != nil {
		return theme.Warn.Render("blocking: " + m.err.Error())
	}
	s := m.status
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Blocking") + "\n\n")
	sb.WriteString(theme.Muted.Render("manual:  ") + onOff(s.ManualEnabled) + "\n")
	sb.WriteString(theme.Muted.Render("focus:   ") + onOff(s.FocusActive) + "\n")
	sb.WriteString(theme.Muted.Render("active:  ") + onOff(s.Active) + "\n")
	sb.WriteString(theme.Muted.Render("backend: ") + s.Backend + "\n")
	sb.WriteString(theme.Muted.Render("rules:   ") + fmt.Sprintf("%d", len(s.Rules)) + "\n")
	if !s.AppliedAt.IsZero() {
		sb.WriteString(theme.Muted.Render("applied: ") + s.AppliedAt.Local().Format("15:04:05") + "\n")
	}
	if s.LastError != "" {
		sb.WriteString(theme.Warn.Render("error:   "+s.LastError) + "\n")
	}

	sb.WriteString("\n" + theme.Title.Render("Focus") + "\n\n")
	if m.focus.Active {
		sb.WriteString(theme.Hot.Render(components.Duration(m.focus.RemainingSeconds)+" remaining") + "\n")
		sb.WriteString(theme.Muted.Render("ends:    ") + m.focus.EndTime.Local().Format("15:04") + "\n")
	} else {
		sb.WriteString(theme.Muted.Render("no active session") + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("b: toggle  a: add  d: remove  f: focus  x: stop focus"))
	return sb.String()
}
