package today

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	trackingdto "webtally/internal/modules/tracking/dto"
	"webtally/internal/ui/components"
	"webtally/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type TodayPort interface {
	Today(ctx context.Context) (trackingdto.DayOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Day trackingdto.DayOutput
	Err error
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    TodayPort
	day     trackingdto.DayOutput
	err     error
	body    viewport.Model
	spinner spinner.Model
	loading bool
	width   int
	height  int
}

func New(port TodayPort) Model {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Foreground(theme.Text)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, body: vp, spinner: sp, loading: true}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Refresh(), m.spinner.Tick)
}

// Refresh reloads today's ledger row.
func (m Model) Refresh() tea.Cmd {
	return func() tea.Msg {
		day, err := m.port.Today(context.Background())
		return LoadedMsg{Day: day, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.body.Width = msg.Width
		m.body.Height = msg.Height - 3
		m.body.SetContent(m.render())

	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			m.day = msg.Day
		}
		m.body.SetContent(m.render())
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.body, cmd = m.body.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading today…")
	}
	header := theme.Title.Render("Today "+m.day.Date) + "  " +
		theme.Hot.Render(components.Duration(m.day.Total)) + "  " +
		theme.Muted.Render(fmt.Sprintf("%d sites", len(m.day.Domains)))
	return header + "\n\n" + m.body.View()
}

// Day returns the most recently loaded row.
func (m Model) Day() trackingdto.DayOutput { return m.day }

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) render() string {
	if m.err != nil {
		return theme.Warn.Render("today: " + m.err.Error())
	}
	if len(m.day.Domains) == 0 {
		return theme.Muted.Render("No activity recorded yet today")
	}
	nameW := 0
	for _, d := range m.day.Domains {
		nameW = max(nameW, lipgloss.Width(d.Domain))
	}
	nameW = min(nameW, 32)
	barW := max(m.width-nameW-14, 10)
	top := m.day.Domains[0].Seconds

	var sb strings.Builder
	for _, d := range m.day.Domains {
		name := d.Domain
		if lipgloss.Width(name) > nameW {
			name = name[:nameW-1] + "…"
		}
		fmt.Fprintf(&sb, "%-*s %s %9s\n", nameW, name,
			components.Bar(d.Seconds, top, barW, theme.Neutral), components.Duration(d.Seconds))
	}
	return sb.String()
}
