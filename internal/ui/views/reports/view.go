package reports

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	reportdto "webtally/internal/modules/report/dto"
	"webtally/internal/ui/components"
	"webtally/internal/ui/theme"
)

const listLimit = 30

// ─── port ────────────────────────────────────────────────────────────────────

type ReportsPort interface {
	Reports(ctx context.Context, limit int) ([]reportdto.ReportOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Reports []reportdto.ReportOutput
	Err     error
}

// ─── list item ───────────────────────────────────────────────────────────────

type reportItem struct {
	report reportdto.ReportOutput
}

func (i reportItem) Title() string { return i.report.Date }
func (i reportItem) Description() string {
	synced := "pending"
	if !i.report.SyncedAt.IsZero() {
		synced = "synced"
	}
	return fmt.Sprintf("%s  score %d  %s", components.Duration(i.report.TotalTime), i.report.ProductivityScore, synced)
}
func (i reportItem) FilterValue() string { return i.report.Date }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port   ReportsPort
	list   list.Model
	detail viewport.Model
	err    error
	width  int
	height int
}

func New(port ReportsPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Daily reports"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text).Padding(1)

	return Model{port: port, list: l, detail: vp}
}

func (m Model) Init() tea.Cmd {
	return m.Refresh()
}

// Refresh reloads the newest reports.
func (m Model) Refresh() tea.Cmd {
	return func() tea.Msg {
		items, err := m.port.Reports(context.Background(), listLimit)
		return LoadedMsg{Reports: items, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listW := m.width * 4 / 10
		m.list.SetSize(listW, m.height)
		m.detail.Width = m.width - listW - 4
		m.detail.Height = m.height - 4

	case LoadedMsg:
		m.err = msg.Err
		if msg.Err != nil {
			m.detail.SetContent(theme.Warn.Render("reports: " + msg.Err.Error()))
			return m, nil
		}
		items := make([]list.Item, len(msg.Reports))
		for i, r := range msg.Reports {
			items[i] = reportItem{report: r}
		}
		cmds = append(cmds, m.list.SetItems(items))
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	if m.err == nil {
		m.detail.SetContent(m.renderDetail())
	}
	m.detail, cmd = m.detail.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	listW := m.width * 4 / 10
	listPane := lipgloss.NewStyle().Width(listW).Height(m.height).Render(m.list.View())
	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(max(m.width-listW-2, 10)).
		Height(max(m.height-2, 1)).
		Render(m.detail.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Filtering reports whether the list's search filter is currently active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// SelectedDate returns the highlighted report's date.
func (m Model) SelectedDate() (string, bool) {
	if item, ok := m.list.SelectedItem().(reportItem); ok {
		return item.report.Date, true
	}
	return "", false
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) renderDetail() string {
	item, ok := m.list.SelectedItem().(reportItem)
	if !ok {
		return theme.Muted.Render("No reports yet. They are generated at midnight.")
	}
	r := item.report
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Report "+r.Date) + "\n\n")
	sb.WriteString(theme.Muted.Render("total:       ") + components.Duration(r.TotalTime) + "\n")
	sb.WriteString(theme.Muted.Render("productive:  ") + theme.Productive.Render(components.Duration(r.ProductiveTime)) + "\n")
	sb.WriteString(theme.Muted.Render("distracting: ") + theme.Distracting.Render(components.Duration(r.DistractingTime)) + "\n")
	sb.WriteString(theme.Muted.Render("score:       ") + fmt.Sprintf("%d%%", r.ProductivityScore) + "\n")
	if r.Summary != "" {
		sb.WriteString("\n" + r.Summary + "\n")
	}
	if len(r.TopSites) > 0 {
		sb.WriteString("\n" + theme.Title.Render("Top sites") + "\n")
		barW := max(m.detail.Width-40, 8)
		top := r.TopSites[0].TimeSpent
		for _, s := range r.TopSites {
			style := theme.ForCategory(s.Category)
			fmt.Fprintf(&sb, "%-24s %s %9s\n", s.Domain, components.Bar(s.TimeSpent, top, barW, style), components.Duration(s.TimeSpent))
		}
	}
	if r.NotePath != "" {
		sb.WriteString("\n" + theme.Muted.Render("note: "+r.NotePath) + "\n")
	}
	return sb.String()
}
