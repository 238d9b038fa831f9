package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	blockingdto "webtally/internal/modules/blocking/dto"
	focusdto "webtally/internal/modules/focus/dto"
	prefsdto "webtally/internal/modules/preferences/dto"
	reconciledto "webtally/internal/modules/reconcile/dto"
	reportdto "webtally/internal/modules/report/dto"
	"webtally/internal/ui/components"
	"webtally/internal/ui/theme"
	blockingview "webtally/internal/ui/views/blocking"
	reportsview "webtally/internal/ui/views/reports"
	syncview "webtally/internal/ui/views/syncstatus"
	todayview "webtally/internal/ui/views/today"
)

const (
	refreshInterval     = 5 * time.Second
	defaultFocusMinutes = 25
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Port is everything the dashboard needs from the daemon. Sub-views narrow it
// further in their own packages.

type Port interface {
	todayview.TodayPort
	blockingview.BlockingPort
	reportsview.ReportsPort
	syncview.SyncPort

	Decide(ctx context.Context, rawURL string) (blockingdto.DecisionOutput, error)
	ToggleBlocking(ctx context.Context, enabled bool) (blockingdto.StatusOutput, error)
	AddSite(ctx context.Context, list, site string) (prefsdto.ListOutput, error)
	RemoveSite(ctx context.Context, list, site string) (prefsdto.ListOutput, error)
	StartFocus(ctx context.Context, minutes int) (focusdto.SessionOutput, error)
	StopFocus(ctx context.Context) (focusdto.SessionOutput, error)
	SyncNow(ctx context.Context) (reconciledto.SyncOutput, error)
	GenerateReport(ctx context.Context, date string) (reportdto.ReportOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabToday tabID = iota
	tabBlocking
	tabReports
	tabSync
	tabCount
)

var tabLabels = [tabCount]string{
	"Today", "Blocking", "Reports", "Sync",
}

// ─── async messages ───────────────────────────────────────────────────────────

type refreshTickMsg struct{}

// actionDoneMsg carries the outcome of a command sent to the daemon.
type actionDoneMsg struct {
	status string
	err    error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab       key.Binding
	Help      key.Binding
	Palette   key.Binding
	Quit      key.Binding
	Toggle    key.Binding
	AddSite   key.Binding
	Remove    key.Binding
	Focus     key.Binding
	StopFocus key.Binding
	Sync      key.Binding
	Generate  key.Binding
	Refresh   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:   key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Toggle:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "toggle blocking")),
		AddSite:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "block a site")),
		Remove:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "unblock selected")),
		Focus:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "start focus")),
		StopFocus: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop focus")),
		Sync:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync now")),
		Generate:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "report for yesterday")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Refresh, k.Sync, k.Generate},
		{k.Toggle, k.AddSite, k.Remove},
		{k.Focus, k.StopFocus},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the help overlay,
// the command palette, and the periodic refresh. Every action goes to the
// daemon through Port; rendering is delegated to sub-views.
type Model struct {
	port Port

	todayView    todayview.Model
	blockingView blockingview.Model
	reportsView  reportsview.Model
	syncView     syncview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

// ─── constructor ─────────────────────────────────────────────────────────────

func NewModel(port Port) Model {
	return Model{
		port:         port,
		todayView:    todayview.New(port),
		blockingView: blockingview.New(port),
		reportsView:  reportsview.New(port),
		syncView:     syncview.New(port),
		activeTab:    tabToday,
		keys:         defaultKeys(),
		help:         help.New(),
		palette:      components.NewPalette(),
		status:       "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.todayView.Init(),
		m.blockingView.Init(),
		m.reportsView.Init(),
		m.syncView.Init(),
		refreshTick(),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The palette intercepts all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, cmd
		}
		cmds = append(cmds, cmd)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case refreshTickMsg:
		return m, tea.Batch(m.refreshAll(), refreshTick())

	case actionDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = msg.status
		}
		return m, m.refreshAll()

	// Loaded messages go to their owning view regardless of the active tab.
	case todayview.LoadedMsg:
		var cmd tea.Cmd
		m.todayView, cmd = m.todayView.Update(msg)
		return m, cmd
	case blockingview.LoadedMsg:
		var cmd tea.Cmd
		m.blockingView, cmd = m.blockingView.Update(msg)
		return m, cmd
	case reportsview.LoadedMsg:
		var cmd tea.Cmd
		m.reportsView, cmd = m.reportsView.Update(msg)
		return m, cmd
	case syncview.LoadedMsg:
		var cmd tea.Cmd
		m.syncView, cmd = m.syncView.Update(msg)
		return m, cmd

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		// Yield to sub-view when its search filter is active.
		if m.subViewFiltering() {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case msg.String() == "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, m.keys.Palette):
			return m, m.palette.Open()
		case key.Matches(msg, m.keys.Toggle):
			return m, m.toggleBlockingCmd(!m.blockingView.Status().ManualEnabled)
		case key.Matches(msg, m.keys.AddSite):
			return m, m.palette.OpenWith("block:add ")
		case key.Matches(msg, m.keys.Remove):
			if m.activeTab == tabBlocking {
				if site, ok := m.blockingView.SelectedSite(); ok {
					return m, m.siteCmd("blocked", site, false)
				}
			}
		case key.Matches(msg, m.keys.Focus):
			return m, m.palette.OpenWith(fmt.Sprintf("focus:start %d", defaultFocusMinutes))
		case key.Matches(msg, m.keys.StopFocus):
			return m, m.stopFocusCmd()
		case key.Matches(msg, m.keys.Sync):
			m.status = "syncing…"
			return m, m.syncNowCmd()
		case key.Matches(msg, m.keys.Generate):
			return m, m.generateReportCmd("")
		case key.Matches(msg, m.keys.Refresh):
			return m, m.refreshAll()
		}
	}

	// Propagate the message to the active tab's sub-view.
	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabToday:
		m.todayView, tabCmd = m.todayView.Update(msg)
	case tabBlocking:
		m.blockingView, tabCmd = m.blockingView.Update(msg)
	case tabReports:
		m.reportsView, tabCmd = m.reportsView.Update(msg)
	case tabSync:
		m.syncView, tabCmd = m.syncView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabToday:
		return m.todayView.View()
	case tabBlocking:
		return m.blockingView.View()
	case tabReports:
		return m.reportsView.View()
	case tabSync:
		return m.syncView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "webtally  " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if session := m.blockingView.FocusSession(); session.Active {
		left = theme.Hot.Render("● focus "+components.Duration(session.RemainingSeconds)) + "  " + left
	}
	if m.blockingView.Status().Active {
		left = theme.Distracting.Render("■ blocking") + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)

	switch parts[0] {
	case "block:on":
		return m, m.toggleBlockingCmd(true)

	case "block:off":
		return m, m.toggleBlockingCmd(false)

	case "block:add", "block:remove",
		"productive:add", "productive:remove",
		"distracting:add", "distracting:remove":
		if len(parts) < 2 {
			m.status = "usage: " + parts[0] + " <site>"
			return m, nil
		}
		list, verb, _ := strings.Cut(parts[0], ":")
		if list == "block" {
			list = "blocked"
		}
		return m, m.siteCmd(list, parts[1], verb == "add")

	case "block:check":
		if len(parts) < 2 {
			m.status = "usage: block:check <url>"
			return m, nil
		}
		return m, m.decideCmd(parts[1])

	case "focus:start":
		minutes := defaultFocusMinutes
		if len(parts) >= 2 {
			n, err := strconv.Atoi(parts[1])
			if err != nil || n <= 0 {
				m.status = "invalid minutes: " + parts[1]
				return m, nil
			}
			minutes = n
		}
		return m, m.startFocusCmd(minutes)

	case "focus:stop":
		return m, m.stopFocusCmd()

	case "sync:now":
		m.status = "syncing…"
		return m, m.syncNowCmd()

	case "report:generate":
		date := ""
		if len(parts) >= 2 {
			date = parts[1]
		}
		m.activeTab = tabReports
		return m, m.generateReportCmd(date)

	case "refresh":
		return m, m.refreshAll()

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// subViewFiltering reports whether the active tab's list filter is open,
// in which case global key bindings must yield to allow free typing.
func (m Model) subViewFiltering() bool {
	switch m.activeTab {
	case tabBlocking:
		return m.blockingView.Filtering()
	case tabReports:
		return m.reportsView.Filtering()
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.todayView, _ = m.todayView.Update(sz)
	m.blockingView, _ = m.blockingView.Update(sz)
	m.reportsView, _ = m.reportsView.Update(sz)
	m.syncView, _ = m.syncView.Update(sz)
}

func (m Model) refreshAll() tea.Cmd {
	return tea.Batch(
		m.todayView.Refresh(),
		m.blockingView.Refresh(),
		m.reportsView.Refresh(),
		m.syncView.Refresh(),
	)
}

func refreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) toggleBlockingCmd(enabled bool) tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.ToggleBlocking(context.Background(), enabled)
		if err != nil {
			return actionDoneMsg{err: fmt.Errorf("toggle blocking: %w", err)}
		}
		state := "off"
		if out.ManualEnabled {
			state = "on"
		}
		return actionDoneMsg{status: "blocking " + state}
	}
}

func (m Model) siteCmd(list, site string, add bool) tea.Cmd {
	return func() tea.Msg {
		var (
			out prefsdto.ListOutput
			err error
		)
		if add {
			out, err = m.port.AddSite(context.Background(), list, site)
		} else {
			out, err = m.port.RemoveSite(context.Background(), list, site)
		}
		if err != nil {
			return actionDoneMsg{err: fmt.Errorf("%s list: %w", list, err)}
		}
		return actionDoneMsg{status: fmt.Sprintf("%s list has %d sites", out.Name, len(out.Sites))}
	}
}

func (m Model) decideCmd(rawURL string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.Decide(context.Background(), rawURL)
		if err != nil {
			return actionDoneMsg{err: fmt.Errorf("check: %w", err)}
		}
		return actionDoneMsg{status: out.Host + ": " + out.Decision}
	}
}

func (m Model) startFocusCmd(minutes int) tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.StartFocus(context.Background(), minutes)
		if err != nil {
			return actionDoneMsg{err: fmt.Errorf("focus: %w", err)}
		}
		return actionDoneMsg{status: "focus until " + out.EndTime.Local().Format("15:04")}
	}
}

func (m Model) stopFocusCmd() tea.Cmd {
	return func() tea.Msg {
		if _, err := m.port.StopFocus(context.Background()); err != nil {
			return actionDoneMsg{err: fmt.Errorf("focus: %w", err)}
		}
		return actionDoneMsg{status: "focus session stopped"}
	}
}

func (m Model) syncNowCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.SyncNow(context.Background())
		if err != nil {
			return actionDoneMsg{err: fmt.Errorf("sync: %w", err)}
		}
		return actionDoneMsg{status: fmt.Sprintf("synced %d cells, %d reports", out.LedgerCells, out.ReportsSynced)}
	}
}

func (m Model) generateReportCmd(date string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.GenerateReport(context.Background(), date)
		if err != nil {
			return actionDoneMsg{err: fmt.Errorf("report: %w", err)}
		}
		return actionDoneMsg{status: fmt.Sprintf("report %s: score %d", out.Date, out.ProductivityScore)}
	}
}
