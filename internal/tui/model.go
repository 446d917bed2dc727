// Package tui is the interactive day view: the events of one day from
// the sync client on the left, the selected event on the right, and a
// modal for the occurrence-vs-series question when a repeating event is
// deleted. All mutations go through the edit protocol; the view never
// touches the cache directly.
package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"caldr/internal/client"
	"caldr/internal/core"
	"caldr/internal/editor"
	"caldr/internal/recur"
	"caldr/internal/util"
)

// KeyMap defines the keybindings for the day view.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
	Delete      key.Binding
	HideCal     key.Binding
	UnhideAll   key.Binding
	Refresh     key.Binding
	NextDay     key.Binding
	PrevDay     key.Binding
	Today       key.Binding
	Tab         key.Binding
	Quit        key.Binding
	Help        key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "down"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("ctrl+u", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("ctrl+d", "scroll down"),
	),
	Delete: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete event"),
	),
	HideCal: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "hide calendar"),
	),
	UnhideAll: key.NewBinding(
		key.WithKeys("X"),
		key.WithHelp("X", "unhide all"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	NextDay: key.NewBinding(
		key.WithKeys("right"),
		key.WithHelp("→", "next day"),
	),
	PrevDay: key.NewBinding(
		key.WithKeys("left"),
		key.WithHelp("←", "prev day"),
	),
	Today: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "today"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "switch panel"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
}

// Panel focus for compact mode.
type PanelFocus int

const (
	FocusList PanelFocus = iota
	FocusDetail
)

type modalKind int

const (
	modalNone modalKind = iota
	// Delete a non-repeating event (or a whole resource): yes/no
	modalConfirmDelete
	// Delete touching a repeating series: occurrence or series
	modalScope
)

// Options carries the view's construction parameters.
type Options struct {
	// Zone the day grid renders in; nil means system local
	Location *time.Location
}

// Model is the Bubble Tea model for the day view.
type Model struct {
	cal *client.Client
	ed  *editor.Editor
	loc *time.Location

	events      []core.Event
	selectedIdx int
	currentDate time.Time
	loading     bool
	mutating    bool
	err         error
	status      string
	statusErr   bool

	width         int
	height        int
	listWidth     int
	detailWidth   int
	contentHeight int
	keys          KeyMap
	listView      viewport.Model
	detailView    viewport.Model
	viewportReady bool
	compactMode   bool
	focusedPanel  PanelFocus
	showHelp      bool

	modal       modalKind
	modalTarget core.Event
}

// New creates the day view over a loaded client and its editor.
func New(cal *client.Client, ed *editor.Editor, opts Options) Model {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := time.Now().In(loc)
	return Model{
		cal:         cal,
		ed:          ed,
		loc:         loc,
		events:      []core.Event{},
		currentDate: now,
		selectedIdx: -1, // first load lands on the NOW marker
		keys:        DefaultKeyMap,
		loading:     true,
	}
}

// dayWindow bounds the shown civil day in the display zone.
func (m Model) dayWindow() core.Window {
	y, mo, d := m.currentDate.In(m.loc).Date()
	start := time.Date(y, mo, d, 0, 0, 0, 0, m.loc)
	return core.Window{Start: start, End: start.Add(24 * time.Hour)}
}

func (m Model) isToday() bool {
	now := time.Now().In(m.loc)
	cur := m.currentDate.In(m.loc)
	return cur.Year() == now.Year() && cur.Month() == now.Month() && cur.Day() == now.Day()
}

// gridStart positions an event on the day grid: all-day values land on
// their civil midnight in the display zone, timed values on their instant.
func (m Model) gridStart(e core.Event) time.Time {
	return e.Start.ToGrid(m.loc).In(m.loc)
}

func (m Model) gridEnd(e core.Event) time.Time {
	return e.End.ToGrid(m.loc).In(m.loc)
}

// Messages
type eventsLoadedMsg struct {
	events []core.Event
	err    error
}

type mutationDoneMsg struct {
	label string
	err   error
}

type tickMsg time.Time

// Commands
func (m Model) loadEvents() tea.Cmd {
	w := m.dayWindow()
	cal, loc := m.cal, m.loc
	return func() tea.Msg {
		if _, err := cal.FetchWindow(context.Background(), w); err != nil {
			return eventsLoadedMsg{err: err}
		}
		events, err := cal.Occurrences(w)
		if err != nil {
			return eventsLoadedMsg{err: err}
		}
		sortForDay(events, loc)
		return eventsLoadedMsg{events: events}
	}
}

// relistEvents recomputes the day from the cache without refetching,
// enough for visibility toggles.
func (m Model) relistEvents() tea.Cmd {
	w := m.dayWindow()
	cal, loc := m.cal, m.loc
	return func() tea.Msg {
		events, err := cal.Occurrences(w)
		if err != nil {
			return eventsLoadedMsg{err: err}
		}
		sortForDay(events, loc)
		return eventsLoadedMsg{events: events}
	}
}

func (m Model) deleteEvent(e core.Event, scope editor.Scope) tea.Cmd {
	ed := m.ed
	return func() tea.Msg {
		err := ed.Delete(context.Background(), e, scope)
		label := "Deleted " + displayTitle(e)
		if scope == editor.ScopeOccurrence {
			label = "Removed this occurrence of " + displayTitle(e)
		}
		return mutationDoneMsg{label: label, err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// sortForDay orders a day's events for the list: the all-day row first,
// then timed events by their grid position.
func sortForDay(events []core.Event, loc *time.Location) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.AllDay() != b.AllDay() {
			return a.AllDay()
		}
		ga, gb := a.Start.ToGrid(loc), b.Start.ToGrid(loc)
		if !ga.Equal(gb) {
			return ga.Before(gb)
		}
		return a.Summary < b.Summary
	})
}

func displayTitle(e core.Event) string {
	if e.Summary != "" {
		return e.Summary
	}
	return e.UID
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadEvents(), tickCmd())
}

// findNowEventIdx returns the index of the first upcoming timed event on
// today's view, or 0 for other days.
func (m *Model) findNowEventIdx() int {
	if len(m.events) == 0 || !m.isToday() {
		return 0
	}
	now := time.Now()
	for i, event := range m.events {
		if !event.AllDay() && m.gridStart(event).After(now) {
			return i
		}
	}
	return len(m.events) - 1
}

// scrollToNow scrolls the list viewport so the NOW marker is visible.
func (m *Model) scrollToNow() {
	if !m.viewportReady || len(m.events) == 0 {
		return
	}
	if !m.isToday() {
		m.listView.GotoTop()
		return
	}

	now := time.Now()
	nowDividerLine := -1
	for i, event := range m.events {
		if !event.AllDay() && m.gridStart(event).After(now) {
			nowDividerLine = i
			break
		}
	}
	if nowDividerLine == -1 {
		nowDividerLine = len(m.events)
	}

	offset := nowDividerLine - 2
	if offset < 0 {
		offset = 0
	}
	m.listView.SetYOffset(offset)
}

// calculateLayout calculates responsive layout dimensions.
func (m *Model) calculateLayout() {
	minHeight := 10

	width := m.width
	height := m.height
	if height < minHeight {
		height = minHeight
	}

	// Header, help bar, status line, padding
	m.contentHeight = height - 7
	if m.contentHeight < 5 {
		m.contentHeight = 5
	}

	compactThreshold := 70
	m.compactMode = width < compactThreshold

	if m.compactMode {
		m.listWidth = width - 4
		m.detailWidth = width - 4
		if m.listWidth < 20 {
			m.listWidth = 20
		}
		if m.detailWidth < 20 {
			m.detailWidth = 20
		}
	} else {
		switch {
		case width < 100:
			m.listWidth = width * 40 / 100
		case width < 140:
			m.listWidth = width * 35 / 100
		default:
			m.listWidth = width * 30 / 100
			if m.listWidth > 55 {
				m.listWidth = 55
			}
		}
		if m.listWidth < 30 {
			m.listWidth = 30
		}
		m.detailWidth = width - m.listWidth - 5
		if m.detailWidth < 35 {
			m.detailWidth = 35
		}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.calculateLayout()

		listViewportHeight := m.contentHeight - 4
		if listViewportHeight < 1 {
			listViewportHeight = 1
		}
		listViewportWidth := m.listWidth - 4
		if listViewportWidth < 10 {
			listViewportWidth = 10
		}
		detailViewportHeight := m.contentHeight - 4
		if detailViewportHeight < 1 {
			detailViewportHeight = 1
		}
		detailViewportWidth := m.detailWidth - 4
		if detailViewportWidth < 10 {
			detailViewportWidth = 10
		}

		if !m.viewportReady {
			m.listView = viewport.New(listViewportWidth, listViewportHeight)
			m.listView.Style = lipgloss.NewStyle()
			m.detailView = viewport.New(detailViewportWidth, detailViewportHeight)
			m.detailView.Style = lipgloss.NewStyle()
			m.viewportReady = true
		} else {
			m.listView.Width = listViewportWidth
			m.listView.Height = listViewportHeight
			m.detailView.Width = detailViewportWidth
			m.detailView.Height = detailViewportHeight
		}
		m.updateListContent()
		m.updateDetailContent()
		return m, nil

	case eventsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.events = msg.events
			if m.selectedIdx >= len(m.events) {
				m.selectedIdx = len(m.events) - 1
			}
			if m.selectedIdx < 0 {
				m.selectedIdx = m.findNowEventIdx()
			}
			m.updateListContent()
			m.updateDetailContent()
			m.scrollToNow()
		}
		return m, nil

	case mutationDoneMsg:
		m.mutating = false
		if msg.err != nil {
			// Nothing was written; the cached view is still valid.
			m.status = mutationError(msg.err)
			m.statusErr = true
			return m, nil
		}
		m.status = msg.label
		m.statusErr = false
		m.loading = true
		return m, m.loadEvents()

	case tickMsg:
		m.updateListContent()
		m.updateDetailContent()
		return m, tickCmd()

	case tea.KeyMsg:
		if m.modal != modalNone {
			return m.updateModal(msg)
		}
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

// updateModal handles keys while the scope or confirm modal is open.
func (m Model) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalConfirmDelete:
		switch msg.String() {
		case "y", "Y", "enter":
			m.modal = modalNone
			m.mutating = true
			return m, m.deleteEvent(m.modalTarget, editor.ScopeSeries)
		case "n", "N", "esc", "q":
			m.modal = modalNone
			return m, nil
		}
	case modalScope:
		switch msg.String() {
		case "o":
			m.modal = modalNone
			m.mutating = true
			return m, m.deleteEvent(m.modalTarget, editor.ScopeOccurrence)
		case "s":
			m.modal = modalNone
			m.mutating = true
			return m, m.deleteEvent(m.modalTarget, editor.ScopeSeries)
		case "esc", "q":
			m.modal = modalNone
			return m, nil
		}
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selectedIdx > 0 {
			m.selectedIdx--
			m.updateListContent()
			m.scrollListToSelection()
			m.updateDetailContent()
			m.detailView.GotoTop()
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selectedIdx < len(m.events)-1 {
			m.selectedIdx++
			m.updateListContent()
			m.scrollListToSelection()
			m.updateDetailContent()
			m.detailView.GotoTop()
		}
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		if m.compactMode && m.focusedPanel == FocusList {
			m.listView.ViewUp()
		} else {
			m.detailView.ViewUp()
		}
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		if m.compactMode && m.focusedPanel == FocusList {
			m.listView.ViewDown()
		} else {
			m.detailView.ViewDown()
		}
		return m, nil

	case key.Matches(msg, m.keys.NextDay):
		m.currentDate = m.currentDate.AddDate(0, 0, 1)
		m.selectedIdx = 0
		m.loading = true
		m.status = ""
		return m, m.loadEvents()

	case key.Matches(msg, m.keys.PrevDay):
		m.currentDate = m.currentDate.AddDate(0, 0, -1)
		m.selectedIdx = 0
		m.loading = true
		m.status = ""
		return m, m.loadEvents()

	case key.Matches(msg, m.keys.Today):
		if m.isToday() {
			m.selectedIdx = m.findNowEventIdx()
			m.scrollToNow()
			return m, nil
		}
		m.currentDate = time.Now().In(m.loc)
		m.selectedIdx = -1
		m.loading = true
		m.status = ""
		return m, m.loadEvents()

	case key.Matches(msg, m.keys.Tab):
		if m.focusedPanel == FocusList {
			m.focusedPanel = FocusDetail
		} else {
			m.focusedPanel = FocusList
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		m.status = ""
		return m, m.loadEvents()

	case key.Matches(msg, m.keys.Delete):
		if m.mutating || len(m.events) == 0 || m.selectedIdx >= len(m.events) {
			return m, nil
		}
		e := m.events[m.selectedIdx]
		m.modalTarget = e
		// The scope question comes before anything is touched; plain
		// events just confirm.
		if e.IsException() || e.Recurs() {
			m.modal = modalScope
		} else {
			m.modal = modalConfirmDelete
		}
		return m, nil

	case key.Matches(msg, m.keys.HideCal):
		if len(m.events) == 0 || m.selectedIdx >= len(m.events) {
			return m, nil
		}
		e := m.events[m.selectedIdx]
		if err := m.cal.SetCalendarHidden(e.SourceID, e.CalendarPath, true); err != nil {
			m.status = err.Error()
			m.statusErr = true
			return m, nil
		}
		m.status = "Hid " + m.cal.CalendarName(e.SourceID, e.CalendarPath) + " (X restores)"
		m.statusErr = false
		return m, m.relistEvents()

	case key.Matches(msg, m.keys.UnhideAll):
		for _, c := range m.cal.Calendars() {
			if c.Hidden {
				m.cal.SetCalendarHidden(c.SourceID, c.Path, false)
			}
		}
		m.status = "All calendars visible"
		m.statusErr = false
		return m, m.relistEvents()
	}
	return m, nil
}

// mutationError renders a failed mutation for the status line.
func mutationError(err error) string {
	switch {
	case errors.Is(err, core.ErrStaleRevision):
		return "Changed on the server since fetch. Refresh (r) and retry"
	case errors.Is(err, core.ErrSourceUnreachable):
		return "Source unreachable. Nothing changed"
	default:
		return err.Error()
	}
}

// View renders the day view.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.renderHeader()

	var content string
	switch {
	case m.loading:
		content = lipgloss.NewStyle().
			Width(m.width-4).
			Height(m.contentHeight).
			Align(lipgloss.Center, lipgloss.Center).
			Render("Loading events...")
	case m.err != nil:
		content = lipgloss.NewStyle().
			Width(m.width - 4).
			Height(m.contentHeight).
			Foreground(errorColor).
			Render(fmt.Sprintf("Error: %v", m.err))
	case m.modal != modalNone:
		content = m.renderModal()
	case m.compactMode:
		if m.showHelp {
			content = m.renderHelpPanel()
		} else if m.focusedPanel == FocusList {
			content = m.renderListPanel()
		} else {
			content = m.renderDetailPanel()
		}
	default:
		listPanel := m.renderListPanel()
		var rightPanel string
		if m.showHelp {
			rightPanel = m.renderHelpPanel()
		} else {
			rightPanel = m.renderDetailPanel()
		}
		content = lipgloss.JoinHorizontal(lipgloss.Top, listPanel, " ", rightPanel)
	}

	status := m.renderStatus()
	help := m.renderHelp()

	return AppStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left, header, content, status, help),
	)
}

func (m Model) renderHeader() string {
	dateStr := m.currentDate.In(m.loc).Format("Monday, January 2, 2006")
	if m.isToday() {
		dateStr = "Today • " + dateStr
	}

	title := HeaderStyle.Render("📅 caldr")
	date := lipgloss.NewStyle().Foreground(mutedColor).Render(dateStr)

	panelIndicator := ""
	if m.compactMode {
		label := " [Events]"
		if m.focusedPanel == FocusDetail {
			label = " [Details]"
		}
		panelIndicator = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Render(label)
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", date, panelIndicator)
}

func (m Model) renderStatus() string {
	if m.mutating {
		return StatusOKStyle.Render("Saving...")
	}
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return StatusErrStyle.Render("✗ " + m.status)
	}
	return StatusOKStyle.Render("✓ " + m.status)
}

func (m Model) renderModal() string {
	e := m.modalTarget
	var title, body string
	if m.modal == modalScope {
		title = "Delete repeating event"
		body = strings.Join([]string{
			"",
			fmt.Sprintf("%q repeats.", displayTitle(e)),
			"",
			HelpKeyStyle.Render("  o ") + " delete only this occurrence",
			HelpKeyStyle.Render("  s ") + " delete the whole series",
			HelpKeyStyle.Render(" esc") + " cancel",
		}, "\n")
	} else {
		title = "Delete event"
		body = strings.Join([]string{
			"",
			fmt.Sprintf("Delete %q?", displayTitle(e)),
			"",
			HelpKeyStyle.Render("  y ") + " delete",
			HelpKeyStyle.Render("  n ") + " cancel",
		}, "\n")
	}

	modal := ModalStyle.Render(ModalTitleStyle.Render(title) + "\n" + body)
	return lipgloss.Place(m.width-4, m.contentHeight, lipgloss.Center, lipgloss.Center, modal)
}

// updateListContent updates the list viewport with the day's events.
func (m *Model) updateListContent() {
	if !m.viewportReady {
		return
	}

	var items []string
	if len(m.events) == 0 {
		items = append(items, NormalItemStyle.Render("No events"))
	} else {
		now := time.Now()
		isToday := m.isToday()
		nowLineAdded := false

		for i, event := range m.events {
			// NOW divider before the first future timed event
			if isToday && !nowLineAdded && !event.AllDay() && m.gridStart(event).After(now) {
				items = append(items, m.renderNowDivider())
				nowLineAdded = true
			}
			items = append(items, m.renderListItem(event, i == m.selectedIdx, m.listView.Width))
		}

		if isToday && !nowLineAdded {
			items = append(items, m.renderNowDivider())
		}
	}

	m.listView.SetContent(strings.Join(items, "\n"))
}

// renderNowDivider creates the "now" time indicator line.
func (m Model) renderNowDivider() string {
	timeStr := time.Now().In(m.loc).Format("3:04 PM")

	width := m.listView.Width
	nowText := fmt.Sprintf(" ▶ NOW %s ◀ ", timeStr)

	textLen := len([]rune(nowText))
	leftPad := (width - textLen) / 2
	rightPad := width - textLen - leftPad
	if leftPad < 0 {
		leftPad = 0
	}
	if rightPad < 0 {
		rightPad = 0
	}

	line := strings.Repeat("─", leftPad) + nowText + strings.Repeat("─", rightPad)

	return lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true).
		Render(line)
}

// scrollListToSelection keeps the selected item visible.
func (m *Model) scrollListToSelection() {
	if !m.viewportReady || len(m.events) == 0 {
		return
	}

	now := time.Now()
	lineOffset := 0
	if m.isToday() {
		nowDividerIdx := -1
		for i, event := range m.events {
			if !event.AllDay() && m.gridStart(event).After(now) {
				nowDividerIdx = i
				break
			}
		}
		if nowDividerIdx == -1 {
			nowDividerIdx = len(m.events)
		}
		if m.selectedIdx >= nowDividerIdx {
			lineOffset = 1
		}
	}

	selectedTop := m.selectedIdx + lineOffset
	selectedBottom := selectedTop + 1

	viewTop := m.listView.YOffset
	viewBottom := viewTop + m.listView.Height

	if selectedTop < viewTop {
		m.listView.SetYOffset(selectedTop)
	}
	if selectedBottom > viewBottom {
		m.listView.SetYOffset(selectedBottom - m.listView.Height)
	}
}

func (m Model) renderListPanel() string {
	if len(m.events) == 0 {
		return ListPanelStyle.Width(m.listWidth).Height(m.contentHeight).Render(
			lipgloss.NewStyle().
				Foreground(mutedColor).
				Render("No events"),
		)
	}

	scrollInfo := ""
	if m.viewportReady && m.listView.TotalLineCount() > m.listView.Height {
		scrollInfo = lipgloss.NewStyle().
			Foreground(mutedColor).
			Render(fmt.Sprintf(" (%d/%d)", m.selectedIdx+1, len(m.events)))
	}

	header := lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true).
		Render("Events") + scrollInfo

	return ListPanelStyle.Width(m.listWidth).Height(m.contentHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, m.listView.View()),
	)
}

func (m Model) renderListItem(event core.Event, selected bool, maxWidth int) string {
	now := time.Now()
	isPast := !event.AllDay() && m.gridEnd(event).Before(now)
	isInProgress := event.InProgress(now)

	timeStr := m.gridStart(event).Format("3:04 PM")
	var timeStyled string
	switch {
	case event.AllDay():
		timeStyled = AllDayTimeStyle.Render("All day")
	case isPast:
		timeStyled = PastTimeStyle.Render("✓ " + timeStr)
	default:
		timeStyled = TimeStyle.Render(timeStr)
	}

	durStr := ""
	if !event.AllDay() {
		durStr = formatDuration(event.Duration())
	}
	duration := DurationStyle.Render(durStr)

	// Time (12) + duration (6) + icons (~6) + spaces (~3)
	titleWidth := maxWidth - 27
	if titleWidth < 10 {
		titleWidth = 10
	}
	title := util.TruncateText(displayTitle(event), titleWidth)

	repeatIcon := ""
	if event.Recurs() || event.IsException() {
		repeatIcon = " ↻"
	}
	statusIcon := ""
	if isInProgress {
		statusIcon = " 🟢"
	}

	line := fmt.Sprintf("%s %s %s%s%s", timeStyled, duration, title, repeatIcon, statusIcon)

	if selected {
		if isPast {
			return SelectedPastStyle.Render(line)
		}
		return SelectedItemStyle.Render(line)
	}
	if isPast {
		return PastItemStyle.Render(line)
	}
	return NormalItemStyle.Render(line)
}

// updateDetailContent updates the viewport with the selected event.
func (m *Model) updateDetailContent() {
	if len(m.events) == 0 || !m.viewportReady || m.selectedIdx >= len(m.events) {
		return
	}

	event := m.events[m.selectedIdx]
	width := m.detailView.Width
	var lines []string

	lines = append(lines, TitleStyle.Render(ansi.Wordwrap(displayTitle(event), width, "")))
	lines = append(lines, "")

	calName := m.cal.CalendarName(event.SourceID, event.CalendarPath)
	lines = append(lines, renderField("📅 Calendar", calName))

	lines = append(lines, renderField("🕐 When", m.formatSpan(event)))
	if !event.AllDay() {
		lines = append(lines, renderField("⏱️  Duration", formatDuration(event.Duration())))
	}

	if summary := m.ruleSummary(event); summary != "" {
		lines = append(lines, renderWrappedField("🔁 Repeats", summary, width))
	}

	// Past / in progress / upcoming
	now := time.Now()
	switch {
	case !event.AllDay() && m.gridEnd(event).Before(now):
		ago := now.Sub(m.gridEnd(event))
		lines = append(lines, "")
		lines = append(lines, lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true).
			Render(fmt.Sprintf("✓ Ended %s ago", formatDuration(ago))))
	case event.InProgress(now):
		remaining := m.gridEnd(event).Sub(now)
		lines = append(lines, "")
		lines = append(lines, InProgressStyle.Render(fmt.Sprintf("🟢 IN PROGRESS • %s remaining", formatDuration(remaining))))
	case !event.AllDay() && m.gridStart(event).After(now):
		until := m.gridStart(event).Sub(now)
		lines = append(lines, "")
		lines = append(lines, lipgloss.NewStyle().Foreground(accentColor).Render(fmt.Sprintf("⏳ Starts in %s", formatDuration(until))))
	}

	lines = append(lines, "")

	if event.Location != "" {
		lines = append(lines, renderWrappedField("📍 Location", event.Location, width))
	}

	lines = append(lines, renderField("📊 Status", m.formatStatus(event.Status)))

	if event.Organizer.Email != "" || event.Organizer.Name != "" {
		lines = append(lines, renderWrappedField("👤 Organizer", formatParticipant(event.Organizer), width))
	}
	if len(event.Attendees) > 0 {
		lines = append(lines, LabelStyle.Render("👥 Attendees"))
		for _, a := range event.Attendees {
			lines = append(lines, fmt.Sprintf("   • %s", ValueStyle.Render(formatParticipant(a))))
		}
	}

	if len(event.Alarms) > 0 {
		lines = append(lines, LabelStyle.Render("⏰ Reminders"))
		for _, a := range event.Alarms {
			lines = append(lines, fmt.Sprintf("   • %s before start", formatDuration(a.Offset)))
		}
	}

	if event.Description != "" {
		lines = append(lines, "")
		lines = append(lines, LabelStyle.Render("📝 Description"))
		desc := util.HTMLToText(event.Description, width)
		wrapped := ansi.Wordwrap(desc, width, "")
		lines = append(lines, ValueStyle.Render(wrapped))
	}

	if event.URL != "" {
		lines = append(lines, "")
		displayURL := util.TruncateText(event.URL, width-3)
		lines = append(lines, renderField("🔗 Event", util.MakeHyperlink(event.URL, LinkStyle.Render(displayURL))))
	}

	lines = append(lines, "")
	lines = append(lines, CalendarBadgeStyle.Render(util.TruncateText("UID "+event.Identity(), width)))

	m.detailView.SetContent(strings.Join(lines, "\n"))
}

func (m Model) renderDetailPanel() string {
	if len(m.events) == 0 {
		return DetailPanelStyle.Width(m.detailWidth).Height(m.contentHeight).Render(
			lipgloss.NewStyle().
				Foreground(mutedColor).
				Render("No event selected"),
		)
	}

	scrollInfo := ""
	if m.viewportReady && m.detailView.TotalLineCount() > m.detailView.Height {
		scrollPct := int(m.detailView.ScrollPercent() * 100)
		scrollInfo = lipgloss.NewStyle().
			Foreground(mutedColor).
			Render(fmt.Sprintf(" (%d%%)", scrollPct))
	}

	header := lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true).
		Render("Event Details") + scrollInfo

	return DetailPanelStyle.Width(m.detailWidth).Height(m.contentHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", m.detailView.View()),
	)
}

func (m Model) renderHelp() string {
	keys := []string{
		HelpKeyStyle.Render("↑/↓") + " nav",
		HelpKeyStyle.Render("←/→") + " day",
		HelpKeyStyle.Render("t") + " now",
		HelpKeyStyle.Render("d") + " delete",
		HelpKeyStyle.Render("x") + " hide cal",
		HelpKeyStyle.Render("r") + " refresh",
		HelpKeyStyle.Render("q") + " quit",
	}

	fullLine := strings.Join(keys, "  •  ")

	maxWidth := m.width - 4
	if lipgloss.Width(fullLine) > maxWidth {
		return HelpStyle.Render(HelpKeyStyle.Render("?") + " help")
	}
	return HelpStyle.Render(fullLine)
}

func (m Model) renderHelpPanel() string {
	header := lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true).
		Render("Keyboard Shortcuts")

	lines := []string{
		"",
		HelpKeyStyle.Render("  ↑          ") + " Move up",
		HelpKeyStyle.Render("  ↓          ") + " Move down",
		HelpKeyStyle.Render("  ctrl+u/d   ") + " Scroll detail panel",
		HelpKeyStyle.Render("  →          ") + " Next day",
		HelpKeyStyle.Render("  ←          ") + " Previous day",
		HelpKeyStyle.Render("  t          ") + " Jump to now / today",
		HelpKeyStyle.Render("  tab        ") + " Switch panel",
		HelpKeyStyle.Render("  d          ") + " Delete event (asks occurrence vs series)",
		HelpKeyStyle.Render("  x          ") + " Hide the selected event's calendar",
		HelpKeyStyle.Render("  X          ") + " Unhide all calendars",
		HelpKeyStyle.Render("  r          ") + " Refresh events",
		HelpKeyStyle.Render("  q / ctrl+c ") + " Quit",
		"",
		lipgloss.NewStyle().Foreground(mutedColor).Italic(true).Render("  Press any key to close"),
	}

	body := strings.Join(lines, "\n")

	panelWidth := m.detailWidth
	if m.compactMode {
		panelWidth = m.listWidth
	}

	return DetailPanelStyle.Width(panelWidth).Height(m.contentHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, body),
	)
}

// Helper functions

// ruleSummary describes the recurrence behind an event. Expanded
// occurrences carry no rule of their own, so the series template is
// looked up through the cached resource.
func (m Model) ruleSummary(event core.Event) string {
	if event.Rule != nil {
		return event.Rule.Summary(recur.English)
	}
	if !event.IsException() {
		return ""
	}
	if res, ok := m.cal.Resource(event); ok {
		for _, e := range res.Events {
			if e.UID == event.UID && e.Recurs() && !e.IsException() && e.Rule != nil {
				return e.Rule.Summary(recur.English)
			}
		}
	}
	return "one occurrence of a repeating series"
}

func renderField(label, value string) string {
	return LabelStyle.Render(label) + " " + ValueStyle.Render(value)
}

// renderWrappedField renders a label-value field, word-wrapping the value
// to fit within maxWidth.
func renderWrappedField(label, value string, maxWidth int) string {
	labelRendered := LabelStyle.Render(label)
	labelWidth := lipgloss.Width(labelRendered) + 1
	valueWidth := maxWidth - labelWidth
	if valueWidth < 10 {
		valueWidth = 10
	}
	wrapped := ansi.Wordwrap(value, valueWidth, "")
	wrapLines := strings.Split(wrapped, "\n")
	indent := strings.Repeat(" ", labelWidth)
	for i := 1; i < len(wrapLines); i++ {
		wrapLines[i] = indent + wrapLines[i]
	}
	return labelRendered + " " + ValueStyle.Render(strings.Join(wrapLines, "\n"))
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		if hours > 0 {
			return fmt.Sprintf("%dd %dh", days, hours)
		}
		return fmt.Sprintf("%dd", days)
	}
	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", minutes)
}

// formatSpan renders the event's span in the display zone. All-day values
// go through the grid shift so the printed date is the authored civil
// date, whatever the viewer's offset.
func (m Model) formatSpan(event core.Event) string {
	start := m.gridStart(event)
	end := m.gridEnd(event)

	if event.AllDay() {
		lastDay := end.AddDate(0, 0, -1) // DTEND is exclusive
		if !lastDay.After(start) || sameDay(start, lastDay) {
			return start.Format("Mon, Jan 2") + " (all day)"
		}
		return fmt.Sprintf("%s - %s (all day)", start.Format("Mon, Jan 2"), lastDay.Format("Mon, Jan 2"))
	}
	if sameDay(start, end) {
		return fmt.Sprintf("%s, %s - %s",
			start.Format("Mon, Jan 2"),
			start.Format("3:04 PM"),
			end.Format("3:04 PM"))
	}
	return fmt.Sprintf("%s - %s",
		start.Format("Mon, Jan 2 3:04 PM"),
		end.Format("Mon, Jan 2 3:04 PM"))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (m Model) formatStatus(status core.Status) string {
	switch status {
	case core.StatusConfirmed:
		return ConfirmedStyle.Render("Confirmed ✓")
	case core.StatusTentative:
		return TentativeStyle.Render("Tentative ?")
	case core.StatusCancelled:
		return CancelledStyle.Render("Cancelled ✗")
	default:
		return "Unknown"
	}
}

func formatParticipant(a core.Attendee) string {
	switch {
	case a.Name != "" && a.Email != "":
		return fmt.Sprintf("%s <%s>", a.Name, a.Email)
	case a.Name != "":
		return a.Name
	default:
		return a.Email
	}
}
