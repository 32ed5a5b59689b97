package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"
	"github.com/zapdesk/zapdesk/internal/azdo"
	"github.com/zapdesk/zapdesk/internal/board"
	"github.com/zapdesk/zapdesk/internal/domain"
)

// Layout constants
const (
	minColumnWidth = 20
	maxColumnWidth = 35
	pageJumpSize   = 10 // Number of tickets to jump with Ctrl+D/U
)

// Styles for the board view - base styles without width/height (set dynamically)
var (
	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	ticketStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedTicketStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true)

	draggedTicketStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("228")).
				Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	dragModeStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("205")).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1)

	persistingStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("228")).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1)
)

// BoardModel represents the main kanban board view
type BoardModel struct {
	// Dependencies
	store   *board.Store
	session *board.Session
	client  *azdo.Client
	ctx     context.Context

	// Board target
	project      string
	workItemType string
	supportTag   string

	// UI components
	keymap      KeyMap
	help        HelpModel
	spinner     spinner.Model
	filterInput textinput.Model

	// Board state
	columns         []string         // State names in display order
	filteredTickets map[string][]int // State name -> ticket IDs
	selectedColumn  int              // Currently selected column
	columnOffset    int              // Horizontal scroll offset (first visible column index)
	selectedTicket  map[string]int   // State name -> selected ticket index
	scrollOffset    map[string]int   // State name -> scroll offset

	// View state
	viewer       string // Authenticated user, for the "assigned to me" filter
	width        int
	height       int
	showHelp     bool
	filterMode   bool
	filterText   string
	filterMyOnly bool
	loading      bool
	errorToast   string
}

// NewBoardModel creates a new board model for the given project's
// support tickets.
func NewBoardModel(s *board.Store, client *azdo.Client, ctx context.Context, project, workItemType, supportTag string) BoardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.Prompt = "/ "

	return BoardModel{
		store:           s,
		session:         board.NewSession(s, nil),
		client:          client,
		ctx:             ctx,
		project:         project,
		workItemType:    workItemType,
		supportTag:      supportTag,
		keymap:          DefaultKeyMap(),
		help:            NewHelpModel(DefaultKeyMap()),
		spinner:         sp,
		filterInput:     ti,
		columns:         []string{},
		filteredTickets: make(map[string][]int),
		selectedTicket:  make(map[string]int),
		scrollOffset:    make(map[string]int),
		loading:         true,
	}
}

// Init starts the spinner and kicks off the initial load.
func (m BoardModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tea.WindowSize(),
		m.loadBoard(),
	)
}

// Update handles messages
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardLoadedMsg:
		// Fetched off the update loop; applied to the store here so only
		// this goroutine ever mutates it.
		m.loading = false
		m.viewer = msg.viewer
		m.store.SetStates(msg.states)
		m.store.SetTickets(msg.tickets)
		(&m).rebuildColumns()
		(&m).applyFilter()
		return m, nil

	case boardErrorMsg:
		m.loading = false
		m.errorToast = fmt.Sprintf("Load failed: %v", msg.err)
		return m, nil

	case dropDoneMsg:
		// The persistence call resolved; commit or roll back here, on the
		// update loop.
		err := m.session.Resolve(msg.err)
		(&m).rebuildColumns()
		(&m).applyFilter()
		if err != nil {
			m.errorToast = fmt.Sprintf("Move failed: %v", err)
		} else {
			(&m).followTicket(msg.id)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// handleKeyPress processes keyboard input
func (m BoardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global quit
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Help overlay
	if m.showHelp {
		if msg.String() == "?" || msg.String() == "q" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	// Filter mode
	if m.filterMode {
		switch msg.String() {
		case "enter":
			m.filterMode = false
			m.filterText = m.filterInput.Value()
			(&m).applyFilter()
			return m, nil
		case "esc":
			m.filterMode = false
			m.filterInput.SetValue(m.filterText)
			return m, nil
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			return m, cmd
		}
	}

	// Drag in progress
	if m.session.Phase() == board.PhaseDragging {
		return m.handleDragMode(msg)
	}

	// Keys are ignored while a drop is being persisted.
	if m.session.Phase() == board.PhasePersisting {
		return m, nil
	}

	// Normal navigation
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "/":
		m.filterMode = true
		m.filterInput.Focus()
	case "h", "left":
		if m.selectedColumn > 0 {
			m.selectedColumn--
			(&m).adjustColumnScroll()
		}
	case "l", "right":
		if m.selectedColumn < len(m.columns)-1 {
			m.selectedColumn++
			(&m).adjustColumnScroll()
		}
	case "j", "down":
		(&m).moveTicketSelection(1)
	case "k", "up":
		(&m).moveTicketSelection(-1)
	case "g":
		(&m).jumpToTicket(0)
	case "G":
		(&m).jumpToTicket(-1)
	case "ctrl+d":
		(&m).moveTicketSelection(pageJumpSize)
	case "ctrl+u":
		(&m).moveTicketSelection(-pageJumpSize)
	case "m", " ":
		ticket := m.getSelectedTicket()
		if ticket != nil {
			if err := m.session.Pickup(ticket.ID); err != nil {
				m.errorToast = fmt.Sprintf("Cannot move: %v", err)
			} else {
				m.errorToast = ""
			}
		}
	case "o":
		ticket := m.getSelectedTicket()
		if ticket != nil && ticket.URL != "" {
			_ = browser.OpenURL(ticket.URL)
		}
	case "r":
		m.loading = true
		return m, m.loadBoard()
	case "a":
		m.filterMyOnly = !m.filterMyOnly
		(&m).applyFilter()
	case "enter":
		ticket := m.getSelectedTicket()
		if ticket != nil {
			return m, func() tea.Msg { return openDetailMsg{ticket: ticket} }
		}
	}

	return m, nil
}

// handleDragMode handles key presses while a ticket is picked up. Moving
// across columns updates the speculative working copy immediately, so the
// board shows the ticket in its would-be column before anything persists.
func (m BoardModel) handleDragMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.session.Cancel()
		(&m).rebuildColumns()
		(&m).applyFilter()
		return m, nil

	case "h", "left":
		if m.selectedColumn > 0 {
			(&m).hoverColumn(m.selectedColumn - 1)
		}
		return m, nil

	case "l", "right":
		if m.selectedColumn < len(m.columns)-1 {
			(&m).hoverColumn(m.selectedColumn + 1)
		}
		return m, nil

	case "j", "down":
		(&m).hoverNeighborTicket(1)
		return m, nil

	case "k", "up":
		(&m).hoverNeighborTicket(-1)
		return m, nil

	case "enter":
		// Resolve the drop synchronously; the returned command performs
		// only the network call, so the store and session are never
		// touched off the update loop.
		target, ok, err := m.session.Drop()
		(&m).rebuildColumns()
		(&m).applyFilter()
		if err != nil {
			m.errorToast = fmt.Sprintf("Move failed: %v", err)
			return m, nil
		}
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return dropDoneMsg{
				id:  target.ID,
				err: m.client.UpdateState(m.ctx, m.project, target.ID, target.State),
			}
		}
	}
	return m, nil
}

// hoverColumn moves the drag target to the column at idx and re-renders
// the speculative placement.
func (m *BoardModel) hoverColumn(idx int) {
	state := m.columns[idx]
	if err := m.session.HoverColumn(state); err != nil {
		m.errorToast = fmt.Sprintf("Cannot hover: %v", err)
		return
	}
	m.selectedColumn = idx
	m.adjustColumnScroll()
	m.rebuildColumns()
	m.applyFilter()
	m.followTicket(m.session.ActiveID())
}

// hoverNeighborTicket hovers the drag over the next/previous ticket in the
// current column.
func (m *BoardModel) hoverNeighborTicket(delta int) {
	colState := m.columns[m.selectedColumn]
	ids := m.filteredTickets[colState]
	if len(ids) == 0 {
		return
	}

	idx := m.selectedTicket[colState] + delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(ids) {
		idx = len(ids) - 1
	}

	if err := m.session.HoverTicket(ids[idx]); err != nil {
		return
	}
	m.selectedTicket[colState] = idx
	m.adjustScroll(colState)
}

// followTicket moves the cursor to wherever the given ticket now sits.
func (m *BoardModel) followTicket(id int) {
	for colIdx, state := range m.columns {
		for i, candidate := range m.filteredTickets[state] {
			if candidate == id {
				m.selectedColumn = colIdx
				m.selectedTicket[state] = i
				m.adjustColumnScroll()
				m.adjustScroll(state)
				return
			}
		}
	}
}

// View renders the board - fills entire terminal exactly
func (m BoardModel) View() string {
	// Use sensible defaults if dimensions not yet set
	width := m.width
	height := m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	var sections []string

	// === HEADER (title + status) ===
	header := m.renderHeader(width)
	sections = append(sections, header)

	// === SECOND HEADER LINE (navigation hints + position) ===
	secondHeader := m.renderSecondHeader(width)
	sections = append(sections, secondHeader)

	// === FILTER INPUT (if active) ===
	if m.filterMode {
		sections = append(sections, m.filterInput.View())
	}

	// === DRAG BANNER ===
	switch m.session.Phase() {
	case board.PhaseDragging:
		bar := dragModeStyle.Render("DRAG") +
			fmt.Sprintf(" #%d  h/l:column j/k:ticket enter:drop esc:cancel", m.session.ActiveID())
		sections = append(sections, bar)
	case board.PhasePersisting:
		bar := persistingStyle.Render("SAVING") + " " + m.spinner.View()
		sections = append(sections, bar)
	}

	// Calculate board height:
	// total height - header(1) - secondHeader(1) - optional filter(1) - optional drag banner(1)
	boardHeight := height - 2
	if m.filterMode {
		boardHeight--
	}
	if m.session.Phase() != board.PhaseIdle {
		boardHeight--
	}
	if boardHeight < 5 {
		boardHeight = 5
	}

	// === MAIN CONTENT ===
	var mainContent string
	if m.showHelp {
		helpContent := m.help.View(width)
		helpLines := strings.Split(helpContent, "\n")
		if len(helpLines) > boardHeight {
			helpLines = helpLines[:boardHeight]
		}
		mainContent = strings.Join(helpLines, "\n")
	} else if m.loading && len(m.columns) == 0 {
		loadingMsg := m.spinner.View() + " Loading..."
		mainContent = lipgloss.Place(width, boardHeight, lipgloss.Center, lipgloss.Center, loadingMsg)
	} else if len(m.columns) == 0 {
		emptyMsg := "No columns available. Press 'r' to refresh."
		mainContent = lipgloss.Place(width, boardHeight, lipgloss.Center, lipgloss.Center, emptyMsg)
	} else {
		mainContent = m.renderBoard(width, boardHeight)
	}
	sections = append(sections, mainContent)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderSecondHeader renders navigation hints and position info
func (m BoardModel) renderSecondHeader(width int) string {
	left := "h/l:col j/k:ticket m:move o:open enter:view"

	right := ""
	if m.errorToast != "" {
		right = errorStyle.Render(m.errorToast)
	} else if len(m.columns) > 0 {
		state := m.columns[m.selectedColumn]
		ids := m.filteredTickets[state]

		colPos := fmt.Sprintf("col %d/%d", m.selectedColumn+1, len(m.columns))
		if len(ids) > 0 {
			right = fmt.Sprintf("%s | ticket %d/%d", colPos, m.selectedTicket[state]+1, len(ids))
		} else {
			right = colPos
		}
	}

	leftLen := len(left)
	rightLen := lipgloss.Width(right)
	padding := width - leftLen - rightLen - 2
	if padding < 1 {
		padding = 1
	}

	return dimStyle.Render(left) + strings.Repeat(" ", padding) + right
}

// renderHeader renders a single header line with title on left and status on right
func (m BoardModel) renderHeader(width int) string {
	title := fmt.Sprintf("%s - %s tickets", m.project, m.workItemType)

	var statusParts []string
	if m.loading {
		statusParts = append(statusParts, m.spinner.View()+"loading")
	}

	totalTickets := 0
	for _, ids := range m.filteredTickets {
		totalTickets += len(ids)
	}
	statusParts = append(statusParts, fmt.Sprintf("%d tickets", totalTickets))

	if m.filterMyOnly {
		statusParts = append(statusParts, "@me")
	}
	if m.filterText != "" {
		statusParts = append(statusParts, fmt.Sprintf("/%s", m.filterText))
	}
	statusParts = append(statusParts, "[a]@me [?]help")

	status := strings.Join(statusParts, " | ")

	padding := width - len(title) - len(status) - 2
	if padding < 1 {
		padding = 1
	}

	return titleStyle.Render(title) + strings.Repeat(" ", padding) + dimStyle.Render(status)
}

// renderBoard renders the kanban columns within the given dimensions
// Implements horizontal scrolling (carousel) when columns overflow
func (m BoardModel) renderBoard(totalWidth, totalHeight int) string {
	numCols := len(m.columns)
	if numCols == 0 {
		return ""
	}

	// lipgloss Border adds 2 lines (top + bottom) to the content height
	colContentHeight := totalHeight - 2
	if colContentHeight < 3 {
		colContentHeight = 3
	}

	maxVisibleCols := totalWidth / minColumnWidth
	if maxVisibleCols < 1 {
		maxVisibleCols = 1
	}

	visibleCols := maxVisibleCols
	if visibleCols > numCols {
		visibleCols = numCols
	}

	colWidth := totalWidth / visibleCols
	if colWidth > maxColumnWidth {
		colWidth = maxColumnWidth
	}
	if colWidth < minColumnWidth {
		colWidth = minColumnWidth
	}

	// Content width inside column (minus border and padding: 2 border + 2 padding = 4)
	innerWidth := colWidth - 4
	if innerWidth < 10 {
		innerWidth = 10
	}

	maxTicketLines := colContentHeight - 1 // header takes one line
	if maxTicketLines < 1 {
		maxTicketLines = 1
	}

	startCol := m.columnOffset
	endCol := startCol + visibleCols
	if endCol > numCols {
		endCol = numCols
		startCol = endCol - visibleCols
		if startCol < 0 {
			startCol = 0
		}
	}

	columnViews := make([]string, 0, visibleCols)

	if startCol > 0 {
		indicator := lipgloss.NewStyle().
			Width(2).
			Height(colContentHeight+2).
			Foreground(lipgloss.Color("205")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("◀")
		columnViews = append(columnViews, indicator)
	}

	for i := startCol; i < endCol; i++ {
		state := m.columns[i]
		isSelected := i == m.selectedColumn
		columnViews = append(columnViews, m.renderColumn(state, isSelected, colWidth, colContentHeight, innerWidth, maxTicketLines))
	}

	if endCol < numCols {
		indicator := lipgloss.NewStyle().
			Width(2).
			Height(colContentHeight+2).
			Foreground(lipgloss.Color("205")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("▶")
		columnViews = append(columnViews, indicator)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)
}

// renderColumn renders a single column with proper sizing
func (m BoardModel) renderColumn(state string, selected bool, width, innerHeight, innerWidth, maxTicketLines int) string {
	ids := m.filteredTickets[state]

	headerText := fmt.Sprintf("%s (%d)", state, len(ids))
	if len(headerText) > innerWidth {
		headerText = headerText[:innerWidth-1] + "…"
	}

	scrollOffset := m.scrollOffset[state]
	selectedIdx := m.selectedTicket[state]
	draggedID := m.session.ActiveID()

	ticketSlots := maxTicketLines - 1 // header line
	if ticketSlots < 1 {
		ticketSlots = 1
	}

	needUpIndicator := scrollOffset > 0
	needDownIndicator := false

	availableSlots := ticketSlots
	if needUpIndicator {
		availableSlots--
	}

	endIdx := scrollOffset + availableSlots
	if endIdx > len(ids) {
		endIdx = len(ids)
	}

	if endIdx < len(ids) {
		needDownIndicator = true
		availableSlots--
		endIdx = scrollOffset + availableSlots
		if endIdx > len(ids) {
			endIdx = len(ids)
		}
	}

	var lines []string
	lines = append(lines, columnHeaderStyle.Render(headerText))

	if needUpIndicator {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↑ %d more", scrollOffset)))
	}

	for i := scrollOffset; i < endIdx; i++ {
		ticket, err := m.store.Ticket(ids[i])
		if err != nil {
			continue
		}

		text := m.formatTicketText(ticket, innerWidth-3) // 3 for "> " or "  " prefix
		switch {
		case ticket.ID == draggedID && m.session.Phase() != board.PhaseIdle:
			lines = append(lines, draggedTicketStyle.Render("◆ "+text))
		case selected && i == selectedIdx:
			lines = append(lines, selectedTicketStyle.Render("> "+text))
		default:
			lines = append(lines, ticketStyle.Render("  "+text))
		}
	}

	remaining := len(ids) - endIdx
	if needDownIndicator && remaining > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↓ %d more", remaining)))
	}

	if len(ids) == 0 {
		lines = append(lines, dimStyle.Render("(empty)"))
	}

	content := strings.Join(lines, "\n")

	borderColor := lipgloss.Color("240")
	if selected {
		borderColor = lipgloss.Color("205")
	}

	colStyle := lipgloss.NewStyle().
		Width(width-2).      // Subtract border width
		Height(innerHeight). // Inner content height (border adds 2 to total)
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor)

	return colStyle.Render(content)
}

// formatTicketText formats a ticket for display with max width.
// Right-aligns the work item ID, prefixing urgent priorities.
func (m BoardModel) formatTicketText(ticket domain.Ticket, maxWidth int) string {
	title := ticket.Title

	suffix := fmt.Sprintf("#%d", ticket.ID)
	if ticket.Priority > 0 && ticket.Priority <= 2 {
		suffix = fmt.Sprintf("P%d %s", ticket.Priority, suffix)
	}

	suffixLen := len(suffix)

	availableForTitle := maxWidth - suffixLen - 1
	if availableForTitle < 5 {
		availableForTitle = 5
	}

	if len(title) > availableForTitle {
		title = title[:availableForTitle-1] + "…"
	}

	padding := maxWidth - len(title) - suffixLen
	if padding < 1 {
		padding = 1
	}

	return title + strings.Repeat(" ", padding) + dimStyle.Render(suffix)
}

// rebuildColumns rebuilds column structure from the store's working copy
func (m *BoardModel) rebuildColumns() {
	cols, err := m.store.Columns()
	if err != nil {
		m.columns = nil
		return
	}

	m.columns = make([]string, len(cols))
	for i, c := range cols {
		m.columns[i] = c.State
	}

	if m.selectedColumn >= len(m.columns) {
		m.selectedColumn = 0
	}
}

// applyFilter filters tickets and groups them by column
func (m *BoardModel) applyFilter() {
	cols, err := m.store.Columns()
	if err != nil {
		cols = nil
	}

	m.filteredTickets = make(map[string][]int)
	for _, state := range m.columns {
		m.filteredTickets[state] = []int{}
	}

	for _, col := range cols {
		filtered := make([]int, 0)
		for _, ticket := range col.Tickets {
			// Text filter matches title and tags
			if m.filterText != "" && !ticketMatches(ticket, m.filterText) {
				continue
			}

			// "Assigned to me" filter
			if m.filterMyOnly && m.viewer != "" &&
				!strings.EqualFold(ticket.Assignee, m.viewer) {
				continue
			}

			filtered = append(filtered, ticket.ID)
		}
		m.filteredTickets[col.State] = filtered
	}

	// Reset scroll offsets and clamp selection when the filter changes
	for state := range m.filteredTickets {
		m.scrollOffset[state] = 0
		if m.selectedTicket[state] >= len(m.filteredTickets[state]) {
			if len(m.filteredTickets[state]) > 0 {
				m.selectedTicket[state] = len(m.filteredTickets[state]) - 1
			} else {
				m.selectedTicket[state] = 0
			}
		}
	}
}

// ticketMatches reports whether the ticket matches the text filter.
func ticketMatches(ticket domain.Ticket, filter string) bool {
	needle := strings.ToLower(filter)
	if strings.Contains(strings.ToLower(ticket.Title), needle) {
		return true
	}
	for _, tag := range ticket.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// moveTicketSelection moves the ticket selection up or down by delta
func (m *BoardModel) moveTicketSelection(delta int) {
	if len(m.columns) == 0 {
		return
	}

	state := m.columns[m.selectedColumn]
	ids := m.filteredTickets[state]
	if len(ids) == 0 {
		return
	}

	newIdx := m.selectedTicket[state] + delta
	if newIdx < 0 {
		newIdx = 0
	}
	if newIdx >= len(ids) {
		newIdx = len(ids) - 1
	}

	m.selectedTicket[state] = newIdx
	m.adjustScroll(state)
}

// jumpToTicket jumps to a specific ticket index. Use -1 to jump to last.
func (m *BoardModel) jumpToTicket(idx int) {
	if len(m.columns) == 0 {
		return
	}

	state := m.columns[m.selectedColumn]
	ids := m.filteredTickets[state]
	if len(ids) == 0 {
		return
	}

	if idx < 0 {
		idx = len(ids) - 1
	}
	if idx >= len(ids) {
		idx = len(ids) - 1
	}

	m.selectedTicket[state] = idx
	m.adjustScroll(state)
}

// adjustScroll ensures the selected ticket is visible
func (m *BoardModel) adjustScroll(state string) {
	selectedIdx := m.selectedTicket[state]
	scrollOffset := m.scrollOffset[state]

	contentHeight := m.height - 1 - 2 // header line + column borders
	if m.filterMode {
		contentHeight--
	}
	if m.session.Phase() != board.PhaseIdle {
		contentHeight--
	}
	visibleTickets := contentHeight - 3 // column header + potential scroll indicators
	if visibleTickets < 3 {
		visibleTickets = 3
	}

	if selectedIdx < scrollOffset {
		m.scrollOffset[state] = selectedIdx
	}

	if selectedIdx >= scrollOffset+visibleTickets {
		m.scrollOffset[state] = selectedIdx - visibleTickets + 1
	}
}

// adjustColumnScroll ensures the selected column is visible (horizontal carousel)
func (m *BoardModel) adjustColumnScroll() {
	if len(m.columns) == 0 || m.width == 0 {
		return
	}

	visibleCols := m.width / minColumnWidth
	if visibleCols < 1 {
		visibleCols = 1
	}
	if visibleCols > len(m.columns) {
		visibleCols = len(m.columns)
	}

	if m.selectedColumn < m.columnOffset {
		m.columnOffset = m.selectedColumn
	}

	if m.selectedColumn >= m.columnOffset+visibleCols {
		m.columnOffset = m.selectedColumn - visibleCols + 1
	}
}

// getSelectedTicket returns the currently selected ticket
func (m BoardModel) getSelectedTicket() *domain.Ticket {
	if len(m.columns) == 0 {
		return nil
	}

	state := m.columns[m.selectedColumn]
	ids := m.filteredTickets[state]
	if len(ids) == 0 {
		return nil
	}

	idx := m.selectedTicket[state]
	if idx >= len(ids) {
		idx = 0
	}

	ticket, err := m.store.Ticket(ids[idx])
	if err != nil {
		return nil
	}

	return &ticket
}

// loadBoard fetches states, tickets, and the viewer account. Fetch only:
// the results travel back in the message and are applied in Update.
func (m BoardModel) loadBoard() tea.Cmd {
	return func() tea.Msg {
		states, err := m.client.GetStates(m.ctx, m.project, m.workItemType)
		if err != nil {
			return boardErrorMsg{err: err}
		}

		wiql := azdo.SupportQuery(m.workItemType, m.supportTag)
		tickets, err := m.client.QueryTickets(m.ctx, m.project, wiql)
		if err != nil {
			return boardErrorMsg{err: err}
		}

		// Viewer lookup is best effort; the @me filter just stays off.
		viewer, _ := m.client.Viewer(m.ctx)

		return boardLoadedMsg{states: states, tickets: tickets, viewer: viewer}
	}
}

// Message types
type (
	boardLoadedMsg struct {
		states  []domain.StateDef
		tickets []domain.Ticket
		viewer  string
	}
	boardErrorMsg struct{ err error }
	dropDoneMsg   struct {
		id  int
		err error
	}
	openDetailMsg struct{ ticket *domain.Ticket }
)
