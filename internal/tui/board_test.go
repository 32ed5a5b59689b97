package tui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapdesk/zapdesk/internal/azdo"
	"github.com/zapdesk/zapdesk/internal/board"
	"github.com/zapdesk/zapdesk/internal/domain"
)

// createTestStore creates a store with test data
func createTestStore() *board.Store {
	s := board.NewStore(nil)

	s.SetStates([]domain.StateDef{
		{Name: "New", Category: domain.CategoryProposed},
		{Name: "Active", Category: domain.CategoryInProgress},
		{Name: "Closed", Category: domain.CategoryCompleted},
	})

	s.SetTickets([]domain.Ticket{
		{ID: 1, Title: "Printer on fire", State: "New", Priority: 1, Assignee: "jane@example.com"},
		{ID: 2, Title: "Password reset", State: "New", Priority: 3},
		{ID: 3, Title: "VPN is down", State: "Active", Priority: 2, Assignee: "sam@example.com"},
		{ID: 4, Title: "Email bounced", State: "Closed"},
		{ID: 5, Title: "Laptop battery", State: "Closed", Tags: []string{"hardware"}},
	})

	return s
}

func newTestBoard(s *board.Store) BoardModel {
	b := NewBoardModel(s, nil, context.Background(), "Support", "Issue", "support")
	(&b).rebuildColumns()
	(&b).applyFilter()
	b.width = 120
	b.height = 40
	return b
}

func pressKey(t *testing.T, m BoardModel, k string) BoardModel {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEscape}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	model, _ := m.Update(msg)
	return model.(BoardModel)
}

func TestBoardModel_RebuildColumns(t *testing.T) {
	b := newTestBoard(createTestStore())

	assert.Equal(t, []string{"New", "Active", "Closed"}, b.columns)
}

func TestBoardModel_ApplyFilter(t *testing.T) {
	b := newTestBoard(createTestStore())

	assert.Equal(t, 2, len(b.filteredTickets["New"]))
	assert.Equal(t, 1, len(b.filteredTickets["Active"]))
	assert.Equal(t, 2, len(b.filteredTickets["Closed"]))
}

func TestBoardModel_ApplyFilterWithText(t *testing.T) {
	b := newTestBoard(createTestStore())

	b.filterText = "printer"
	(&b).applyFilter()

	assert.Equal(t, []int{1}, b.filteredTickets["New"])
	assert.Empty(t, b.filteredTickets["Active"])
}

func TestBoardModel_ApplyFilterMatchesTags(t *testing.T) {
	b := newTestBoard(createTestStore())

	b.filterText = "hardware"
	(&b).applyFilter()

	assert.Equal(t, []int{5}, b.filteredTickets["Closed"])
}

func TestBoardModel_AssignedToMeFilter(t *testing.T) {
	b := newTestBoard(createTestStore())
	b.viewer = "jane@example.com"

	b = pressKey(t, b, "a")

	assert.Equal(t, []int{1}, b.filteredTickets["New"])
	assert.Empty(t, b.filteredTickets["Active"])

	// Toggle back off
	b = pressKey(t, b, "a")
	assert.Equal(t, 2, len(b.filteredTickets["New"]))
}

func TestBoardModel_Navigation(t *testing.T) {
	b := newTestBoard(createTestStore())

	assert.Equal(t, 0, b.selectedColumn)

	b = pressKey(t, b, "l")
	assert.Equal(t, 1, b.selectedColumn)

	b = pressKey(t, b, "l")
	assert.Equal(t, 2, b.selectedColumn)

	// Past the last column: stays put
	b = pressKey(t, b, "l")
	assert.Equal(t, 2, b.selectedColumn)

	b = pressKey(t, b, "h")
	assert.Equal(t, 1, b.selectedColumn)
}

func TestBoardModel_TicketNavigation(t *testing.T) {
	b := newTestBoard(createTestStore())

	assert.Equal(t, 0, b.selectedTicket["New"])

	b = pressKey(t, b, "j")
	assert.Equal(t, 1, b.selectedTicket["New"])

	b = pressKey(t, b, "k")
	assert.Equal(t, 0, b.selectedTicket["New"])

	// Past the top: stays put
	b = pressKey(t, b, "k")
	assert.Equal(t, 0, b.selectedTicket["New"])
}

func TestBoardModel_PickupEntersDragMode(t *testing.T) {
	b := newTestBoard(createTestStore())

	b = pressKey(t, b, "m")

	assert.Equal(t, board.PhaseDragging, b.session.Phase())
	assert.Equal(t, 1, b.session.ActiveID())
}

func TestBoardModel_HoverShowsSpeculativePlacement(t *testing.T) {
	b := newTestBoard(createTestStore())

	b = pressKey(t, b, "m")
	b = pressKey(t, b, "l") // hover over Active

	// The dragged ticket is shown in its would-be column
	assert.Contains(t, b.filteredTickets["Active"], 1)
	assert.NotContains(t, b.filteredTickets["New"], 1)
	assert.Equal(t, 1, b.selectedColumn)

	// Nothing persisted yet: authoritative list untouched
	state, err := b.store.AuthoritativeState(1)
	require.NoError(t, err)
	assert.Equal(t, "New", state)
}

func TestBoardModel_CancelDragSnapsBack(t *testing.T) {
	b := newTestBoard(createTestStore())

	b = pressKey(t, b, "m")
	b = pressKey(t, b, "l")
	b = pressKey(t, b, "esc")

	assert.Equal(t, board.PhaseIdle, b.session.Phase())
	assert.Contains(t, b.filteredTickets["New"], 1)
	assert.NotContains(t, b.filteredTickets["Active"], 1)
}

func TestBoardModel_DropOnOwnColumnIsNoop(t *testing.T) {
	b := newTestBoard(createTestStore())

	b = pressKey(t, b, "m")
	b = pressKey(t, b, "l") // wander to Active
	b = pressKey(t, b, "h") // and back to New

	// No state change means no persistence command is issued at all (with
	// the nil client any issued command would panic).
	model, cmd := b.Update(tea.KeyMsg{Type: tea.KeyEnter})
	b = model.(BoardModel)
	assert.Nil(t, cmd)

	assert.Equal(t, board.PhaseIdle, b.session.Phase())
	assert.Contains(t, b.filteredTickets["New"], 1)
}

func TestBoardModel_RejectedDropShowsToastAndSnapsBack(t *testing.T) {
	b := newTestBoard(createTestStore())

	b = pressKey(t, b, "m")
	b = pressKey(t, b, "l")

	model, cmd := b.Update(tea.KeyMsg{Type: tea.KeyEnter})
	b = model.(BoardModel)
	require.NotNil(t, cmd)
	assert.Equal(t, board.PhasePersisting, b.session.Phase())

	// The remote rejects the move.
	model, _ = b.Update(dropDoneMsg{id: 1, err: errors.New("state transition not allowed")})
	b = model.(BoardModel)

	assert.Contains(t, b.errorToast, "Move failed")
	assert.Contains(t, b.filteredTickets["New"], 1)
	assert.NotContains(t, b.filteredTickets["Active"], 1)
	assert.Equal(t, board.PhaseIdle, b.session.Phase())
}

func TestBoardModel_SuccessfulDropCommits(t *testing.T) {
	b := newTestBoard(createTestStore())

	b = pressKey(t, b, "m")
	b = pressKey(t, b, "l")

	model, cmd := b.Update(tea.KeyMsg{Type: tea.KeyEnter})
	b = model.(BoardModel)
	require.NotNil(t, cmd)

	model, _ = b.Update(dropDoneMsg{id: 1, err: nil})
	b = model.(BoardModel)

	assert.Empty(t, b.errorToast)
	assert.Contains(t, b.filteredTickets["Active"], 1)
	state, err := b.store.AuthoritativeState(1)
	require.NoError(t, err)
	assert.Equal(t, "Active", state)
	assert.Equal(t, board.PhaseIdle, b.session.Phase())
}

// The persistence command runs on its own goroutine while the program
// goroutine keeps rendering. The command must only perform the network
// call; all store and session mutation stays in Update. Run with -race.
func TestBoardModel_ViewWhilePersistInFlight(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("{}"))
	}))
	t.Cleanup(srv.Close)

	client := azdo.NewWithToken(srv.URL, "pat")
	b := NewBoardModel(createTestStore(), client, context.Background(), "Support", "Issue", "support")
	(&b).rebuildColumns()
	(&b).applyFilter()
	b.width = 120
	b.height = 40

	b = pressKey(t, b, "m")
	b = pressKey(t, b, "l")

	model, cmd := b.Update(tea.KeyMsg{Type: tea.KeyEnter})
	b = model.(BoardModel)
	require.NotNil(t, cmd)

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	// Render while the call is in flight.
	for i := 0; i < 10; i++ {
		view := b.View()
		assert.Contains(t, view, "SAVING")
	}
	close(release)

	msg := <-done
	dropped, ok := msg.(dropDoneMsg)
	require.True(t, ok)
	require.NoError(t, dropped.err)

	model, _ = b.Update(dropped)
	b = model.(BoardModel)
	assert.Equal(t, board.PhaseIdle, b.session.Phase())
	assert.Contains(t, b.filteredTickets["Active"], 1)
}

func TestBoardModel_WindowResize(t *testing.T) {
	b := newTestBoard(createTestStore())

	model, _ := b.Update(tea.WindowSizeMsg{Width: 150, Height: 50})
	b = model.(BoardModel)

	assert.Equal(t, 150, b.width)
	assert.Equal(t, 50, b.height)
}

func TestBoardModel_View_NotPanic(t *testing.T) {
	s := board.NewStore(nil)
	b := NewBoardModel(s, nil, context.Background(), "Support", "Issue", "support")

	// Before any initialization, View should not panic
	require.NotPanics(t, func() {
		b.View()
	})

	b = newTestBoard(createTestStore())
	require.NotPanics(t, func() {
		view := b.View()
		assert.NotEmpty(t, view)
	})
}

func TestBoardModel_AllColumnsRendered(t *testing.T) {
	b := newTestBoard(createTestStore())
	b.width = 200

	view := b.View()

	assert.Contains(t, view, "New")
	assert.Contains(t, view, "Active")
	assert.Contains(t, view, "Closed")
}

func TestBoardModel_DragBannerRendered(t *testing.T) {
	b := newTestBoard(createTestStore())

	b = pressKey(t, b, "m")
	view := b.View()

	assert.Contains(t, view, "DRAG")
	assert.Contains(t, view, "#1")
}

func TestFormatTicketText_Truncation(t *testing.T) {
	b := newTestBoard(createTestStore())

	ticket := domain.Ticket{
		ID:    999,
		Title: "This is a very long title that should be truncated to fit the column width properly",
	}

	rendered := b.formatTicketText(ticket, 30)

	assert.Contains(t, rendered, "…")
	assert.Contains(t, rendered, "#999")
}

func TestFormatTicketText_UrgentPriority(t *testing.T) {
	b := newTestBoard(createTestStore())

	rendered := b.formatTicketText(domain.Ticket{ID: 7, Title: "Outage", Priority: 1}, 30)
	assert.Contains(t, rendered, "P1 #7")

	rendered = b.formatTicketText(domain.Ticket{ID: 8, Title: "Minor", Priority: 4}, 30)
	assert.NotContains(t, rendered, "P4")
	assert.Contains(t, rendered, "#8")
}

func TestBoardModel_ColumnStyles(t *testing.T) {
	b := newTestBoard(createTestStore())
	b.selectedColumn = 1

	view := b.renderBoard(b.width, b.height-2)

	assert.NotEmpty(t, view)
	lines := strings.Split(view, "\n")
	assert.Greater(t, len(lines), 1, "Should have multiple lines")
}
