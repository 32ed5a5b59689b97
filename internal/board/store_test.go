package board

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapdesk/zapdesk/internal/domain"
)

func supportStates() []domain.StateDef {
	return []domain.StateDef{
		{Name: "New", Category: domain.CategoryProposed, Order: 1},
		{Name: "Active", Category: domain.CategoryInProgress, Order: 2},
		{Name: "Closed", Category: domain.CategoryCompleted, Order: 3},
	}
}

func supportTickets() []domain.Ticket {
	return []domain.Ticket{
		{ID: 1, Title: "Printer on fire", State: "New", Priority: 1, Tags: []string{"support"}},
		{ID: 2, Title: "Password reset", State: "Active", Priority: 3},
		{ID: 3, Title: "Slow VPN", State: "Closed", Priority: 2},
	}
}

func TestStore_SetTicketsDerivesWorkingCopy(t *testing.T) {
	s := NewStore(nil)
	s.SetStates(supportStates())
	s.SetTickets(supportTickets())

	assert.Equal(t, supportTickets(), s.Tickets())
}

func TestStore_WorkingCopyIsDeepCopy(t *testing.T) {
	s := NewStore(nil)
	s.SetStates(supportStates())
	original := supportTickets()
	s.SetTickets(original)

	// Mutating the caller's slice must not leak into the store.
	original[0].State = "Closed"
	original[0].Tags[0] = "mangled"

	tk, err := s.Ticket(1)
	require.NoError(t, err)
	assert.Equal(t, "New", tk.State)
	assert.Equal(t, []string{"support"}, tk.Tags)
}

func TestStore_Ticket(t *testing.T) {
	s := NewStore(nil)
	s.SetTickets(supportTickets())

	t.Run("existing", func(t *testing.T) {
		tk, err := s.Ticket(2)
		require.NoError(t, err)
		assert.Equal(t, "Password reset", tk.Title)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := s.Ticket(99)
		assert.ErrorIs(t, err, ErrTicketNotFound)
	})
}

func TestStore_Columns(t *testing.T) {
	s := NewStore(nil)

	t.Run("no states set", func(t *testing.T) {
		_, err := s.Columns()
		assert.ErrorIs(t, err, ErrNoStates)
	})

	t.Run("grouped by state", func(t *testing.T) {
		s.SetStates(supportStates())
		s.SetTickets(supportTickets())

		cols, err := s.Columns()
		require.NoError(t, err)
		require.Len(t, cols, 3)

		assert.Equal(t, "New", cols[0].State)
		assert.Equal(t, "Active", cols[1].State)
		assert.Equal(t, "Closed", cols[2].State)
		require.Len(t, cols[0].Tickets, 1)
		assert.Equal(t, 1, cols[0].Tickets[0].ID)
	})
}

func TestStore_ColumnsLogsFallback(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := NewStore(logger)
	s.SetStates([]domain.StateDef{{Name: "New"}, {Name: "Active"}})
	s.SetTickets([]domain.Ticket{{ID: 3, State: "Weird"}})

	cols, err := s.Columns()
	require.NoError(t, err)

	// The stray lands in the first known column, not dropped.
	require.Len(t, cols[0].Tickets, 1)
	assert.Equal(t, 3, cols[0].Tickets[0].ID)
	assert.Empty(t, cols[1].Tickets)

	// The anomaly is logged with the unmatched state named.
	assert.Contains(t, buf.String(), "Weird")
	assert.Contains(t, buf.String(), "fallback")
}

func TestStore_ResetWorking(t *testing.T) {
	s := NewStore(nil)
	s.SetStates(supportStates())
	s.SetTickets(supportTickets())

	require.NoError(t, s.setWorkingState(1, "Active"))
	tk, err := s.Ticket(1)
	require.NoError(t, err)
	assert.Equal(t, "Active", tk.State)

	s.ResetWorking()

	assert.Equal(t, supportTickets(), s.Tickets())
}

func TestStore_AuthoritativeStateUnaffectedBySpeculation(t *testing.T) {
	s := NewStore(nil)
	s.SetStates(supportStates())
	s.SetTickets(supportTickets())

	require.NoError(t, s.setWorkingState(1, "Closed"))

	state, err := s.AuthoritativeState(1)
	require.NoError(t, err)
	assert.Equal(t, "New", state)
}
