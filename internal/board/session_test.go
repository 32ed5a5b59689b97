package board

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapdesk/zapdesk/internal/domain"
)

func newTestSession(t *testing.T) (*Session, *Store) {
	t.Helper()
	s := NewStore(nil)
	s.SetStates(supportStates())
	s.SetTickets([]domain.Ticket{
		{ID: 1, Title: "Printer on fire", State: "New"},
		{ID: 2, Title: "Password reset", State: "Active"},
	})
	return NewSession(s, nil), s
}

func TestSession_PickupAndPhase(t *testing.T) {
	sess, _ := newTestSession(t)

	assert.Equal(t, PhaseIdle, sess.Phase())
	require.NoError(t, sess.Pickup(1))
	assert.Equal(t, PhaseDragging, sess.Phase())
	assert.Equal(t, 1, sess.ActiveID())

	t.Run("second pickup rejected", func(t *testing.T) {
		assert.ErrorIs(t, sess.Pickup(2), ErrDragActive)
	})

	t.Run("unknown ticket", func(t *testing.T) {
		sess.Cancel()
		assert.ErrorIs(t, sess.Pickup(99), ErrTicketNotFound)
	})
}

func TestSession_HoverMutatesWorkingCopyOnly(t *testing.T) {
	sess, store := newTestSession(t)
	require.NoError(t, sess.Pickup(1))

	require.NoError(t, sess.HoverColumn("Active"))

	tk, err := store.Ticket(1)
	require.NoError(t, err)
	assert.Equal(t, "Active", tk.State)

	// The authoritative list is untouched until the drop persists.
	state, err := store.AuthoritativeState(1)
	require.NoError(t, err)
	assert.Equal(t, "New", state)
}

func TestSession_HoverTicketResolvesTargetState(t *testing.T) {
	sess, store := newTestSession(t)
	require.NoError(t, sess.Pickup(1))

	// Hovering over ticket 2 reads its state ("Active") as the target.
	require.NoError(t, sess.HoverTicket(2))

	tk, err := store.Ticket(1)
	require.NoError(t, err)
	assert.Equal(t, "Active", tk.State)

	t.Run("hover over self is a no-op", func(t *testing.T) {
		require.NoError(t, sess.HoverTicket(1))
		tk, err := store.Ticket(1)
		require.NoError(t, err)
		assert.Equal(t, "Active", tk.State)
	})
}

func TestSession_HoverUnknownColumn(t *testing.T) {
	sess, _ := newTestSession(t)
	require.NoError(t, sess.Pickup(1))

	assert.ErrorIs(t, sess.HoverColumn("Bogus"), ErrUnknownState)
}

func TestSession_DropOntoOwnColumnIsNoop(t *testing.T) {
	sess, store := newTestSession(t)

	require.NoError(t, sess.Pickup(1))
	// Wander across the board, then back home.
	require.NoError(t, sess.HoverColumn("Active"))
	require.NoError(t, sess.HoverColumn("Closed"))
	require.NoError(t, sess.HoverColumn("New"))

	_, ok, err := sess.Drop()
	require.NoError(t, err)

	assert.False(t, ok, "no persistence request for a same-column drop")
	assert.Equal(t, PhaseIdle, sess.Phase())
	tk, err := store.Ticket(1)
	require.NoError(t, err)
	assert.Equal(t, "New", tk.State)
}

func TestSession_DropProducesSinglePersistRequest(t *testing.T) {
	sess, store := newTestSession(t)

	require.NoError(t, sess.Pickup(1))
	require.NoError(t, sess.HoverColumn("Active"))

	target, ok, err := sess.Drop()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, DropTarget{ID: 1, State: "Active"}, target)
	assert.Equal(t, PhasePersisting, sess.Phase())

	require.NoError(t, sess.Resolve(nil))

	// On success the change is committed to the authoritative list as well,
	// so a later cancel cannot revert it.
	tk, err := store.Ticket(1)
	require.NoError(t, err)
	assert.Equal(t, "Active", tk.State)
	state, err := store.AuthoritativeState(1)
	require.NoError(t, err)
	assert.Equal(t, "Active", state)
	assert.Equal(t, PhaseIdle, sess.Phase())
}

func TestSession_DropRejectionRollsBack(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	store := NewStore(logger)
	store.SetStates(supportStates())
	original := []domain.Ticket{
		{ID: 1, State: "New"},
		{ID: 2, State: "Active"},
	}
	store.SetTickets(original)
	sess := NewSession(store, logger)

	require.NoError(t, sess.Pickup(1))
	require.NoError(t, sess.HoverColumn("Active"))
	_, ok, err := sess.Drop()
	require.NoError(t, err)
	require.True(t, ok)

	err = sess.Resolve(errors.New("HTTP 503"))

	require.Error(t, err)
	assert.ErrorContains(t, err, "HTTP 503")

	// Final working copy is byte-for-byte the original list.
	assert.Equal(t, original, store.Tickets())
	assert.Equal(t, PhaseIdle, sess.Phase())
	assert.Contains(t, buf.String(), "rolled back")
}

func TestSession_CancelRestoresAuthoritativeList(t *testing.T) {
	sess, store := newTestSession(t)
	original := store.Tickets()
	snapshot := make([]domain.Ticket, len(original))
	for i, tk := range original {
		snapshot[i] = tk.Clone()
	}

	require.NoError(t, sess.Pickup(1))
	// Visit several intermediate hover states before aborting.
	require.NoError(t, sess.HoverColumn("Active"))
	require.NoError(t, sess.HoverColumn("Closed"))
	sess.Cancel()

	assert.Equal(t, snapshot, store.Tickets())
	assert.Equal(t, PhaseIdle, sess.Phase())

	t.Run("cancel when idle is harmless", func(t *testing.T) {
		sess.Cancel()
		assert.Equal(t, snapshot, store.Tickets())
	})
}

func TestSession_DropWithoutPickup(t *testing.T) {
	sess, _ := newTestSession(t)
	_, _, err := sess.Drop()
	assert.ErrorIs(t, err, ErrNoActiveDrag)
	assert.ErrorIs(t, sess.HoverColumn("Active"), ErrNoActiveDrag)
	assert.ErrorIs(t, sess.Resolve(nil), ErrNoActiveDrag)
}

func TestSession_PickupDuringPersistRejected(t *testing.T) {
	sess, _ := newTestSession(t)

	require.NoError(t, sess.Pickup(1))
	require.NoError(t, sess.HoverColumn("Active"))
	_, ok, err := sess.Drop()
	require.NoError(t, err)
	require.True(t, ok)

	// The drop is in flight; a second gesture must be rejected until the
	// outcome is reported.
	assert.ErrorIs(t, sess.Pickup(2), ErrPersistInFlight)

	require.NoError(t, sess.Resolve(nil))
	assert.NoError(t, sess.Pickup(2))
}

// Scenario from the board's reconciliation contract: drag ticket 1 over
// "Active", drop, and have the persistence call rejected. The final
// working copy must be unchanged from the original.
func TestSession_RejectedMoveScenario(t *testing.T) {
	store := NewStore(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	store.SetStates([]domain.StateDef{{Name: "New"}, {Name: "Active"}, {Name: "Closed"}})
	store.SetTickets([]domain.Ticket{
		{ID: 1, State: "New"},
		{ID: 2, State: "Active"},
	})
	sess := NewSession(store, store.logger)

	require.NoError(t, sess.Pickup(1))
	require.NoError(t, sess.HoverColumn("Active"))

	target, ok, err := sess.Drop()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, target.ID)
	assert.Equal(t, "Active", target.State)

	require.Error(t, sess.Resolve(errors.New("boom")))

	assert.Equal(t, []domain.Ticket{
		{ID: 1, State: "New"},
		{ID: 2, State: "Active"},
	}, store.Tickets())
}
