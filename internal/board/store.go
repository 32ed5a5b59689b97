// Package board implements the Kanban state synchronization core: an
// authoritative ticket list with a speculative working copy, column
// grouping by remote state, and a drag session controller that applies
// optimistic moves and rolls them back when persistence fails.
package board

import (
	"errors"
	"log/slog"

	"github.com/zapdesk/zapdesk/internal/domain"
)

var (
	// ErrNoStates indicates no board columns have been configured.
	ErrNoStates = errors.New("no states set")
	// ErrTicketNotFound indicates the requested ticket does not exist.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrUnknownState indicates a state name that is not a board column.
	ErrUnknownState = errors.New("unknown state")
)

// Store holds the authoritative ticket list as last reported by the
// caller that owns the Azure DevOps communication, plus a working copy
// that is speculatively mutated while a drag gesture is in progress.
//
// Invariant: once no drag is in progress and no persistence call is in
// flight, the working copy and the authoritative list reconcile to the
// same set of (id, state) pairs.
type Store struct {
	logger *slog.Logger

	states        []domain.StateDef
	authoritative []domain.Ticket
	working       []domain.Ticket
}

// NewStore creates an empty Store. If logger is nil, slog.Default() is used.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// SetStates sets the ordered list of legal state values (the board columns).
func (s *Store) SetStates(states []domain.StateDef) {
	s.states = states
}

// States returns the ordered state definitions.
func (s *Store) States() []domain.StateDef {
	return s.states
}

// StateNames returns the ordered column names.
func (s *Store) StateNames() []string {
	return domain.StateNames(s.states)
}

// SetTickets replaces the authoritative list and re-derives the working
// copy from it. The caller invokes this on every refresh from the remote
// system, including the refresh expected after a successful move.
func (s *Store) SetTickets(tickets []domain.Ticket) {
	s.authoritative = cloneTickets(tickets)
	s.ResetWorking()
}

// Tickets returns the working copy, which is what the board renders.
func (s *Store) Tickets() []domain.Ticket {
	return s.working
}

// Ticket looks up a ticket in the working copy by ID.
func (s *Store) Ticket(id int) (domain.Ticket, error) {
	for _, t := range s.working {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Ticket{}, ErrTicketNotFound
}

// AuthoritativeState returns the ticket's state in the last known-good
// list, which is the reference point for drop no-op detection and rollback.
func (s *Store) AuthoritativeState(id int) (string, error) {
	for _, t := range s.authoritative {
		if t.ID == id {
			return t.State, nil
		}
	}
	return "", ErrTicketNotFound
}

// ResetWorking discards all speculative mutations, restoring the working
// copy to a deep copy of the authoritative list.
func (s *Store) ResetWorking() {
	s.working = cloneTickets(s.authoritative)
}

// setWorkingState mutates the working copy entry for a ticket. Pure visual
// feedback; the authoritative list is never touched here.
func (s *Store) setWorkingState(id int, state string) error {
	for i := range s.working {
		if s.working[i].ID == id {
			s.working[i].State = state
			return nil
		}
	}
	return ErrTicketNotFound
}

// commitState records a confirmed state change in the authoritative
// list, so the working copy and the last known-good list reconcile
// without waiting for a full refresh.
func (s *Store) commitState(id int, state string) {
	for i := range s.authoritative {
		if s.authoritative[i].ID == id {
			s.authoritative[i].State = state
			return
		}
	}
}

// Columns groups the working copy into the configured columns. Tickets
// whose state matches no known column are logged and placed into the
// first column so nothing silently drops off the board.
func (s *Store) Columns() ([]Column, error) {
	if len(s.states) == 0 {
		return nil, ErrNoStates
	}
	names := s.StateNames()
	grouped, strays := Group(s.working, names)
	for _, t := range strays {
		s.logger.Warn("ticket state not on board, using fallback column",
			"id", t.ID, "state", t.State, "fallback", names[0])
	}
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{State: name, Tickets: grouped[name]}
	}
	return cols, nil
}

func cloneTickets(tickets []domain.Ticket) []domain.Ticket {
	if tickets == nil {
		return nil
	}
	out := make([]domain.Ticket, len(tickets))
	for i, t := range tickets {
		out[i] = t.Clone()
	}
	return out
}
