package board

import (
	"errors"
	"fmt"
	"log/slog"
)

// Phase is the drag session state. Exactly one gesture is active at a
// time; the session tracks a single active ticket identifier.
type Phase int

const (
	// PhaseIdle means no drag gesture is in progress.
	PhaseIdle Phase = iota
	// PhaseDragging means a ticket has been picked up and hover moves
	// speculatively mutate the working copy.
	PhaseDragging
	// PhasePersisting means a drop produced a state change and the
	// persistence call has been issued but not yet resolved.
	PhasePersisting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhasePersisting:
		return "persisting"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

var (
	// ErrNoActiveDrag indicates a drop or hover with no gesture in progress.
	ErrNoActiveDrag = errors.New("no active drag")
	// ErrDragActive indicates a pickup while another gesture is in progress.
	ErrDragActive = errors.New("drag already active")
	// ErrPersistInFlight indicates a pickup while a previous drop's
	// persistence call has not resolved yet.
	ErrPersistInFlight = errors.New("persistence call in flight")
)

// DropTarget is the persistence request produced by a changed drop: move
// work item ID to State. The caller issues exactly one such call and
// reports the outcome through Resolve.
type DropTarget struct {
	ID    int
	State string
}

// Session is the drag session controller: a state machine over a single
// drag gesture that applies speculative moves to the store's working copy
// while dragging and commits or rolls back when the drop's persistence
// call resolves. The session itself never performs I/O, so every method
// is safe to call from the goroutine that owns the store.
type Session struct {
	store  *Store
	logger *slog.Logger

	phase    Phase
	activeID int

	// Set while Persisting, for Resolve's commit/rollback and logging.
	pendingState string
	beforeState  string
}

// NewSession creates a drag session bound to a store. If logger is nil,
// slog.Default() is used.
func NewSession(store *Store, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{store: store, logger: logger}
}

// Phase returns the current gesture phase.
func (s *Session) Phase() Phase { return s.phase }

// ActiveID returns the identifier of the ticket being dragged, or 0 when idle.
func (s *Session) ActiveID() int { return s.activeID }

// Pickup starts a drag gesture on the given ticket. It fails when another
// gesture is active or a previous drop's persistence call has not resolved;
// the interaction model does not support concurrent drags.
func (s *Session) Pickup(id int) error {
	switch s.phase {
	case PhaseDragging:
		return ErrDragActive
	case PhasePersisting:
		return ErrPersistInFlight
	}
	if _, err := s.store.Ticket(id); err != nil {
		return err
	}
	s.phase = PhaseDragging
	s.activeID = id
	return nil
}

// HoverColumn records a hover over a column while dragging. If the target
// state differs from the active ticket's state in the working copy, the
// working copy entry is speculatively moved there. Visual feedback only;
// no network call is made.
func (s *Session) HoverColumn(state string) error {
	if s.phase != PhaseDragging {
		return ErrNoActiveDrag
	}
	if !s.knownState(state) {
		return fmt.Errorf("%w: %q", ErrUnknownState, state)
	}
	current, err := s.store.Ticket(s.activeID)
	if err != nil {
		return err
	}
	if current.State == state {
		return nil
	}
	return s.store.setWorkingState(s.activeID, state)
}

// HoverTicket records a hover over another card while dragging. The target
// state is resolved by reading the hovered ticket's state in the working copy.
func (s *Session) HoverTicket(id int) error {
	if s.phase != PhaseDragging {
		return ErrNoActiveDrag
	}
	if id == s.activeID {
		return nil
	}
	over, err := s.store.Ticket(id)
	if err != nil {
		return err
	}
	return s.HoverColumn(over.State)
}

// Drop ends the hover phase. The final target is the active ticket's state
// in the working copy (accumulated hover feedback). If it matches the
// authoritative pre-drag state, the speculative change is discarded, the
// session returns to Idle, and ok is false: nothing needs persisting.
// Otherwise the session enters Persisting and the returned target must be
// issued by the caller as exactly one persistence call, its outcome
// reported through Resolve. No retries either way.
func (s *Session) Drop() (target DropTarget, ok bool, err error) {
	if s.phase != PhaseDragging {
		return DropTarget{}, false, ErrNoActiveDrag
	}
	id := s.activeID

	current, err := s.store.Ticket(id)
	if err != nil {
		// The working copy was replaced under us; treat as cancel.
		s.finish()
		s.store.ResetWorking()
		return DropTarget{}, false, err
	}
	before, err := s.store.AuthoritativeState(id)
	if err != nil {
		s.finish()
		s.store.ResetWorking()
		return DropTarget{}, false, err
	}

	if current.State == before {
		s.finish()
		s.store.ResetWorking()
		return DropTarget{}, false, nil
	}

	s.phase = PhasePersisting
	s.pendingState = current.State
	s.beforeState = before
	return DropTarget{ID: id, State: current.State}, true, nil
}

// Resolve completes a persisting drop with the outcome of the persistence
// call. On success the new state is committed to the authoritative list;
// on failure the working copy is rolled back and the failure is both
// logged and returned, wrapped with the attempted move.
func (s *Session) Resolve(outcome error) error {
	if s.phase != PhasePersisting {
		return ErrNoActiveDrag
	}
	id := s.activeID
	target := s.pendingState
	before := s.beforeState
	s.finish()

	if outcome != nil {
		s.store.ResetWorking()
		s.logger.Error("ticket state change failed, board rolled back",
			"id", id, "from", before, "to", target, "error", outcome)
		return fmt.Errorf("move ticket %d to %q: %w", id, target, outcome)
	}
	s.store.commitState(id, target)
	return nil
}

// Cancel aborts the gesture (escape key, drop outside any target),
// restoring the working copy to the authoritative list. Not an error.
// A drop already persisting cannot be cancelled.
func (s *Session) Cancel() {
	if s.phase != PhaseDragging {
		return
	}
	s.finish()
	s.store.ResetWorking()
}

func (s *Session) finish() {
	s.phase = PhaseIdle
	s.activeID = 0
	s.pendingState = ""
	s.beforeState = ""
}

func (s *Session) knownState(state string) bool {
	for _, name := range s.store.StateNames() {
		if name == state {
			return true
		}
	}
	return false
}
