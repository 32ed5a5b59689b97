package board

import "github.com/zapdesk/zapdesk/internal/domain"

// Column is one named bucket of the board, holding tickets in display order.
type Column struct {
	State   string
	Tickets []domain.Ticket
}

// Group partitions tickets into columns keyed by state name. Every ticket
// lands in exactly one column: a ticket whose state is not among the known
// names goes into the first known column as a fallback. The second return
// value lists those strays so the caller can report them; they are still
// included in the fallback column. Pure function of its inputs.
func Group(tickets []domain.Ticket, states []string) (map[string][]domain.Ticket, []domain.Ticket) {
	grouped := make(map[string][]domain.Ticket, len(states))
	if len(states) == 0 {
		return grouped, nil
	}

	known := make(map[string]bool, len(states))
	for _, s := range states {
		grouped[s] = nil
		known[s] = true
	}

	var strays []domain.Ticket
	fallback := states[0]
	for _, t := range tickets {
		if known[t.State] {
			grouped[t.State] = append(grouped[t.State], t)
			continue
		}
		grouped[fallback] = append(grouped[fallback], t)
		strays = append(strays, t)
	}
	return grouped, strays
}
