package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapdesk/zapdesk/internal/domain"
)

func TestGroup_PartitionsCompletely(t *testing.T) {
	states := []string{"New", "Active", "Closed"}
	tickets := []domain.Ticket{
		{ID: 1, State: "New"},
		{ID: 2, State: "Active"},
		{ID: 3, State: "Active"},
		{ID: 4, State: "Closed"},
		{ID: 5, State: "Weird"},
	}

	grouped, strays := Group(tickets, states)

	// Every ticket appears in exactly one column, no duplicates or omissions.
	seen := make(map[int]int)
	total := 0
	for _, col := range grouped {
		for _, tk := range col {
			seen[tk.ID]++
			total++
		}
	}
	assert.Equal(t, len(tickets), total)
	for _, tk := range tickets {
		assert.Equal(t, 1, seen[tk.ID], "ticket %d should appear exactly once", tk.ID)
	}

	// Only the unknown-state ticket is reported as a stray.
	require.Len(t, strays, 1)
	assert.Equal(t, 5, strays[0].ID)
}

func TestGroup_UnknownStateFallsBackToFirstColumn(t *testing.T) {
	states := []string{"New", "Active"}
	tickets := []domain.Ticket{{ID: 3, State: "Weird"}}

	grouped, strays := Group(tickets, states)

	require.Len(t, grouped["New"], 1)
	assert.Equal(t, 3, grouped["New"][0].ID)
	assert.Empty(t, grouped["Active"])
	require.Len(t, strays, 1)
	assert.Equal(t, "Weird", strays[0].State)
}

func TestGroup_EmptyInputs(t *testing.T) {
	t.Run("no tickets", func(t *testing.T) {
		grouped, strays := Group(nil, []string{"New", "Active"})
		assert.Empty(t, grouped["New"])
		assert.Empty(t, grouped["Active"])
		assert.Empty(t, strays)
	})

	t.Run("no states", func(t *testing.T) {
		grouped, strays := Group([]domain.Ticket{{ID: 1, State: "New"}}, nil)
		assert.Empty(t, grouped)
		assert.Empty(t, strays)
	})
}

func TestGroup_PreservesDisplayOrder(t *testing.T) {
	states := []string{"New"}
	tickets := []domain.Ticket{
		{ID: 9, State: "New"},
		{ID: 4, State: "New"},
		{ID: 7, State: "New"},
	}

	grouped, _ := Group(tickets, states)

	require.Len(t, grouped["New"], 3)
	assert.Equal(t, 9, grouped["New"][0].ID)
	assert.Equal(t, 4, grouped["New"][1].ID)
	assert.Equal(t, 7, grouped["New"][2].ID)
}
