package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	s, err := OpenSnapshotStore(filepath.Join(t.TempDir(), "kpi.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSnapshotStore_SaveAndLoad(t *testing.T) {
	s := openTestStore(t)

	k := MonthlyKPI{Month: "2026-07", Created: 10, Resolved: 8, MTTRHours: 22.5, Backlog: 3}
	require.NoError(t, s.Save(k))

	loaded, err := s.Load("2026-07")
	require.NoError(t, err)
	assert.Equal(t, k, loaded)
}

func TestSnapshotStore_SaveOverwrites(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Save(MonthlyKPI{Month: "2026-07", Created: 10}))
	require.NoError(t, s.Save(MonthlyKPI{Month: "2026-07", Created: 12}))

	loaded, err := s.Load("2026-07")
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.Created)
}

func TestSnapshotStore_LoadMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Load("1999-01")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestSnapshotStore_Months(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Save(MonthlyKPI{Month: "2026-06"}))
	require.NoError(t, s.Save(MonthlyKPI{Month: "2026-07"}))
	require.NoError(t, s.Save(MonthlyKPI{Month: "2026-05"}))

	months, err := s.Months()
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-07", "2026-06", "2026-05"}, months)
}
