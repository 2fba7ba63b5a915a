package factsheet

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/sharavsambuu/quantstats/internal/testing"
)

func newTestSnapshotRepo(t *testing.T) (*SnapshotRepository, func()) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "factsheets")
	return NewSnapshotRepository(db.Conn(), zerolog.Nop()), cleanup
}

func testSnapshot(symbol string, createdAt time.Time) *Snapshot {
	return &Snapshot{
		Symbol:      symbol,
		CreatedAt:   createdAt,
		StartDate:   time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		NumYears:    2.0,
		TotalReturn: 0.21,
		PAReturn:    0.1,
		NAV1:        1.21,
	}
}

func TestSnapshotRepository_SaveAssignsID(t *testing.T) {
	repo, cleanup := newTestSnapshotRepo(t)
	defer cleanup()

	s := testSnapshot("SPY", time.Now().UTC())
	require.NoError(t, repo.Save(s))
	assert.NotEmpty(t, s.ID)

	got, err := repo.Get(s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "SPY", got.Symbol)
	assert.InDelta(t, 0.21, got.TotalReturn, 1e-12)
	assert.Equal(t, s.StartDate.Unix(), got.StartDate.Unix())
}

func TestSnapshotRepository_SaveValidation(t *testing.T) {
	repo, cleanup := newTestSnapshotRepo(t)
	defer cleanup()

	assert.Error(t, repo.Save(nil))
	assert.Error(t, repo.Save(&Snapshot{}))
}

func TestSnapshotRepository_GetLatestPicksMostRecent(t *testing.T) {
	repo, cleanup := newTestSnapshotRepo(t)
	defer cleanup()

	older := testSnapshot("SPY", time.Now().UTC().Add(-time.Hour))
	newer := testSnapshot("SPY", time.Now().UTC())
	newer.TotalReturn = 0.25
	require.NoError(t, repo.Save(older))
	require.NoError(t, repo.Save(newer))

	got, err := repo.GetLatest("SPY")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, newer.ID, got.ID)
	assert.InDelta(t, 0.25, got.TotalReturn, 1e-12)
}

func TestSnapshotRepository_GetUnknownReturnsNil(t *testing.T) {
	repo, cleanup := newTestSnapshotRepo(t)
	defer cleanup()

	got, err := repo.Get("does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, got)

	latest, err := repo.GetLatest("SPY")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestSnapshotRepository_ListRespectsLimit(t *testing.T) {
	repo, cleanup := newTestSnapshotRepo(t)
	defer cleanup()

	base := time.Now().UTC().Add(-3 * time.Hour)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(testSnapshot("SPY", base.Add(time.Duration(i)*time.Hour))))
	}

	list, err := repo.List("SPY", 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	all, err := repo.List("SPY", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSnapshotRepository_DeleteOlderThan(t *testing.T) {
	repo, cleanup := newTestSnapshotRepo(t)
	defer cleanup()

	old := testSnapshot("SPY", time.Now().UTC().Add(-48*time.Hour))
	recent := testSnapshot("SPY", time.Now().UTC())
	require.NoError(t, repo.Save(old))
	require.NoError(t, repo.Save(recent))

	deleted, err := repo.DeleteOlderThan(time.Now().UTC().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	list, err := repo.List("SPY", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, recent.ID, list[0].ID)
}
