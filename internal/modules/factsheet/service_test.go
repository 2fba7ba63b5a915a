package factsheet

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharavsambuu/quantstats/internal/modules/prices"
	"github.com/sharavsambuu/quantstats/internal/perfstats"
	testingpkg "github.com/sharavsambuu/quantstats/internal/testing"
)

func newTestService(t *testing.T) (*Service, *prices.Repository, *SnapshotRepository, func()) {
	t.Helper()

	pricesDB, cleanupPrices := testingpkg.NewTestDB(t, "prices")
	factsheetsDB, cleanupFactsheets := testingpkg.NewTestDB(t, "factsheets")

	priceRepo := prices.NewRepository(pricesDB.Conn(), zerolog.Nop())
	snapshotRepo := NewSnapshotRepository(factsheetsDB.Conn(), zerolog.Nop())
	service := NewService(priceRepo, snapshotRepo, DefaultParams(), zerolog.Nop())

	return service, priceRepo, snapshotRepo, func() {
		cleanupFactsheets()
		cleanupPrices()
	}
}

func seedAnnualPath(t *testing.T, repo *prices.Repository, symbol string) {
	t.Helper()
	require.NoError(t, repo.UpsertDailyPrices(symbol, []prices.DailyPrice{
		{Date: "2022-01-03", Close: 100.0},
		{Date: "2023-01-03", Close: 110.0},
		{Date: "2024-01-03", Close: 121.0},
	}))
}

func TestService_BuildSnapshot(t *testing.T) {
	service, priceRepo, snapshotRepo, cleanup := newTestService(t)
	defer cleanup()

	seedAnnualPath(t, priceRepo, "SPY")

	snapshot, err := service.BuildSnapshot("SPY")
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	assert.Equal(t, "SPY", snapshot.Symbol)
	assert.NotEmpty(t, snapshot.ID)
	assert.Equal(t, "2022-01-03", snapshot.StartDate.Format("2006-01-02"))
	assert.Equal(t, "2024-01-03", snapshot.EndDate.Format("2006-01-02"))

	assert.InDelta(t, 0.21, snapshot.TotalReturn, 1e-12)
	assert.InDelta(t, 1.21, snapshot.NAV1, 1e-12)
	assert.Equal(t, 100.0, snapshot.StartPrice)
	assert.Equal(t, 121.0, snapshot.EndPrice)

	numYears := 730.0 / perfstats.CalendarDaysPerYear
	assert.InDelta(t, numYears, snapshot.NumYears, 1e-12)
	expectedPA := math.Pow(1.21, 1.0/numYears) - 1.0
	assert.InDelta(t, expectedPA, snapshot.PAReturn, 1e-12)

	assert.False(t, math.IsNaN(snapshot.Vol))
	assert.Greater(t, snapshot.Vol, 0.0)

	// Fees drag net performance below gross
	assert.False(t, math.IsNaN(snapshot.NetTotalReturn))
	assert.Less(t, snapshot.NetTotalReturn, snapshot.TotalReturn)
	assert.Less(t, snapshot.NetPAReturn, snapshot.PAReturn)

	// Snapshot is persisted
	stored, err := snapshotRepo.GetLatest("SPY")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, snapshot.ID, stored.ID)
	assert.InDelta(t, snapshot.TotalReturn, stored.TotalReturn, 1e-12)
}

func TestService_BuildSnapshotUnknownSymbol(t *testing.T) {
	service, _, _, cleanup := newTestService(t)
	defer cleanup()

	_, err := service.BuildSnapshot("MISSING")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no price history")
}

func TestService_LatestSnapshotBuildsOnDemand(t *testing.T) {
	service, priceRepo, snapshotRepo, cleanup := newTestService(t)
	defer cleanup()

	seedAnnualPath(t, priceRepo, "SPY")

	// Nothing stored yet, so this builds a snapshot
	first, err := service.LatestSnapshot("SPY")
	require.NoError(t, err)
	require.NotNil(t, first)

	// Second call serves the stored snapshot
	second, err := service.LatestSnapshot("SPY")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := snapshotRepo.List("SPY", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestService_RefreshAllSkipsBadHistories(t *testing.T) {
	service, priceRepo, _, cleanup := newTestService(t)
	defer cleanup()

	seedAnnualPath(t, priceRepo, "SPY")
	seedAnnualPath(t, priceRepo, "QQQ")

	built, err := service.RefreshAll()
	require.NoError(t, err)
	assert.Equal(t, 2, built)
}

func TestService_NAVTrack(t *testing.T) {
	service, priceRepo, _, cleanup := newTestService(t)
	defer cleanup()

	seedAnnualPath(t, priceRepo, "SPY")

	track, err := service.NAVTrack("SPY")
	require.NoError(t, err)
	require.Len(t, track.Points, 3)

	assert.Equal(t, "SPY", track.Symbol)
	assert.Equal(t, "2022-01-03", track.Points[0].Date)
	assert.Equal(t, "2024-01-03", track.Points[2].Date)

	assert.InDelta(t, 1.0, track.Points[0].Gross, 1e-12)
	assert.InDelta(t, 1.1, track.Points[1].Gross, 1e-12)
	assert.InDelta(t, 1.21, track.Points[2].Gross, 1e-12)

	// Net path starts at 1 and trails gross once fees accrue
	assert.InDelta(t, 1.0, track.Points[0].Net, 1e-12)
	assert.Less(t, track.Points[2].Net, track.Points[2].Gross)
}

func TestService_NAVTrackUnknownSymbol(t *testing.T) {
	service, _, _, cleanup := newTestService(t)
	defer cleanup()

	_, err := service.NAVTrack("MISSING")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no price history")
}

func TestService_PortfolioFactsheet(t *testing.T) {
	service, priceRepo, _, cleanup := newTestService(t)
	defer cleanup()

	// Identical paths, so the equal-weight basket reproduces the single-asset track
	seedAnnualPath(t, priceRepo, "A")
	seedAnnualPath(t, priceRepo, "B")

	summary, err := service.PortfolioFactsheet("basket", []string{"A", "B"}, []float64{0.5, 0.5})
	require.NoError(t, err)

	assert.Equal(t, "basket", summary.Name)
	assert.InDelta(t, 0.21, summary.TotalReturn, 1e-12)
	assert.InDelta(t, 1.21, summary.NAV1, 1e-12)

	numYears := 730.0 / perfstats.CalendarDaysPerYear
	expectedPA := math.Pow(1.21, 1.0/numYears) - 1.0
	assert.InDelta(t, expectedPA, summary.PAReturn, 1e-12)
}

func TestService_PortfolioFactsheetValidation(t *testing.T) {
	service, _, _, cleanup := newTestService(t)
	defer cleanup()

	_, err := service.PortfolioFactsheet("basket", nil, nil)
	assert.Error(t, err)

	_, err = service.PortfolioFactsheet("basket", []string{"A"}, []float64{0.5, 0.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights")
}
