package prices

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/sharavsambuu/quantstats/internal/testing"
)

func newTestRepo(t *testing.T) (*Repository, func()) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "prices")
	return NewRepository(db.Conn(), zerolog.Nop()), cleanup
}

func TestRepository_UpsertAndGetDailyCloses(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	err := repo.UpsertDailyPrices("SPY", []DailyPrice{
		{Date: "2024-01-02", Close: 100.0},
		{Date: "2024-01-03", Close: 110.0},
		{Date: "2024-01-04", Close: 99.0},
	})
	require.NoError(t, err)

	series, err := repo.GetDailyCloses("SPY")
	require.NoError(t, err)
	require.Equal(t, 3, series.Len())
	assert.Equal(t, "SPY", series.Name)
	assert.Equal(t, []float64{100.0, 110.0, 99.0}, series.Values)
	assert.Equal(t, "2024-01-02", series.Dates[0].Format("2006-01-02"))
	assert.Equal(t, "2024-01-04", series.Dates[2].Format("2006-01-02"))
}

func TestRepository_UpsertReplacesExistingDate(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.UpsertDailyPrices("SPY", []DailyPrice{
		{Date: "2024-01-02", Close: 100.0},
	}))
	require.NoError(t, repo.UpsertDailyPrices("SPY", []DailyPrice{
		{Date: "2024-01-02", Close: 101.5},
	}))

	series, err := repo.GetDailyCloses("SPY")
	require.NoError(t, err)
	require.Equal(t, 1, series.Len())
	assert.Equal(t, 101.5, series.Values[0])
}

func TestRepository_UpsertRejectsInvalidInput(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	err := repo.UpsertDailyPrices("", []DailyPrice{{Date: "2024-01-02", Close: 1}})
	assert.Error(t, err)

	err = repo.UpsertDailyPrices("SPY", []DailyPrice{{Date: "02/01/2024", Close: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestRepository_GetCloseTableAlignsOnDateUnion(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.UpsertDailyPrices("A", []DailyPrice{
		{Date: "2024-01-02", Close: 10.0},
		{Date: "2024-01-03", Close: 11.0},
	}))
	require.NoError(t, repo.UpsertDailyPrices("B", []DailyPrice{
		{Date: "2024-01-03", Close: 20.0},
		{Date: "2024-01-04", Close: 21.0},
	}))

	table, err := repo.GetCloseTable([]string{"A", "B"})
	require.NoError(t, err)
	require.Equal(t, 3, table.NumRows())
	assert.Equal(t, []string{"A", "B"}, table.Columns)

	// A has no value on the union date contributed by B only
	assert.True(t, math.IsNaN(table.Values[2][0]))
	assert.Equal(t, 21.0, table.Values[2][1])
	assert.True(t, math.IsNaN(table.Values[0][1]))
}

func TestRepository_GetCloseTableUnknownSymbol(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.UpsertDailyPrices("A", []DailyPrice{
		{Date: "2024-01-02", Close: 10.0},
	}))

	_, err := repo.GetCloseTable([]string{"A", "MISSING"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MISSING")
}

func TestRepository_Symbols(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.UpsertDailyPrices("B", []DailyPrice{{Date: "2024-01-02", Close: 1}}))
	require.NoError(t, repo.UpsertDailyPrices("A", []DailyPrice{{Date: "2024-01-02", Close: 1}}))

	symbols, err := repo.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, symbols)

	count, err := repo.PriceCount("A")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRepository_FundingRatesRoundTrip(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.UpsertFundingRates("usd_3m", []FundingRate{
		{Date: "2024-01-02", Rate: 0.05},
		{Date: "2024-02-01", Rate: 0.045},
	}))

	series, err := repo.GetFundingRates("usd_3m")
	require.NoError(t, err)
	require.Equal(t, 2, series.Len())
	assert.Equal(t, 0.05, series.Values[0])
	assert.Equal(t, 0.045, series.Values[1])

	empty, err := repo.GetFundingRates("unknown")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}
