package perfstats

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharavsambuu/quantstats/internal/timeseries"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func priceTable(t *testing.T, name string, dates []time.Time, values []float64) *timeseries.Table {
	t.Helper()
	rows := make([][]float64, len(values))
	for i, v := range values {
		rows[i] = []float64{v}
	}
	tbl, err := timeseries.NewTable([]string{name}, dates, rows)
	require.NoError(t, err)
	return tbl
}

func TestToReturns_Relative(t *testing.T) {
	prices := priceTable(t, "spx",
		[]time.Time{d(2024, 1, 1), d(2024, 1, 2), d(2024, 1, 3)},
		[]float64{100.0, 110.0, 99.0})

	returns, err := ToReturns(prices, DefaultReturnOptions())
	require.NoError(t, err)

	assert.True(t, math.IsNaN(returns.Values[0][0]))
	assert.InDelta(t, 0.10, returns.Values[1][0], 1e-12)
	assert.InDelta(t, -0.10, returns.Values[2][0], 1e-12)
}

func TestToReturns_FirstZero(t *testing.T) {
	prices := priceTable(t, "spx",
		[]time.Time{d(2024, 1, 1), d(2024, 1, 2), d(2024, 1, 3)},
		[]float64{100.0, 110.0, 99.0})

	opts := DefaultReturnOptions()
	opts.IsFirstZero = true
	returns, err := ToReturns(prices, opts)
	require.NoError(t, err)

	assert.Equal(t, 0.0, returns.Values[0][0])
	assert.InDelta(t, 0.10, returns.Values[1][0], 1e-12)
}

func TestToReturns_DropFirst(t *testing.T) {
	prices := priceTable(t, "spx",
		[]time.Time{d(2024, 1, 1), d(2024, 1, 2), d(2024, 1, 3)},
		[]float64{100.0, 110.0, 99.0})

	opts := DefaultReturnOptions()
	opts.DropFirst = true
	returns, err := ToReturns(prices, opts)
	require.NoError(t, err)

	require.Equal(t, 2, returns.NumRows())
	assert.Equal(t, d(2024, 1, 2), returns.Dates[0])
	assert.InDelta(t, 0.10, returns.Values[0][0], 1e-12)
}

func TestToReturns_FirstZeroWinsOverDropFirst(t *testing.T) {
	prices := priceTable(t, "spx",
		[]time.Time{d(2024, 1, 1), d(2024, 1, 2)},
		[]float64{100.0, 110.0})

	opts := DefaultReturnOptions()
	opts.IsFirstZero = true
	opts.DropFirst = true
	returns, err := ToReturns(prices, opts)
	require.NoError(t, err)

	require.Equal(t, 2, returns.NumRows())
	assert.Equal(t, 0.0, returns.Values[0][0])
}

func TestToReturns_MaskingAppliesToAllReturnTypes(t *testing.T) {
	dates := []time.Time{d(2024, 1, 1), d(2024, 1, 2), d(2024, 1, 3), d(2024, 1, 4)}
	// Middle price missing and a non-positive price: both sides of each
	// affected pair must come out NaN.
	values := []float64{100.0, math.NaN(), 110.0, -5.0}

	for _, rt := range []ReturnType{ReturnRelative, ReturnLog, ReturnDifference, ReturnLevel, ReturnLevel0} {
		opts := ReturnOptions{ReturnType: rt}
		returns, err := ToReturns(priceTable(t, "x", dates, values), opts)
		require.NoError(t, err)

		assert.True(t, math.IsNaN(returns.Values[0][0]), "%s: first row", rt)
		assert.True(t, math.IsNaN(returns.Values[1][0]), "%s: current price missing", rt)
		assert.True(t, math.IsNaN(returns.Values[2][0]), "%s: prior price missing", rt)
		assert.True(t, math.IsNaN(returns.Values[3][0]), "%s: non-positive price", rt)
	}
}

func TestToReturns_LogAndDifference(t *testing.T) {
	prices := priceTable(t, "x",
		[]time.Time{d(2024, 1, 1), d(2024, 1, 2)},
		[]float64{100.0, 110.0})

	logRet, err := ToReturns(prices, ReturnOptions{ReturnType: ReturnLog})
	require.NoError(t, err)
	assert.InDelta(t, math.Log(1.1), logRet.Values[1][0], 1e-12)

	diff, err := ToReturns(prices, ReturnOptions{ReturnType: ReturnDifference})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, diff.Values[1][0], 1e-12)

	level, err := ToReturns(prices, ReturnOptions{ReturnType: ReturnLevel})
	require.NoError(t, err)
	assert.Equal(t, 110.0, level.Values[1][0])

	level0, err := ToReturns(prices, ReturnOptions{ReturnType: ReturnLevel0})
	require.NoError(t, err)
	assert.Equal(t, 100.0, level0.Values[1][0])
}

func TestToReturns_UnsupportedTypeNamesValue(t *testing.T) {
	prices := priceTable(t, "x", []time.Time{d(2024, 1, 1)}, []float64{1.0})

	_, err := ToReturns(prices, ReturnOptions{ReturnType: ReturnType("spread")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"spread"`)
}

func TestToReturns_IsLogReturnsOverridesType(t *testing.T) {
	prices := priceTable(t, "x",
		[]time.Time{d(2024, 1, 1), d(2024, 1, 2)},
		[]float64{100.0, 110.0})

	returns, err := ToReturns(prices, ReturnOptions{ReturnType: ReturnRelative, IsLogReturns: true})
	require.NoError(t, err)
	assert.InDelta(t, math.Log(1.1), returns.Values[1][0], 1e-12)
}

func TestTotalReturns_Basic(t *testing.T) {
	prices := priceTable(t, "x",
		[]time.Time{d(2022, 1, 1), d(2024, 1, 1)},
		[]float64{100.0, 150.0})

	total := TotalReturns(prices)
	assert.InDelta(t, 0.5, total[0], 1e-12)
}

func TestTotalReturns_SingleObservationIsNaN(t *testing.T) {
	prices := priceTable(t, "x", []time.Time{d(2024, 1, 1)}, []float64{100.0})
	total := TotalReturns(prices)
	assert.True(t, math.IsNaN(total[0]))
}

func TestTotalReturns_NaNFirstPriceSubstituted(t *testing.T) {
	prices := priceTable(t, "x",
		[]time.Time{d(2023, 1, 1), d(2023, 6, 1), d(2024, 1, 1)},
		[]float64{math.NaN(), 100.0, 120.0})

	total := TotalReturns(prices)
	assert.InDelta(t, 0.2, total[0], 1e-12)
}

func TestPAReturns_CompoundedOverOneYear(t *testing.T) {
	// Exactly four years at 365.25 days/year.
	prices := priceTable(t, "x",
		[]time.Time{d(2020, 1, 1), d(2024, 1, 1)},
		[]float64{100.0, 200.0})

	numYears := NumYears(prices, CalendarDaysPerYear)
	pa := PAReturns(prices, CalendarDaysPerYear, false)
	expected := math.Pow(2.0, 1.0/numYears) - 1.0
	assert.InDelta(t, expected, pa[0], 1e-12)
}

func TestPAReturns_ShortSpanPolicies(t *testing.T) {
	// Half a year, +10%.
	prices := priceTable(t, "x",
		[]time.Time{d(2024, 1, 1), d(2024, 7, 1)},
		[]float64{100.0, 110.0})
	numYears := NumYears(prices, CalendarDaysPerYear)
	require.Greater(t, numYears, 0.0)
	require.LessOrEqual(t, numYears, 1.0)

	ytd := PAReturns(prices, CalendarDaysPerYear, false)
	assert.InDelta(t, 0.10, ytd[0], 1e-12, "ytd convention reports the raw period return")

	linear := PAReturns(prices, CalendarDaysPerYear, true)
	assert.InDelta(t, 0.10/numYears, linear[0], 1e-12, "linear extrapolation")
}

func TestPAReturns_DegenerateSpanIsZero(t *testing.T) {
	prices := priceTable(t, "x", []time.Time{d(2024, 1, 1)}, []float64{100.0})
	pa := PAReturns(prices, CalendarDaysPerYear, false)
	assert.Equal(t, 0.0, pa[0])
}

func TestReturnsSummary_Keys(t *testing.T) {
	prices := priceTable(t, "x",
		[]time.Time{d(2020, 1, 1), d(2024, 1, 1)},
		[]float64{100.0, 200.0})

	summary, err := ReturnsSummary(prices, DefaultPerfParams())
	require.NoError(t, err)

	assert.Equal(t, d(2020, 1, 1), summary.StartDate)
	assert.Equal(t, d(2024, 1, 1), summary.EndDate)
	assert.InDelta(t, 1.0, summary.Stats[StatTotalReturn][0], 1e-12)
	assert.InDelta(t, 2.0, summary.Stats[StatNAV1][0], 1e-12)
	assert.Equal(t, 100.0, summary.Stats[StatStartPrice][0])
	assert.Equal(t, 200.0, summary.Stats[StatEndPrice][0])
	assert.InDelta(t, math.Log(1.0+summary.Stats[StatPAReturn][0]), summary.Stats[StatAnLogReturn][0], 1e-12)
	// No rates supplied: excess falls back to plain PA.
	assert.Equal(t, summary.Stats[StatPAReturn][0], summary.Stats[StatPAExcessReturn][0])
}

func TestReturnsSummary_EmptyPrices(t *testing.T) {
	empty := &timeseries.Table{Columns: []string{"a", "b"}}

	summary, err := ReturnsSummary(empty, DefaultPerfParams())
	require.NoError(t, err)

	for _, k := range []Stat{StatTotalReturn, StatPAReturn, StatAnLogReturn, StatAvgAnReturn, StatNumYears} {
		require.Len(t, summary.Stats[k], 2, string(k))
		assert.True(t, math.IsNaN(summary.Stats[k][0]), string(k))
		assert.True(t, math.IsNaN(summary.Stats[k][1]), string(k))
	}
}

func TestReturnsSummary_WithFundingRates(t *testing.T) {
	prices := priceTable(t, "x",
		[]time.Time{d(2020, 1, 1), d(2022, 1, 1), d(2024, 1, 1)},
		[]float64{100.0, 150.0, 200.0})

	rates := timeseries.MustSeries("rates",
		[]time.Time{d(2019, 12, 31)},
		[]float64{0.02})

	params := DefaultPerfParams()
	params.RatesData = rates
	summary, err := ReturnsSummary(prices, params)
	require.NoError(t, err)

	pa := summary.Stats[StatPAReturn][0]
	excess := summary.Stats[StatPAExcessReturn][0]
	assert.Less(t, excess, pa, "funding cost reduces the annualized return")
	assert.Greater(t, excess, pa-0.03, "funding adjustment stays near the rate")
}

func TestExcessReturns_ElapsedDayWeighting(t *testing.T) {
	returns, err := timeseries.NewTable([]string{"x"},
		[]time.Time{d(2024, 1, 1), d(2024, 1, 11)},
		[][]float64{{0.0}, {0.05}})
	require.NoError(t, err)

	rates := timeseries.MustSeries("rates", []time.Time{d(2024, 1, 1)}, []float64{0.0365})

	excess := ExcessReturns(returns, rates, 365.0)
	assert.Equal(t, 0.0, excess.Values[0][0], "no elapsed span on the first period")
	assert.InDelta(t, 0.05-0.0365*10.0/365.0, excess.Values[1][0], 1e-12)
}
