// Package perfstats implements the return/NAV transformation core: price to
// return conversion, total and annualized return estimation, NAV
// reconstruction, fee accrual and portfolio aggregation.
//
// All functions are pure transformations: inputs are never mutated and
// outputs are newly allocated. Diagnostics for degenerate inputs (bad date
// spans, missing first prices) are logged and surfaced as NaN rather than
// raised, so batch computations over many instruments are not aborted by one
// bad instrument.
package perfstats

import (
	"github.com/sharavsambuu/quantstats/internal/timeseries"
)

const (
	// CalendarDaysPerYear is the default annualization convention.
	CalendarDaysPerYear = 365.25
	// FeeDaysPerYear is the day-count convention for management fee proration.
	FeeDaysPerYear = 365.0
	// DefaultInitialNAV is the default NAV anchor value.
	DefaultInitialNAV = 100.0
	// DefaultNAVFloor clips degenerate compounded paths away from zero.
	DefaultNAVFloor = 1e-7
)

// ReturnType selects the period return convention.
type ReturnType string

const (
	// ReturnRelative is p_t/p_{t-1} - 1.
	ReturnRelative ReturnType = "relative"
	// ReturnLog is ln(p_t/p_{t-1}).
	ReturnLog ReturnType = "log"
	// ReturnDifference is p_t - p_{t-1}.
	ReturnDifference ReturnType = "difference"
	// ReturnLevel is p_t.
	ReturnLevel ReturnType = "level"
	// ReturnLevel0 is the lagged level p_{t-1}.
	ReturnLevel0 ReturnType = "level0"
)

// Stat keys a performance statistic in a returns summary.
type Stat string

const (
	StatTotalReturn    Stat = "TOTAL_RETURN"
	StatPAReturn       Stat = "PA_RETURN"
	StatPAExcessReturn Stat = "PA_EXCESS_RETURN"
	StatAnLogReturn    Stat = "AN_LOG_RETURN"
	StatAvgAnReturn    Stat = "AVG_AN_RETURN"
	StatNAV1           Stat = "NAV1"
	StatNumYears       Stat = "NUM_YEARS"
	StatStartPrice     Stat = "START_PRICE"
	StatEndPrice       Stat = "END_PRICE"
)

// PerfParams bundles the caller-owned computation conventions. The zero value
// is usable; unset fields fall back to package defaults.
type PerfParams struct {
	// Freq is the resampling frequency applied before return conversion.
	Freq timeseries.Frequency
	// RatesData is an optional funding-rate series for excess returns.
	RatesData *timeseries.Series
	// DaysPerYear is the annualization convention (default 365.25).
	DaysPerYear float64
	// AnnualizeShortSpans selects linear extrapolation r/y for spans under
	// one year; the default (false) reports the raw period return instead
	// (ytd convention).
	AnnualizeShortSpans bool
}

// DefaultPerfParams returns the conventional parameter bundle.
func DefaultPerfParams() PerfParams {
	return PerfParams{
		Freq:        timeseries.FreqBusinessDaily,
		DaysPerYear: CalendarDaysPerYear,
	}
}

func (p PerfParams) daysPerYear() float64 {
	if p.DaysPerYear > 0 {
		return p.DaysPerYear
	}
	return CalendarDaysPerYear
}

// NumYears returns the elapsed span of the price index in years under the
// given day-count convention (<= 0 means daysPerYear defaults).
func NumYears(prices *timeseries.Table, daysPerYear float64) float64 {
	if prices.IsEmpty() {
		return 0
	}
	if daysPerYear <= 0 {
		daysPerYear = CalendarDaysPerYear
	}
	days := timeseries.ElapsedDays(prices.Dates[0], prices.Dates[len(prices.Dates)-1])
	return float64(days) / daysPerYear
}
