package perfstats

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sharavsambuu/quantstats/internal/timeseries"
)

// ReturnOptions controls price-to-return conversion.
type ReturnOptions struct {
	ReturnType       ReturnType
	IsLogReturns     bool // overrides ReturnType with ReturnLog
	Freq             timeseries.Frequency
	IncludeStartDate bool
	IncludeEndDate   bool
	FfillNaNs        bool
	DropFirst        bool
	IsFirstZero      bool // takes precedence over DropFirst
}

// DefaultReturnOptions returns relative returns on the native grid with
// forward-filled gaps.
func DefaultReturnOptions() ReturnOptions {
	return ReturnOptions{ReturnType: ReturnRelative, FfillNaNs: true}
}

// PricesAtFreq aligns prices onto the requested frequency. With FreqNone the
// native grid is kept; forward fill still applies when requested.
func PricesAtFreq(prices *timeseries.Table, freq timeseries.Frequency, includeStart, includeEnd, ffill bool) (*timeseries.Table, error) {
	if freq == timeseries.FreqNone {
		if ffill {
			return prices.Ffill(), nil
		}
		return prices.Clone(), nil
	}
	return prices.Resample(freq, timeseries.ResampleOptions{
		IncludeStart: includeStart,
		IncludeEnd:   includeEnd,
		Ffill:        ffill,
	})
}

// ToReturns converts a price table into period returns under the selected
// return type. An entry is computed only where both the current and prior
// price are present and strictly positive; everywhere else the result is NaN.
// Division through invalid values never happens: masked elements short-circuit
// to NaN.
func ToReturns(prices *timeseries.Table, opts ReturnOptions) (*timeseries.Table, error) {
	rt := opts.ReturnType
	if rt == "" {
		rt = ReturnRelative
	}
	if opts.IsLogReturns {
		rt = ReturnLog
	}
	switch rt {
	case ReturnRelative, ReturnLog, ReturnDifference, ReturnLevel, ReturnLevel0:
	default:
		return nil, fmt.Errorf("unsupported return type %q", string(rt))
	}

	aligned, err := PricesAtFreq(prices, opts.Freq, opts.IncludeStartDate, opts.IncludeEndDate, opts.FfillNaNs)
	if err != nil {
		return nil, err
	}

	out := aligned.Clone()
	for i := range out.Values {
		for j := range out.Values[i] {
			cur := aligned.Values[i][j]
			prev := math.NaN()
			if i > 0 {
				prev = aligned.Values[i-1][j]
			}
			if !goodPricePair(cur, prev) {
				out.Values[i][j] = math.NaN()
				continue
			}
			switch rt {
			case ReturnRelative:
				out.Values[i][j] = cur/prev - 1.0
			case ReturnLog:
				out.Values[i][j] = math.Log(cur / prev)
			case ReturnDifference:
				out.Values[i][j] = cur - prev
			case ReturnLevel:
				out.Values[i][j] = cur
			case ReturnLevel0:
				out.Values[i][j] = prev
			}
		}
	}

	if opts.IsFirstZero {
		if len(out.Values) > 0 {
			for j := range out.Values[0] {
				out.Values[0][j] = 0.0
			}
		}
	} else if opts.DropFirst {
		if len(out.Values) > 0 {
			out.Dates = out.Dates[1:]
			out.Values = out.Values[1:]
		}
	}
	return out, nil
}

// ToSeriesReturns is the single-series form of ToReturns.
func ToSeriesReturns(prices *timeseries.Series, opts ReturnOptions) (*timeseries.Series, error) {
	t, err := ToReturns(prices.Table(), opts)
	if err != nil {
		return nil, err
	}
	return t.Column(0), nil
}

func goodPricePair(cur, prev float64) bool {
	return !math.IsNaN(cur) && !math.IsNaN(prev) && cur > 0.0 && prev > 0.0
}

// TotalReturns computes, per column, the total return over the series span:
// last valid price over first valid price minus one. A single-observation
// index or a non-positive elapsed span yields NaN with a logged diagnostic.
func TotalReturns(prices *timeseries.Table) []float64 {
	out := nanSlice(prices.NumCols())
	if prices.NumRows() <= 1 {
		return out
	}

	first := make([]float64, prices.NumCols())
	substituted := false
	for j := range prices.Columns {
		first[j] = prices.Values[0][j]
		if math.IsNaN(first[j]) {
			substituted = true
		}
	}
	if substituted {
		first = prices.FirstValidValues()
		log.Warn().
			Strs("columns", prices.Columns).
			Floats64("first_non_nan", first).
			Msg("NaN price on first date, substituting first non-NaN price")
	}

	days := timeseries.ElapsedDays(prices.Dates[0], prices.Dates[len(prices.Dates)-1])
	if days <= 0 {
		log.Warn().
			Time("start", prices.Dates[0]).
			Time("end", prices.Dates[len(prices.Dates)-1]).
			Msg("inconsistent dates for total return")
		return out
	}

	last := prices.LastValidValues()
	for j := range out {
		out[j] = last[j]/first[j] - 1.0
	}
	return out
}

// TotalReturn is the single-series form of TotalReturns.
func TotalReturn(prices *timeseries.Series) float64 {
	return TotalReturns(prices.Table())[0]
}

// PAReturns computes, per column, the compounded annualized return. Spans
// over one year compound with (1+r)^(1/y)-1; spans within a year either
// extrapolate linearly (annualizeShortSpans) or report the raw period return
// (ytd convention). A non-positive span degenerates to zero.
func PAReturns(prices *timeseries.Table, daysPerYear float64, annualizeShortSpans bool) []float64 {
	numYears := NumYears(prices, daysPerYear)
	if numYears <= 0.0 {
		return make([]float64, prices.NumCols())
	}

	total := TotalReturns(prices)
	out := make([]float64, len(total))
	for j, r := range total {
		ratio := r + 1.0
		switch {
		case numYears > 1.0:
			out[j] = math.Pow(ratio, 1.0/numYears) - 1.0
		case annualizeShortSpans:
			out[j] = r / numYears
		default:
			out[j] = r
		}
	}
	return out
}

// PAReturn is the single-series form of PAReturns.
func PAReturn(prices *timeseries.Series, daysPerYear float64, annualizeShortSpans bool) float64 {
	return PAReturns(prices.Table(), daysPerYear, annualizeShortSpans)[0]
}

// Summary holds per-column performance statistics over one price span.
type Summary struct {
	Columns   []string
	StartDate time.Time
	EndDate   time.Time
	Stats     map[Stat][]float64
}

// ReturnsSummary computes the standard per-column statistics bundle. An empty
// price table yields NaN-filled statistics with a logged diagnostic rather
// than an error.
func ReturnsSummary(prices *timeseries.Table, params PerfParams) (*Summary, error) {
	n := prices.NumCols()
	summary := &Summary{
		Columns: append([]string(nil), prices.Columns...),
		Stats:   map[Stat][]float64{},
	}
	if prices.IsEmpty() {
		log.Warn().Strs("columns", prices.Columns).Msg("returns summary over empty prices")
		for _, k := range []Stat{StatTotalReturn, StatPAReturn, StatPAExcessReturn, StatAnLogReturn, StatAvgAnReturn, StatNumYears} {
			summary.Stats[k] = nanSlice(n)
		}
		return summary, nil
	}

	daysPerYear := params.daysPerYear()
	total := TotalReturns(prices)
	pa := PAReturns(prices, daysPerYear, params.AnnualizeShortSpans)
	numYears := NumYears(prices, daysPerYear)

	excess := pa
	if params.RatesData != nil {
		returns, err := ToReturns(prices, DefaultReturnOptions())
		if err != nil {
			return nil, err
		}
		excess = PAExcessReturns(returns, params.RatesData, prices.Dates[0], daysPerYear, params.AnnualizeShortSpans)
	}

	anLog := make([]float64, n)
	avgAn := make([]float64, n)
	nav1 := make([]float64, n)
	years := make([]float64, n)
	for j := 0; j < n; j++ {
		anLog[j] = math.Log(1.0 + pa[j])
		avgAn[j] = total[j] / numYears
		nav1[j] = 1.0 + total[j]
		years[j] = numYears
	}

	summary.StartDate = prices.Dates[0]
	summary.EndDate = prices.Dates[len(prices.Dates)-1]
	summary.Stats[StatTotalReturn] = total
	summary.Stats[StatPAReturn] = pa
	summary.Stats[StatPAExcessReturn] = excess
	summary.Stats[StatAnLogReturn] = anLog
	summary.Stats[StatAvgAnReturn] = avgAn
	summary.Stats[StatNAV1] = nav1
	summary.Stats[StatNumYears] = years
	summary.Stats[StatStartPrice] = append([]float64(nil), prices.Values[0]...)
	summary.Stats[StatEndPrice] = append([]float64(nil), prices.Values[len(prices.Values)-1]...)
	return summary, nil
}

// ExcessReturns subtracts a funding-rate series, converted to a per-period
// rate via elapsed-day weighting, from each return column.
func ExcessReturns(returns *timeseries.Table, rates *timeseries.Series, daysPerYear float64) *timeseries.Table {
	dt := rateOverPeriods(rates, returns.Dates, 0, daysPerYear)
	out := returns.Clone()
	for i := range out.Values {
		for j := range out.Values[i] {
			out.Values[i][j] -= dt[i]
		}
	}
	return out
}

// PAExcessReturns rebuilds a NAV from funding-adjusted returns and recomputes
// the annualized return on it.
func PAExcessReturns(returns *timeseries.Table, rates *timeseries.Series, firstDate time.Time, daysPerYear float64, annualizeShortSpans bool) []float64 {
	excess := ExcessReturns(returns, rates, daysPerYear)
	prices := NAVFromReturns(excess, NAVFromOptions{FirstDate: &firstDate})
	return PAReturns(prices, daysPerYear, annualizeShortSpans)
}

// ExcessReturnsNAV converts prices to funding-adjusted returns (rates lagged
// one period) and reconstructs a NAV anchored to the gross terminal value.
func ExcessReturnsNAV(prices *timeseries.Table, fundingRate *timeseries.Series, freq timeseries.Frequency, daysPerYear float64) (*timeseries.Table, error) {
	if fundingRate == nil {
		return nil, fmt.Errorf("excess returns NAV: funding rate series required")
	}
	opts := DefaultReturnOptions()
	opts.Freq = freq
	navReturns, err := ToReturns(prices, opts)
	if err != nil {
		return nil, err
	}

	dt := rateOverPeriods(fundingRate, navReturns.Dates, 1, daysPerYear)
	excess := navReturns.Clone()
	for i := range excess.Values {
		for j := range excess.Values[i] {
			excess.Values[i][j] -= dt[i]
		}
	}

	navOpts := DefaultNAVOptions()
	navOpts.TerminalValues = prices.LastValidValues()
	return ReturnsToNAV(excess, navOpts)
}

// rateOverPeriods converts an annualized rate series into per-period rates on
// the given date grid: elapsed-day fraction times the rate observed at the
// (optionally lagged) period date. The first period has no elapsed span and
// is zero.
func rateOverPeriods(rates *timeseries.Series, dates []time.Time, lag int, daysPerYear float64) []float64 {
	if daysPerYear <= 0 {
		daysPerYear = CalendarDaysPerYear
	}
	out := make([]float64, len(dates))
	for i := range dates {
		if i == 0 {
			continue
		}
		at := i
		if lag > 0 && i-lag >= 0 {
			at = i - lag
		}
		rate := rates.At(dates[at])
		if math.IsNaN(rate) {
			continue
		}
		days := timeseries.ElapsedDays(dates[i-1], dates[i])
		out[i] = rate * float64(days) / daysPerYear
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
