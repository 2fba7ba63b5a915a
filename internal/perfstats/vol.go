package perfstats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sharavsambuu/quantstats/internal/timeseries"
)

// smallSampleSize is the cutoff below which the mean-adjusted estimator is
// considered biased and the zero-mean RMS heuristic is used instead.
const smallSampleSize = 20

// EstimateVol estimates the per-period standard deviation of a return sample.
// Samples of at least 20 observations use the unbiased sample standard
// deviation ignoring NaNs; smaller samples use the root mean square of the
// returns without mean subtraction.
func EstimateVol(sample []float64) float64 {
	clean := sample[:0:0]
	for _, v := range sample {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}

	if len(sample) >= smallSampleSize {
		if len(clean) < 2 {
			return math.NaN()
		}
		return stat.StdDev(clean, nil)
	}

	if len(clean) == 0 {
		return math.NaN()
	}
	sumSq := 0.0
	for _, v := range clean {
		sumSq += v * v
	}
	return math.Sqrt(sumSq / float64(len(clean)))
}

// SampledVolOptions controls close-to-close volatility sampling.
type SampledVolOptions struct {
	// VolFreq partitions returns into estimation buckets (default monthly).
	VolFreq timeseries.Frequency
	// ReturnFreq samples returns before bucketing (default native grid).
	ReturnFreq       timeseries.Frequency
	IncludeStartDate bool
	IncludeEndDate   bool
	// DaysPerYear is the annualization day-count convention.
	DaysPerYear float64
}

// SampledVols estimates annualized close-to-close volatility per calendar
// bucket: returns are partitioned into non-overlapping VolFreq buckets,
// estimated independently per bucket and column, then annualized by the
// square root of the periods-per-year inferred from the sampling grid. The
// output is indexed by the last date of each bucket.
func SampledVols(prices *timeseries.Table, opts SampledVolOptions) (*timeseries.Table, error) {
	volFreq := opts.VolFreq
	if volFreq == timeseries.FreqNone {
		volFreq = timeseries.FreqMonthly
	}

	retOpts := DefaultReturnOptions()
	retOpts.Freq = opts.ReturnFreq
	retOpts.IncludeStartDate = opts.IncludeStartDate
	retOpts.IncludeEndDate = opts.IncludeEndDate
	returns, err := ToReturns(prices, retOpts)
	if err != nil {
		return nil, err
	}

	buckets, err := returns.SplitByFrequency(volFreq)
	if err != nil {
		return nil, err
	}

	an := math.Sqrt(inferAnnualization(returns, opts.DaysPerYear))
	out := &timeseries.Table{Columns: append([]string(nil), prices.Columns...)}
	for _, b := range buckets {
		if b.Table.IsEmpty() {
			continue
		}
		row := make([]float64, b.Table.NumCols())
		for j := range row {
			col := b.Table.Column(j)
			row[j] = EstimateVol(col.Values) * an
		}
		out.Dates = append(out.Dates, b.Table.Dates[len(b.Table.Dates)-1])
		out.Values = append(out.Values, row)
	}
	return out, nil
}

// inferAnnualization infers the number of sampling periods per year from the
// observation grid.
func inferAnnualization(returns *timeseries.Table, daysPerYear float64) float64 {
	numYears := NumYears(returns, daysPerYear)
	if numYears <= 0 || returns.NumRows() < 2 {
		return 252.0
	}
	return float64(returns.NumRows()-1) / numYears
}
