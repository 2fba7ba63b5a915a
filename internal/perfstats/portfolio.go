package perfstats

import (
	"fmt"
	"math"
	"time"

	"github.com/sharavsambuu/quantstats/internal/timeseries"
)

// PortfolioReturns combines per-instrument returns into one portfolio return
// series using prior-period weights (no look-ahead: today's return is earned
// on yesterday's position). A row where every instrument is missing yields a
// missing portfolio return; a partially missing row sums the instruments
// that are present.
func PortfolioReturns(weights, returns *timeseries.Table, name string) (*timeseries.Series, error) {
	if weights.NumRows() != returns.NumRows() || weights.NumCols() != returns.NumCols() {
		return nil, fmt.Errorf("portfolio returns: weights %dx%d do not match returns %dx%d",
			weights.NumRows(), weights.NumCols(), returns.NumRows(), returns.NumCols())
	}

	lagged := weights.Shift(1)
	values := make([]float64, returns.NumRows())
	for i := range returns.Values {
		sum := 0.0
		allMissing := true
		for j := range returns.Values[i] {
			pnl := returns.Values[i][j] * lagged.Values[i][j]
			if math.IsNaN(pnl) {
				continue
			}
			sum += pnl
			allMissing = false
		}
		if allMissing {
			values[i] = math.NaN()
		} else {
			values[i] = sum
		}
	}

	return &timeseries.Series{
		Name:   name,
		Dates:  append([]time.Time(nil), returns.Dates...),
		Values: values,
	}, nil
}

// PortfolioReturnsToNAV aggregates already-weighted instrument returns row
// wise and reconstructs the portfolio NAV path.
func PortfolioReturnsToNAV(returns *timeseries.Table, opts NAVOptions, name string) (*timeseries.Series, error) {
	values := make([]float64, returns.NumRows())
	for i := range returns.Values {
		sum := 0.0
		for _, v := range returns.Values[i] {
			if !math.IsNaN(v) {
				sum += v
			}
		}
		values[i] = sum
	}
	agg := &timeseries.Series{
		Name:   name,
		Dates:  append([]time.Time(nil), returns.Dates...),
		Values: values,
	}
	return SeriesReturnsToNAV(agg, opts)
}

// GroupedNAV reconstructs one NAV path for a group of already-weighted
// instrument returns.
func GroupedNAV(returns *timeseries.Table, opts NAVOptions, name string) (*timeseries.Series, error) {
	return PortfolioReturnsToNAV(returns, opts, name)
}

// AdjustNAVsToPortfolioPA rescales each constituent's price path by a smooth
// time-varying factor so that the constituents' annualized returns reconcile
// additively with the portfolio's. The adjustment matches terminal ratios via
// an exponent anchored to the elapsed time fraction, which back-propagates
// the anchor and is more stable for long histories than a constant scalar.
func AdjustNAVsToPortfolioPA(portfolioNAV *timeseries.Series, assetPrices *timeseries.Table, daysPerYear float64) (*timeseries.Table, error) {
	if portfolioNAV.IsEmpty() || assetPrices.IsEmpty() {
		return nil, fmt.Errorf("adjust navs: empty input")
	}
	if daysPerYear <= 0 {
		daysPerYear = CalendarDaysPerYear
	}

	portfolioPA := PAReturn(portfolioNAV, daysPerYear, false)
	assetsPA := PAReturns(assetPrices, daysPerYear, false)

	meanPA := nanMean(assetsPA)
	n := float64(assetPrices.NumCols())
	base := (portfolioPA/n + 1.0) / (meanPA + 1.0)

	out := assetPrices.Clone()
	start := assetPrices.Dates[0]
	for i := range out.Values {
		t := float64(timeseries.ElapsedDays(start, assetPrices.Dates[i])) / daysPerYear
		factor := math.Pow(base, t)
		for j := range out.Values[i] {
			out.Values[i][j] *= factor
		}
	}
	return out, nil
}

// PortfolioNAVsToAdditive rewrites a grouped NAV table (portfolio total plus
// constituent NAVs) so the constituent paths are additive to the portfolio
// total, keeping the portfolio column first.
func PortfolioNAVsToAdditive(groupedNAV *timeseries.Table, portfolioName string, daysPerYear float64) (*timeseries.Table, error) {
	portfolio, ok := groupedNAV.ColumnByName(portfolioName)
	if !ok {
		return nil, fmt.Errorf("grouped nav: portfolio column %q not found", portfolioName)
	}
	assets := groupedNAV.DropColumn(portfolioName)

	adjusted, err := AdjustNAVsToPortfolioPA(portfolio, assets, daysPerYear)
	if err != nil {
		return nil, err
	}

	columns := append([]*timeseries.Series{portfolio}, tableColumns(adjusted)...)
	return timeseries.FromSeries(columns...)
}

func tableColumns(t *timeseries.Table) []*timeseries.Series {
	out := make([]*timeseries.Series, t.NumCols())
	for j := range out {
		out[j] = t.Column(j)
	}
	return out
}

func nanMean(values []float64) float64 {
	sum, count := 0.0, 0
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			count++
		}
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}
