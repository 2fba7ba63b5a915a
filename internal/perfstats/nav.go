package perfstats

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sharavsambuu/quantstats/internal/timeseries"
)

// NAVOptions controls return-to-NAV reconstruction.
type NAVOptions struct {
	// InitPeriod of 1 forces the first usable return of each column to zero
	// so the entry price uncertainty does not distort the cumulative product.
	// nil skips the adjustment; any other value is an unsupported no-op.
	InitPeriod *int
	// TerminalValues rescales the path to hit known terminal values
	// (back-propagated anchor). One value broadcasts to all columns.
	// Takes precedence over InitValues.
	TerminalValues []float64
	// InitValues rescales the path to start at known initial values.
	InitValues []float64
	// Freq optionally resamples the reconstructed path with forward fill.
	Freq timeseries.Frequency
	// ConstantTradeLevel switches to cumulative-sum (linear, non-compounding)
	// sizing.
	ConstantTradeLevel bool
}

// DefaultNAVOptions applies the init-period-1 convention.
func DefaultNAVOptions() NAVOptions {
	one := 1
	return NAVOptions{InitPeriod: &one}
}

// ReturnsToNAV converts period returns into a cumulative NAV path. Missing
// entries are multiplicative no-ops (the path holds flat); entries before the
// first usable return stay NaN.
func ReturnsToNAV(returns *timeseries.Table, opts NAVOptions) (*timeseries.Table, error) {
	r := returns
	if opts.InitPeriod != nil {
		r = ZeroFirstNonNaNReturns(returns, *opts.InitPeriod)
	}

	nav := r.Clone()
	for j := 0; j < nav.NumCols(); j++ {
		acc := 1.0
		started := false
		for i := range nav.Values {
			v := r.Values[i][j]
			if !math.IsNaN(v) {
				if opts.ConstantTradeLevel {
					acc += v
				} else {
					acc *= 1.0 + v
				}
				started = true
			}
			if started {
				nav.Values[i][j] = acc
			} else {
				nav.Values[i][j] = math.NaN()
			}
		}
	}

	if err := anchor(nav, opts.TerminalValues, opts.InitValues); err != nil {
		return nil, err
	}

	if opts.Freq != timeseries.FreqNone {
		return nav.Resample(opts.Freq, timeseries.ResampleOptions{Ffill: true})
	}
	return nav, nil
}

// SeriesReturnsToNAV is the single-series form of ReturnsToNAV.
func SeriesReturnsToNAV(returns *timeseries.Series, opts NAVOptions) (*timeseries.Series, error) {
	t, err := ReturnsToNAV(returns.Table(), opts)
	if err != nil {
		return nil, err
	}
	return t.Column(0), nil
}

// ZeroFirstNonNaNReturns replaces, per column, the first non-NaN return with
// zero. Only initPeriod 1 is supported; anything else passes the input
// through unchanged with a warning.
func ZeroFirstNonNaNReturns(returns *timeseries.Table, initPeriod int) *timeseries.Table {
	if initPeriod != 1 {
		log.Warn().Int("init_period", initPeriod).Msg("unsupported init period, returns unchanged")
		return returns.Clone()
	}
	out := returns.Clone()
	for j, i := range returns.FirstValidIndexes() {
		if i >= 0 {
			out.Values[i][j] = 0.0
		}
	}
	return out
}

// LogReturnsToNAV reconstructs a NAV from already-log returns via
// exponentiation of the cumulative sum.
func LogReturnsToNAV(logReturns *timeseries.Table, opts NAVOptions) (*timeseries.Table, error) {
	r := logReturns
	if opts.InitPeriod != nil {
		r = ZeroFirstNonNaNReturns(logReturns, *opts.InitPeriod)
	}

	nav := r.Clone()
	for j := 0; j < nav.NumCols(); j++ {
		acc := 0.0
		started := false
		for i := range nav.Values {
			v := r.Values[i][j]
			if !math.IsNaN(v) {
				acc += v
				started = true
			}
			if started {
				nav.Values[i][j] = math.Exp(acc)
			} else {
				nav.Values[i][j] = math.NaN()
			}
		}
	}

	if err := anchor(nav, opts.TerminalValues, opts.InitValues); err != nil {
		return nil, err
	}
	return nav, nil
}

func anchor(nav *timeseries.Table, terminal, init []float64) error {
	scale := func(anchors []float64, reference []float64) error {
		if len(anchors) != 1 && len(anchors) != nav.NumCols() {
			return fmt.Errorf("nav anchor: %d values for %d columns", len(anchors), nav.NumCols())
		}
		for j := 0; j < nav.NumCols(); j++ {
			a := anchors[0]
			if len(anchors) > 1 {
				a = anchors[j]
			}
			ref := reference[j]
			if math.IsNaN(ref) || ref == 0 {
				continue
			}
			factor := a / ref
			for i := range nav.Values {
				nav.Values[i][j] *= factor
			}
		}
		return nil
	}

	if len(terminal) > 0 {
		return scale(terminal, nav.LastValidValues())
	}
	if len(init) > 0 {
		return scale(init, nav.FirstValidValues())
	}
	return nil
}

// NAVFromOptions controls NAVFromReturns.
type NAVFromOptions struct {
	// InitValue anchors the path start (default 100). Takes precedence over
	// TerminalValue.
	InitValue *float64
	// TerminalValue rescales the path to hit a known terminal value.
	TerminalValue *float64
	// FirstDate optionally prepends a synthetic zero return so the path
	// starts exactly at the anchor on that date.
	FirstDate *time.Time
	// NAVFloor clips the compounded path from below (default 1e-7; a
	// non-positive value disables the clip).
	NAVFloor *float64
}

// NAVFromReturns builds a NAV path from returns of several instruments while
// filtering out NaNs and infinities. Infinite values are neutralized to
// missing before compounding; remaining gaps are treated as zero returns.
func NAVFromReturns(returns *timeseries.Table, opts NAVFromOptions) *timeseries.Table {
	r := returns.Clone()
	if opts.FirstDate != nil {
		zero := make([]float64, r.NumCols())
		dates := append([]time.Time{*opts.FirstDate}, r.Dates...)
		values := append([][]float64{zero}, r.Values...)
		// NewTable re-sorts and deduplicates, keeping the synthetic row only
		// when the date is genuinely new.
		if nt, err := timeseries.NewTable(r.Columns, dates, values); err == nil {
			r = nt
		}
	}

	r = r.ReplaceInf()
	for i := range r.Values {
		for j, v := range r.Values[i] {
			if math.IsNaN(v) {
				r.Values[i][j] = 0.0
			}
		}
	}

	nav := r
	for j := 0; j < nav.NumCols(); j++ {
		acc := 1.0
		for i := range nav.Values {
			acc *= 1.0 + nav.Values[i][j]
			nav.Values[i][j] = acc
		}
	}

	floor := DefaultNAVFloor
	if opts.NAVFloor != nil {
		floor = *opts.NAVFloor
	}
	if floor > 0 {
		for i := range nav.Values {
			for j, v := range nav.Values[i] {
				if v < floor {
					nav.Values[i][j] = floor
				}
			}
		}
	}

	switch {
	case opts.InitValue != nil:
		mulAll(nav, *opts.InitValue)
	case opts.TerminalValue != nil:
		if len(nav.Values) > 0 {
			for j := 0; j < nav.NumCols(); j++ {
				last := nav.Values[len(nav.Values)-1][j]
				if last != 0 && !math.IsNaN(last) {
					factor := *opts.TerminalValue / last
					for i := range nav.Values {
						nav.Values[i][j] *= factor
					}
				}
			}
		}
	default:
		mulAll(nav, DefaultInitialNAV)
	}
	return nav
}

func mulAll(t *timeseries.Table, factor float64) {
	for i := range t.Values {
		for j := range t.Values[i] {
			t.Values[i][j] *= factor
		}
	}
}

// ScaledNAV rebuilds a NAV path from prices with returns scaled by a
// constant participation factor.
func ScaledNAV(prices *timeseries.Table, scale float64) (*timeseries.Table, error) {
	opts := DefaultReturnOptions()
	opts.IsFirstZero = true
	returns, err := ToReturns(prices, opts)
	if err != nil {
		return nil, err
	}
	for i := range returns.Values {
		for j := range returns.Values[i] {
			returns.Values[i][j] *= scale
		}
	}
	return ReturnsToNAV(returns, DefaultNAVOptions())
}

// RelativeNAV reconstructs the NAV of holding the first instrument against
// the second: the cumulative path of their return difference.
func RelativeNAV(price1, price2 *timeseries.Series) (*timeseries.Series, error) {
	joined, err := timeseries.FromSeries(price1, price2)
	if err != nil {
		return nil, err
	}
	opts := DefaultReturnOptions()
	opts.IsFirstZero = true
	returns, err := ToReturns(joined.Ffill(), opts)
	if err != nil {
		return nil, err
	}

	relative := returns.Column(0)
	second := returns.Column(1)
	for i := range relative.Values {
		relative.Values[i] -= second.Values[i]
	}
	relative.Name = price1.Name
	return SeriesReturnsToNAV(relative, DefaultNAVOptions())
}
