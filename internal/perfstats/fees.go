package perfstats

import (
	"fmt"
	"math"
	"time"

	"github.com/sharavsambuu/quantstats/internal/timeseries"
)

// FeeParams configures the gross-to-net fee accrual.
type FeeParams struct {
	// ManagementFee is the annual management fee, prorated by elapsed
	// calendar days over 365.
	ManagementFee float64
	// PerformanceFee is the rate applied above the high-water mark.
	PerformanceFee float64
	// CrystallizationFreq schedules performance fee crystallization.
	CrystallizationFreq timeseries.Frequency
	// CrystallizeFinal additionally crystallizes on the final date even when
	// it does not fall on the schedule.
	CrystallizeFinal bool
}

// DefaultFeeParams is the conventional 1-and-20 with annual crystallization.
func DefaultFeeParams() FeeParams {
	return FeeParams{
		ManagementFee:       0.01,
		PerformanceFee:      0.2,
		CrystallizationFreq: timeseries.FreqAnnual,
	}
}

// FeeAccrual is the full per-date state of the fee machine: gross asset
// value, net asset value, accrued performance fee, high-water mark and
// crystallized performance fee, plus the resulting net return.
type FeeAccrual struct {
	Dates           []time.Time
	GrossReturn     []float64
	NetReturn       []float64
	GAV             []float64
	NAV             []float64
	PerfFee         []float64
	HighWaterMark   []float64
	CrystallizedFee []float64
}

// ComputeFeeAccrual runs the fee state machine over a gross return series.
// The recurrence is strictly sequential: each row depends only on the
// previous row, the day's gross return and the calendar gap. NaN gross
// returns are treated as flat days.
func ComputeFeeAccrual(gross *timeseries.Series, params FeeParams) (*FeeAccrual, error) {
	if gross.IsEmpty() {
		return nil, fmt.Errorf("fee accrual: empty gross return series")
	}

	n := gross.Len()
	crystallize := make(map[time.Time]bool, n)
	if n > 1 {
		schedule, err := timeseries.GenerateSchedule(
			gross.Dates[0], gross.Dates[n-1],
			params.CrystallizationFreq,
			false, params.CrystallizeFinal,
		)
		if err != nil {
			return nil, err
		}
		for _, d := range schedule {
			crystallize[d] = true
		}
	}

	acc := &FeeAccrual{
		Dates:           append([]time.Time(nil), gross.Dates...),
		GrossReturn:     append([]float64(nil), gross.Values...),
		NetReturn:       make([]float64, n),
		GAV:             make([]float64, n),
		NAV:             make([]float64, n),
		PerfFee:         make([]float64, n),
		HighWaterMark:   make([]float64, n),
		CrystallizedFee: make([]float64, n),
	}

	acc.GAV[0] = DefaultInitialNAV
	acc.NAV[0] = DefaultInitialNAV
	acc.HighWaterMark[0] = DefaultInitialNAV

	for i := 1; i < n; i++ {
		g := gross.Values[i]
		if math.IsNaN(g) {
			g = 0.0
		}
		days := timeseries.ElapsedDays(gross.Dates[i-1], gross.Dates[i])
		feeDT := params.ManagementFee * float64(days) / FeeDaysPerYear

		gav := acc.GAV[i-1] * (1.0 + g - feeDT)
		pf := params.PerformanceFee * math.Max(gav-acc.HighWaterMark[i-1], 0.0)
		nav := gav - pf
		hwm := acc.HighWaterMark[i-1]

		if crystallize[gross.Dates[i]] {
			acc.CrystallizedFee[i] = pf
			hwm = math.Max(nav, hwm)
			gav -= pf
		}

		acc.GAV[i] = gav
		acc.PerfFee[i] = pf
		acc.NAV[i] = nav
		acc.HighWaterMark[i] = hwm
		acc.NetReturn[i] = nav/acc.NAV[i-1] - 1.0
	}
	return acc, nil
}

// NetReturns converts gross returns into net-of-fee returns. The first entry
// is zero: no return is realized before any holding period.
func NetReturns(gross *timeseries.Series, params FeeParams) (*timeseries.Series, error) {
	acc, err := ComputeFeeAccrual(gross, params)
	if err != nil {
		return nil, err
	}
	return &timeseries.Series{
		Name:   gross.Name,
		Dates:  acc.Dates,
		Values: acc.NetReturn,
	}, nil
}

// NetNAVs converts gross NAV paths into net-of-fee NAV paths, running the
// fee state machine independently per column.
func NetNAVs(navs *timeseries.Table, params FeeParams) (*timeseries.Table, error) {
	grossOpts := ReturnOptions{ReturnType: ReturnRelative}
	grossReturns, err := ToReturns(navs, grossOpts)
	if err != nil {
		return nil, err
	}

	netColumns := make([]*timeseries.Series, grossReturns.NumCols())
	for j := 0; j < grossReturns.NumCols(); j++ {
		net, err := NetReturns(grossReturns.Column(j), params)
		if err != nil {
			return nil, err
		}
		netColumns[j] = net
	}

	netReturns, err := timeseries.FromSeries(netColumns...)
	if err != nil {
		return nil, err
	}
	return ReturnsToNAV(netReturns, DefaultNAVOptions())
}

// NetNAV is the single-series form of NetNAVs.
func NetNAV(nav *timeseries.Series, params FeeParams) (*timeseries.Series, error) {
	t, err := NetNAVs(nav.Table(), params)
	if err != nil {
		return nil, err
	}
	return t.Column(0), nil
}
