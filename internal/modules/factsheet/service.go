// Package factsheet computes and stores performance summaries for symbols
// and weighted baskets, built on the perfstats core.
package factsheet

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/sharavsambuu/quantstats/internal/modules/prices"
	"github.com/sharavsambuu/quantstats/internal/perfstats"
	"github.com/sharavsambuu/quantstats/internal/timeseries"
)

// Params bundles the service-level computation defaults. Per-request
// overrides are applied by handlers before calling the service.
type Params struct {
	DaysPerYear float64
	Fees        perfstats.FeeParams
	// RateCurve names the funding-rate curve used for excess returns.
	// Empty disables excess return computation.
	RateCurve string
}

// DefaultParams returns the conventional service parameters
func DefaultParams() Params {
	return Params{
		DaysPerYear: perfstats.CalendarDaysPerYear,
		Fees:        perfstats.DefaultFeeParams(),
	}
}

// Service computes factsheet snapshots from stored price histories
type Service struct {
	priceRepo *prices.Repository
	snapshots *SnapshotRepository
	params    Params
	log       zerolog.Logger
}

// NewService creates a new factsheet service
func NewService(priceRepo *prices.Repository, snapshots *SnapshotRepository, params Params, log zerolog.Logger) *Service {
	if params.DaysPerYear <= 0 {
		params.DaysPerYear = perfstats.CalendarDaysPerYear
	}
	return &Service{
		priceRepo: priceRepo,
		snapshots: snapshots,
		params:    params,
		log:       log.With().Str("service", "factsheet").Logger(),
	}
}

// BuildSnapshot computes a fresh performance snapshot for a symbol from its
// stored price history and persists it.
func (s *Service) BuildSnapshot(symbol string) (*Snapshot, error) {
	series, err := s.priceRepo.GetDailyCloses(symbol)
	if err != nil {
		return nil, err
	}
	if series.IsEmpty() {
		return nil, fmt.Errorf("no price history for symbol %s", symbol)
	}

	priceTable := series.Table()

	params := perfstats.PerfParams{DaysPerYear: s.params.DaysPerYear}
	if s.params.RateCurve != "" {
		rates, err := s.priceRepo.GetFundingRates(s.params.RateCurve)
		if err != nil {
			return nil, err
		}
		if !rates.IsEmpty() {
			params.RatesData = rates
		}
	}

	summary, err := perfstats.ReturnsSummary(priceTable, params)
	if err != nil {
		return nil, err
	}

	vol, err := s.annualizedVol(series)
	if err != nil {
		return nil, err
	}

	netTotal, netPA, netNAV1, err := s.netStats(series)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Symbol:         symbol,
		CreatedAt:      time.Now().UTC(),
		StartDate:      summary.StartDate,
		EndDate:        summary.EndDate,
		NumYears:       summary.Stats[perfstats.StatNumYears][0],
		StartPrice:     summary.Stats[perfstats.StatStartPrice][0],
		EndPrice:       summary.Stats[perfstats.StatEndPrice][0],
		TotalReturn:    summary.Stats[perfstats.StatTotalReturn][0],
		PAReturn:       summary.Stats[perfstats.StatPAReturn][0],
		PAExcessReturn: summary.Stats[perfstats.StatPAExcessReturn][0],
		AnLogReturn:    summary.Stats[perfstats.StatAnLogReturn][0],
		AvgAnReturn:    summary.Stats[perfstats.StatAvgAnReturn][0],
		NAV1:           summary.Stats[perfstats.StatNAV1][0],
		Vol:            vol,
		NetTotalReturn: netTotal,
		NetPAReturn:    netPA,
		NetNAV1:        netNAV1,
	}

	if err := s.snapshots.Save(snapshot); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("symbol", symbol).
		Float64("total_return", snapshot.TotalReturn).
		Float64("pa_return", snapshot.PAReturn).
		Msg("Snapshot built")

	return snapshot, nil
}

// RefreshAll rebuilds snapshots for every symbol with stored price history.
// Returns the number of snapshots built; per-symbol failures are logged and
// skipped so one bad history does not block the rest.
func (s *Service) RefreshAll() (int, error) {
	symbols, err := s.priceRepo.Symbols()
	if err != nil {
		return 0, err
	}

	built := 0
	for _, symbol := range symbols {
		if _, err := s.BuildSnapshot(symbol); err != nil {
			s.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to build snapshot")
			continue
		}
		built++
	}

	return built, nil
}

// LatestSnapshot fetches the most recent stored snapshot for a symbol,
// building one on demand if none exists.
func (s *Service) LatestSnapshot(symbol string) (*Snapshot, error) {
	snapshot, err := s.snapshots.GetLatest(symbol)
	if err != nil {
		return nil, err
	}
	if snapshot != nil {
		return snapshot, nil
	}
	return s.BuildSnapshot(symbol)
}

// NAVTrack reconstructs the gross and net-of-fees NAV paths for a symbol,
// both rebased to 1.0 at the first observation.
func (s *Service) NAVTrack(symbol string) (*NAVTrack, error) {
	series, err := s.priceRepo.GetDailyCloses(symbol)
	if err != nil {
		return nil, err
	}
	if series.IsEmpty() {
		return nil, fmt.Errorf("no price history for symbol %s", symbol)
	}

	retOpts := perfstats.DefaultReturnOptions()
	retOpts.IsFirstZero = true
	returns, err := perfstats.ToSeriesReturns(series, retOpts)
	if err != nil {
		return nil, err
	}

	initValue := 1.0
	gross := perfstats.NAVFromReturns(returns.Table(), perfstats.NAVFromOptions{InitValue: &initValue}).Column(0)

	netNAV, err := perfstats.NetNAV(series, s.params.Fees)
	if err != nil {
		return nil, err
	}
	_, netBase, ok := netNAV.FirstValid()
	if !ok || netBase == 0 {
		return nil, fmt.Errorf("net track for %s has no valid observations", symbol)
	}

	if gross.Len() != netNAV.Len() {
		return nil, fmt.Errorf("gross and net tracks for %s differ in length", symbol)
	}

	points := make([]NAVPoint, gross.Len())
	for i, date := range gross.Dates {
		points[i] = NAVPoint{
			Date:  date.Format("2006-01-02"),
			Gross: gross.Values[i],
			Net:   netNAV.Values[i] / netBase,
		}
	}

	return &NAVTrack{
		Symbol:    symbol,
		StartDate: gross.Dates[0],
		EndDate:   gross.Dates[len(gross.Dates)-1],
		Points:    points,
	}, nil
}

// PortfolioFactsheet computes an aggregated summary for a constant-weight
// basket of symbols. Weights are applied with a one-period lag.
func (s *Service) PortfolioFactsheet(name string, symbols []string, weights []float64) (*PortfolioSummary, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}
	if len(symbols) != len(weights) {
		return nil, fmt.Errorf("got %d symbols but %d weights", len(symbols), len(weights))
	}

	priceTable, err := s.priceRepo.GetCloseTable(symbols)
	if err != nil {
		return nil, err
	}

	retOpts := perfstats.DefaultReturnOptions()
	retOpts.IsFirstZero = true
	returns, err := perfstats.ToReturns(priceTable, retOpts)
	if err != nil {
		return nil, err
	}

	weightTable, err := constantWeights(returns, weights)
	if err != nil {
		return nil, err
	}

	portReturns, err := perfstats.PortfolioReturns(weightTable, returns, name)
	if err != nil {
		return nil, err
	}

	// The one-period weight lag leaves the first portfolio return undefined;
	// the zero-filling reconstruction treats it as flat.
	initValue := 1.0
	navTable := perfstats.NAVFromReturns(portReturns.Table(), perfstats.NAVFromOptions{InitValue: &initValue})
	nav, ok := navTable.ColumnByName(name)
	if !ok {
		return nil, fmt.Errorf("portfolio column %s missing from reconstructed track", name)
	}

	summary, err := perfstats.ReturnsSummary(nav.Table(), perfstats.PerfParams{DaysPerYear: s.params.DaysPerYear})
	if err != nil {
		return nil, err
	}

	vol, err := s.annualizedVol(nav)
	if err != nil {
		return nil, err
	}

	return &PortfolioSummary{
		Name:        name,
		Symbols:     append([]string(nil), symbols...),
		Weights:     append([]float64(nil), weights...),
		StartDate:   summary.StartDate,
		EndDate:     summary.EndDate,
		TotalReturn: summary.Stats[perfstats.StatTotalReturn][0],
		PAReturn:    summary.Stats[perfstats.StatPAReturn][0],
		Vol:         vol,
		NAV1:        summary.Stats[perfstats.StatNAV1][0],
	}, nil
}

// annualizedVol estimates the annualized return volatility of a price track.
// The per-period estimate is scaled by the square root of the observation
// frequency inferred from the series span.
func (s *Service) annualizedVol(track *timeseries.Series) (float64, error) {
	retOpts := perfstats.DefaultReturnOptions()
	retOpts.DropFirst = true
	retOpts.FfillNaNs = false
	returns, err := perfstats.ToSeriesReturns(track, retOpts)
	if err != nil {
		return math.NaN(), err
	}
	if returns.IsEmpty() {
		return math.NaN(), nil
	}

	perPeriod := perfstats.EstimateVol(returns.Values)

	numYears := perfstats.NumYears(track.Table(), s.params.DaysPerYear)
	periodsPerYear := 252.0
	if numYears > 0 && returns.Len() >= 2 {
		periodsPerYear = float64(returns.Len()) / numYears
	}

	return perPeriod * math.Sqrt(periodsPerYear), nil
}

// netStats computes net-of-fees total return, PA return and NAV1 under the
// configured fee schedule.
func (s *Service) netStats(track *timeseries.Series) (total, pa, nav1 float64, err error) {
	netNAV, err := perfstats.NetNAV(track, s.params.Fees)
	if err != nil {
		return math.NaN(), math.NaN(), math.NaN(), err
	}

	total = perfstats.TotalReturn(netNAV)
	pa = perfstats.PAReturn(netNAV, s.params.DaysPerYear, false)
	nav1 = 1.0 + total
	return total, pa, nav1, nil
}

// constantWeights broadcasts static weights over the return grid
func constantWeights(returns *timeseries.Table, weights []float64) (*timeseries.Table, error) {
	values := make([][]float64, returns.NumRows())
	for i := range values {
		values[i] = append([]float64(nil), weights...)
	}
	return timeseries.NewTable(returns.Columns, returns.Dates, values)
}
