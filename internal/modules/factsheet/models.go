package factsheet

import (
	"encoding/json"
	"math"
	"time"
)

// Snapshot is a precomputed performance summary for one symbol.
// Snapshots are stored as MessagePack blobs in the factsheets database.
type Snapshot struct {
	ID        string    `msgpack:"id" json:"id"`
	Symbol    string    `msgpack:"symbol" json:"symbol"`
	CreatedAt time.Time `msgpack:"created_at" json:"created_at"`

	StartDate time.Time `msgpack:"start_date" json:"start_date"`
	EndDate   time.Time `msgpack:"end_date" json:"end_date"`
	NumYears  float64   `msgpack:"num_years" json:"num_years"`

	StartPrice float64 `msgpack:"start_price" json:"start_price"`
	EndPrice   float64 `msgpack:"end_price" json:"end_price"`

	TotalReturn    float64 `msgpack:"total_return" json:"total_return"`
	PAReturn       float64 `msgpack:"pa_return" json:"pa_return"`
	PAExcessReturn float64 `msgpack:"pa_excess_return" json:"pa_excess_return"`
	AnLogReturn    float64 `msgpack:"an_log_return" json:"an_log_return"`
	AvgAnReturn    float64 `msgpack:"avg_an_return" json:"avg_an_return"`
	NAV1           float64 `msgpack:"nav1" json:"nav1"`
	Vol            float64 `msgpack:"vol" json:"vol"`

	// Net-of-fees statistics under the configured fee schedule.
	NetTotalReturn float64 `msgpack:"net_total_return" json:"net_total_return"`
	NetPAReturn    float64 `msgpack:"net_pa_return" json:"net_pa_return"`
	NetNAV1        float64 `msgpack:"net_nav1" json:"net_nav1"`
}

// PortfolioSummary is the aggregated performance view for a weighted basket
type PortfolioSummary struct {
	Name      string    `json:"name"`
	Symbols   []string  `json:"symbols"`
	Weights   []float64 `json:"weights"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	TotalReturn float64 `json:"total_return"`
	PAReturn    float64 `json:"pa_return"`
	Vol         float64 `json:"vol"`
	NAV1        float64 `json:"nav1"`
}

// jsonNum maps NaN and ±Inf to nil so they encode as JSON null.
// Undefined statistics are valid outputs, encoding/json rejects them raw.
func jsonNum(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// MarshalJSON encodes undefined statistics as null instead of failing
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type alias Snapshot
	return json.Marshal(&struct {
		alias
		NumYears       *float64 `json:"num_years"`
		StartPrice     *float64 `json:"start_price"`
		EndPrice       *float64 `json:"end_price"`
		TotalReturn    *float64 `json:"total_return"`
		PAReturn       *float64 `json:"pa_return"`
		PAExcessReturn *float64 `json:"pa_excess_return"`
		AnLogReturn    *float64 `json:"an_log_return"`
		AvgAnReturn    *float64 `json:"avg_an_return"`
		NAV1           *float64 `json:"nav1"`
		Vol            *float64 `json:"vol"`
		NetTotalReturn *float64 `json:"net_total_return"`
		NetPAReturn    *float64 `json:"net_pa_return"`
		NetNAV1        *float64 `json:"net_nav1"`
	}{
		alias:          alias(s),
		NumYears:       jsonNum(s.NumYears),
		StartPrice:     jsonNum(s.StartPrice),
		EndPrice:       jsonNum(s.EndPrice),
		TotalReturn:    jsonNum(s.TotalReturn),
		PAReturn:       jsonNum(s.PAReturn),
		PAExcessReturn: jsonNum(s.PAExcessReturn),
		AnLogReturn:    jsonNum(s.AnLogReturn),
		AvgAnReturn:    jsonNum(s.AvgAnReturn),
		NAV1:           jsonNum(s.NAV1),
		Vol:            jsonNum(s.Vol),
		NetTotalReturn: jsonNum(s.NetTotalReturn),
		NetPAReturn:    jsonNum(s.NetPAReturn),
		NetNAV1:        jsonNum(s.NetNAV1),
	})
}

// MarshalJSON encodes undefined statistics as null instead of failing
func (p PortfolioSummary) MarshalJSON() ([]byte, error) {
	type alias PortfolioSummary
	return json.Marshal(&struct {
		alias
		TotalReturn *float64 `json:"total_return"`
		PAReturn    *float64 `json:"pa_return"`
		Vol         *float64 `json:"vol"`
		NAV1        *float64 `json:"nav1"`
	}{
		alias:       alias(p),
		TotalReturn: jsonNum(p.TotalReturn),
		PAReturn:    jsonNum(p.PAReturn),
		Vol:         jsonNum(p.Vol),
		NAV1:        jsonNum(p.NAV1),
	})
}

// NAVPoint is one observation on a reconstructed NAV path
type NAVPoint struct {
	Date  string  `json:"date"`
	Gross float64 `json:"gross"`
	Net   float64 `json:"net"`
}

// MarshalJSON encodes undefined observations as null instead of failing
func (p NAVPoint) MarshalJSON() ([]byte, error) {
	type alias NAVPoint
	return json.Marshal(&struct {
		alias
		Gross *float64 `json:"gross"`
		Net   *float64 `json:"net"`
	}{
		alias: alias(p),
		Gross: jsonNum(p.Gross),
		Net:   jsonNum(p.Net),
	})
}

// NAVTrack holds the gross and net-of-fees NAV paths for a symbol, both
// rebased to 1.0 at the first observation.
type NAVTrack struct {
	Symbol    string     `json:"symbol"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	Points    []NAVPoint `json:"points"`
}
