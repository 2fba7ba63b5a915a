package prices

// DailyPrice represents a daily close price point
type DailyPrice struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Close float64 `json:"close"`
}

// FundingRate represents an annualized funding rate observation
type FundingRate struct {
	Date string  `json:"date"` // YYYY-MM-DD
	Rate float64 `json:"rate"`
}
