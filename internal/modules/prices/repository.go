// Package prices provides storage and retrieval of daily close prices
// and funding rates.
package prices

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sharavsambuu/quantstats/internal/database"
	"github.com/sharavsambuu/quantstats/internal/timeseries"
)

// Repository provides access to the prices database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new prices repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "prices_repo").Logger(),
	}
}

// UpsertDailyPrices stores daily close prices for a symbol.
// Existing rows for the same (symbol, date) are replaced.
func (r *Repository) UpsertDailyPrices(symbol string, prices []DailyPrice) error {
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}

	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO daily_prices (symbol, date, close)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, p := range prices {
			t, err := time.ParseInLocation("2006-01-02", p.Date, time.UTC)
			if err != nil {
				return fmt.Errorf("invalid date %q for %s: %w", p.Date, symbol, err)
			}
			if _, err := stmt.Exec(symbol, t.Unix(), p.Close); err != nil {
				return fmt.Errorf("failed to upsert price for %s: %w", symbol, err)
			}
		}
		return nil
	})
}

// GetDailyCloses fetches the full daily close history for a symbol,
// ordered by date ascending, as a time series.
func (r *Repository) GetDailyCloses(symbol string) (*timeseries.Series, error) {
	query := `
		SELECT date, close
		FROM daily_prices
		WHERE symbol = ?
		ORDER BY date ASC
	`

	rows, err := r.db.Query(query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily closes: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	var values []float64
	for rows.Next() {
		var dateUnix int64
		var closePrice float64
		if err := rows.Scan(&dateUnix, &closePrice); err != nil {
			return nil, fmt.Errorf("failed to scan daily close: %w", err)
		}
		dates = append(dates, time.Unix(dateUnix, 0).UTC())
		values = append(values, closePrice)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily closes: %w", err)
	}

	return timeseries.NewSeries(symbol, dates, values)
}

// GetCloseTable fetches daily close histories for several symbols, aligned
// on the union of their dates. Symbols without any rows produce an error.
func (r *Repository) GetCloseTable(symbols []string) (*timeseries.Table, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}

	series := make([]*timeseries.Series, 0, len(symbols))
	for _, symbol := range symbols {
		s, err := r.GetDailyCloses(symbol)
		if err != nil {
			return nil, err
		}
		if s.IsEmpty() {
			return nil, fmt.Errorf("no price history for symbol %s", symbol)
		}
		series = append(series, s)
	}

	return timeseries.FromSeries(series...)
}

// Symbols returns all distinct symbols with price history
func (r *Repository) Symbols() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT symbol FROM daily_prices ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}

	return symbols, nil
}

// PriceCount returns the number of stored price rows for a symbol
func (r *Repository) PriceCount(symbol string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM daily_prices WHERE symbol = ?`, symbol).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count prices for %s: %w", symbol, err)
	}
	return count, nil
}

// UpsertFundingRates stores annualized funding rates under a named curve
func (r *Repository) UpsertFundingRates(name string, rates []FundingRate) error {
	if name == "" {
		return fmt.Errorf("rate curve name is required")
	}

	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO funding_rates (name, date, rate)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, fr := range rates {
			t, err := time.ParseInLocation("2006-01-02", fr.Date, time.UTC)
			if err != nil {
				return fmt.Errorf("invalid date %q for rate curve %s: %w", fr.Date, name, err)
			}
			if _, err := stmt.Exec(name, t.Unix(), fr.Rate); err != nil {
				return fmt.Errorf("failed to upsert rate for %s: %w", name, err)
			}
		}
		return nil
	})
}

// GetFundingRates fetches a named funding rate curve as a time series,
// ordered by date ascending. Returns an empty series if the curve is unknown.
func (r *Repository) GetFundingRates(name string) (*timeseries.Series, error) {
	query := `
		SELECT date, rate
		FROM funding_rates
		WHERE name = ?
		ORDER BY date ASC
	`

	rows, err := r.db.Query(query, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query funding rates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	var values []float64
	for rows.Next() {
		var dateUnix int64
		var rate float64
		if err := rows.Scan(&dateUnix, &rate); err != nil {
			return nil, fmt.Errorf("failed to scan funding rate: %w", err)
		}
		dates = append(dates, time.Unix(dateUnix, 0).UTC())
		values = append(values, rate)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating funding rates: %w", err)
	}

	return timeseries.NewSeries(name, dates, values)
}
