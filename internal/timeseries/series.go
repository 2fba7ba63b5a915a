// Package timeseries provides date-indexed series and table value types used by
// the performance statistics core. Dates are day-granular (midnight UTC),
// strictly increasing and unique; missing observations are NaN.
package timeseries

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Day truncates a timestamp to day granularity (midnight UTC).
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ElapsedDays returns the number of calendar days between two dates.
func ElapsedDays(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)) / (24 * time.Hour))
}

// Series is a single named time series. Dates and Values always have equal
// length; Dates are strictly increasing after construction.
type Series struct {
	Name   string
	Dates  []time.Time
	Values []float64
}

// NewSeries builds a series from parallel date/value slices. Input is copied,
// sorted by date and deduplicated (first occurrence wins).
func NewSeries(name string, dates []time.Time, values []float64) (*Series, error) {
	if len(dates) != len(values) {
		return nil, fmt.Errorf("series %q: %d dates but %d values", name, len(dates), len(values))
	}

	type obs struct {
		date  time.Time
		value float64
		order int
	}
	rows := make([]obs, len(dates))
	for i := range dates {
		rows[i] = obs{date: Day(dates[i]), value: values[i], order: i}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].date.Equal(rows[j].date) {
			return rows[i].order < rows[j].order
		}
		return rows[i].date.Before(rows[j].date)
	})

	s := &Series{Name: name}
	for _, r := range rows {
		n := len(s.Dates)
		if n > 0 && s.Dates[n-1].Equal(r.date) {
			continue // keep first occurrence
		}
		s.Dates = append(s.Dates, r.date)
		s.Values = append(s.Values, r.value)
	}
	return s, nil
}

// MustSeries is NewSeries for static inputs known to be valid.
func MustSeries(name string, dates []time.Time, values []float64) *Series {
	s, err := NewSeries(name, dates, values)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of observations.
func (s *Series) Len() int { return len(s.Dates) }

// IsEmpty reports whether the series has no observations.
func (s *Series) IsEmpty() bool { return s == nil || len(s.Dates) == 0 }

// Clone returns a deep copy.
func (s *Series) Clone() *Series {
	out := &Series{Name: s.Name}
	out.Dates = append([]time.Time(nil), s.Dates...)
	out.Values = append([]float64(nil), s.Values...)
	return out
}

// FirstValid returns the index and value of the first non-NaN observation.
func (s *Series) FirstValid() (int, float64, bool) {
	for i, v := range s.Values {
		if !math.IsNaN(v) {
			return i, v, true
		}
	}
	return -1, math.NaN(), false
}

// LastValid returns the index and value of the last non-NaN observation.
func (s *Series) LastValid() (int, float64, bool) {
	for i := len(s.Values) - 1; i >= 0; i-- {
		if !math.IsNaN(s.Values[i]) {
			return i, s.Values[i], true
		}
	}
	return -1, math.NaN(), false
}

// Ffill returns a copy with NaN values replaced by the most recent prior
// observation. Leading NaNs are preserved.
func (s *Series) Ffill() *Series {
	out := s.Clone()
	last := math.NaN()
	for i, v := range out.Values {
		if math.IsNaN(v) {
			out.Values[i] = last
		} else {
			last = v
		}
	}
	return out
}

// ReplaceInf returns a copy with +Inf and -Inf values replaced by NaN.
func (s *Series) ReplaceInf() *Series {
	out := s.Clone()
	for i, v := range out.Values {
		if math.IsInf(v, 0) {
			out.Values[i] = math.NaN()
		}
	}
	return out
}

// Table returns a single-column table view of the series (copied).
func (s *Series) Table() *Table {
	rows := make([][]float64, len(s.Values))
	for i, v := range s.Values {
		rows[i] = []float64{v}
	}
	return &Table{
		Columns: []string{s.Name},
		Dates:   append([]time.Time(nil), s.Dates...),
		Values:  rows,
	}
}

// At returns the value at-or-before the given date, NaN if none exists.
func (s *Series) At(date time.Time) float64 {
	d := Day(date)
	idx := sort.Search(len(s.Dates), func(i int) bool { return s.Dates[i].After(d) })
	if idx == 0 {
		return math.NaN()
	}
	return s.Values[idx-1]
}
