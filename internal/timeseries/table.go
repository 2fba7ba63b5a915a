package timeseries

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Table is a multi-column time series sharing one date index.
// Values is row-major: Values[i][j] holds Columns[j] at Dates[i].
type Table struct {
	Columns []string
	Dates   []time.Time
	Values  [][]float64
}

// NewTable builds a table from a column list, a date index and row-major
// values. Input is copied, sorted by date and deduplicated (first occurrence
// wins).
func NewTable(columns []string, dates []time.Time, values [][]float64) (*Table, error) {
	if len(dates) != len(values) {
		return nil, fmt.Errorf("table: %d dates but %d rows", len(dates), len(values))
	}
	for i, row := range values {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("table: row %d has %d values for %d columns", i, len(row), len(columns))
		}
	}

	type obs struct {
		date  time.Time
		row   []float64
		order int
	}
	rows := make([]obs, len(dates))
	for i := range dates {
		rows[i] = obs{date: Day(dates[i]), row: values[i], order: i}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].date.Equal(rows[j].date) {
			return rows[i].order < rows[j].order
		}
		return rows[i].date.Before(rows[j].date)
	})

	t := &Table{Columns: append([]string(nil), columns...)}
	for _, r := range rows {
		n := len(t.Dates)
		if n > 0 && t.Dates[n-1].Equal(r.date) {
			continue
		}
		t.Dates = append(t.Dates, r.date)
		t.Values = append(t.Values, append([]float64(nil), r.row...))
	}
	return t, nil
}

// FromSeries aligns several series onto the union of their dates, filling
// non-overlapping rows with NaN.
func FromSeries(series ...*Series) (*Table, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("table: no series given")
	}
	dateSet := map[time.Time]struct{}{}
	for _, s := range series {
		if s == nil {
			return nil, fmt.Errorf("table: nil series")
		}
		for _, d := range s.Dates {
			dateSet[d] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	columns := make([]string, len(series))
	rows := make([][]float64, len(dates))
	for i := range rows {
		rows[i] = make([]float64, len(series))
		for j := range rows[i] {
			rows[i][j] = math.NaN()
		}
	}
	for j, s := range series {
		columns[j] = s.Name
		k := 0
		for i, d := range dates {
			for k < len(s.Dates) && s.Dates[k].Before(d) {
				k++
			}
			if k < len(s.Dates) && s.Dates[k].Equal(d) {
				rows[i][j] = s.Values[k]
			}
		}
	}
	return &Table{Columns: columns, Dates: dates, Values: rows}, nil
}

// NumRows returns the number of dates.
func (t *Table) NumRows() int { return len(t.Dates) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.Columns) }

// IsEmpty reports whether the table has no rows.
func (t *Table) IsEmpty() bool { return t == nil || len(t.Dates) == 0 }

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Dates:   append([]time.Time(nil), t.Dates...),
		Values:  make([][]float64, len(t.Values)),
	}
	for i, row := range t.Values {
		out.Values[i] = append([]float64(nil), row...)
	}
	return out
}

// Column returns a copy of column j as a series.
func (t *Table) Column(j int) *Series {
	values := make([]float64, len(t.Values))
	for i := range t.Values {
		values[i] = t.Values[i][j]
	}
	return &Series{
		Name:   t.Columns[j],
		Dates:  append([]time.Time(nil), t.Dates...),
		Values: values,
	}
}

// ColumnByName returns the column with the given name, if present.
func (t *Table) ColumnByName(name string) (*Series, bool) {
	for j, c := range t.Columns {
		if c == name {
			return t.Column(j), true
		}
	}
	return nil, false
}

// DropColumn returns a copy of the table without the named column.
func (t *Table) DropColumn(name string) *Table {
	out := &Table{Dates: append([]time.Time(nil), t.Dates...)}
	keep := make([]int, 0, len(t.Columns))
	for j, c := range t.Columns {
		if c != name {
			keep = append(keep, j)
			out.Columns = append(out.Columns, c)
		}
	}
	out.Values = make([][]float64, len(t.Values))
	for i, row := range t.Values {
		r := make([]float64, len(keep))
		for k, j := range keep {
			r[k] = row[j]
		}
		out.Values[i] = r
	}
	return out
}

// Shift returns a copy with values moved forward by lag rows; vacated leading
// rows become NaN. Negative or zero lag returns an unshifted copy.
func (t *Table) Shift(lag int) *Table {
	out := t.Clone()
	if lag <= 0 {
		return out
	}
	for i := len(out.Values) - 1; i >= 0; i-- {
		for j := range out.Values[i] {
			if i-lag >= 0 {
				out.Values[i][j] = t.Values[i-lag][j]
			} else {
				out.Values[i][j] = math.NaN()
			}
		}
	}
	return out
}

// Ffill returns a copy with each column forward-filled independently.
func (t *Table) Ffill() *Table {
	out := t.Clone()
	for j := 0; j < len(out.Columns); j++ {
		last := math.NaN()
		for i := range out.Values {
			if math.IsNaN(out.Values[i][j]) {
				out.Values[i][j] = last
			} else {
				last = out.Values[i][j]
			}
		}
	}
	return out
}

// ReplaceInf returns a copy with +Inf and -Inf values replaced by NaN.
func (t *Table) ReplaceInf() *Table {
	out := t.Clone()
	for i := range out.Values {
		for j, v := range out.Values[i] {
			if math.IsInf(v, 0) {
				out.Values[i][j] = math.NaN()
			}
		}
	}
	return out
}

// FirstValidValues returns, per column, the first non-NaN value (NaN if the
// column is entirely missing).
func (t *Table) FirstValidValues() []float64 {
	out := make([]float64, len(t.Columns))
	for j := range t.Columns {
		out[j] = math.NaN()
		for i := range t.Values {
			if !math.IsNaN(t.Values[i][j]) {
				out[j] = t.Values[i][j]
				break
			}
		}
	}
	return out
}

// LastValidValues returns, per column, the last non-NaN value.
func (t *Table) LastValidValues() []float64 {
	out := make([]float64, len(t.Columns))
	for j := range t.Columns {
		out[j] = math.NaN()
		for i := len(t.Values) - 1; i >= 0; i-- {
			if !math.IsNaN(t.Values[i][j]) {
				out[j] = t.Values[i][j]
				break
			}
		}
	}
	return out
}

// FirstValidIndexes returns, per column, the row index of the first non-NaN
// value (-1 if the column is entirely missing).
func (t *Table) FirstValidIndexes() []int {
	out := make([]int, len(t.Columns))
	for j := range t.Columns {
		out[j] = -1
		for i := range t.Values {
			if !math.IsNaN(t.Values[i][j]) {
				out[j] = i
				break
			}
		}
	}
	return out
}
