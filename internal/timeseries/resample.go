package timeseries

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Frequency identifies a calendar sampling grid.
type Frequency string

const (
	// FreqNone leaves the native observation grid untouched.
	FreqNone Frequency = ""
	// FreqDaily samples every calendar day.
	FreqDaily Frequency = "D"
	// FreqBusinessDaily samples Monday through Friday.
	FreqBusinessDaily Frequency = "B"
	// FreqWeekly samples week ends (Sundays).
	FreqWeekly Frequency = "W"
	// FreqMonthly samples the last calendar day of each month.
	FreqMonthly Frequency = "M"
	// FreqQuarterly samples the last calendar day of each quarter.
	FreqQuarterly Frequency = "Q"
	// FreqAnnual samples the last calendar day of each year.
	FreqAnnual Frequency = "A"
)

// GenerateSchedule returns the period-end dates of the given frequency inside
// [start, end]. With includeStart/includeEnd the exact boundary dates are
// force-included even when they do not fall on the grid.
func GenerateSchedule(start, end time.Time, freq Frequency, includeStart, includeEnd bool) ([]time.Time, error) {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("schedule: end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	var dates []time.Time
	switch freq {
	case FreqDaily:
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			dates = append(dates, d)
		}
	case FreqBusinessDaily:
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
				dates = append(dates, d)
			}
		}
	case FreqWeekly:
		// First Sunday at or after start.
		d := start.AddDate(0, 0, (7-int(start.Weekday()))%7)
		for ; !d.After(end); d = d.AddDate(0, 0, 7) {
			dates = append(dates, d)
		}
	case FreqMonthly:
		for d := monthEnd(start); !d.After(end); d = monthEnd(d.AddDate(0, 0, 1)) {
			if !d.Before(start) {
				dates = append(dates, d)
			}
		}
	case FreqQuarterly:
		for d := monthEnd(start); !d.After(end); d = monthEnd(d.AddDate(0, 0, 1)) {
			if !d.Before(start) && d.Month()%3 == 0 {
				dates = append(dates, d)
			}
		}
	case FreqAnnual:
		for y := start.Year(); y <= end.Year(); y++ {
			d := time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC)
			if !d.Before(start) && !d.After(end) {
				dates = append(dates, d)
			}
		}
	default:
		return nil, fmt.Errorf("schedule: unsupported frequency %q", string(freq))
	}

	if includeStart && (len(dates) == 0 || !dates[0].Equal(start)) {
		dates = append([]time.Time{start}, dates...)
	}
	if includeEnd && (len(dates) == 0 || !dates[len(dates)-1].Equal(end)) {
		dates = append(dates, end)
	}
	return dates, nil
}

func monthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
}

// ResampleOptions controls grid alignment.
type ResampleOptions struct {
	IncludeStart bool // force-include the first observation date
	IncludeEnd   bool // force-include the last observation date
	Ffill        bool // carry the last observation forward onto grid points
}

// Resample aligns the table onto the requested frequency. With Ffill each grid
// point takes the most recent at-or-before observation; without it only exact
// matches survive and every other grid point is NaN. Grid points before the
// first observation are NaN.
func (t *Table) Resample(freq Frequency, opts ResampleOptions) (*Table, error) {
	if freq == FreqNone || t.IsEmpty() {
		if opts.Ffill {
			return t.Ffill(), nil
		}
		return t.Clone(), nil
	}

	first, last := t.Dates[0], t.Dates[len(t.Dates)-1]
	grid, err := GenerateSchedule(first, last, freq, opts.IncludeStart, opts.IncludeEnd)
	if err != nil {
		return nil, err
	}

	src := t
	if opts.Ffill {
		src = t.Ffill()
	}

	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Dates:   grid,
		Values:  make([][]float64, len(grid)),
	}
	for i, d := range grid {
		row := make([]float64, len(t.Columns))
		k := sort.Search(len(src.Dates), func(n int) bool { return src.Dates[n].After(d) }) - 1
		for j := range row {
			switch {
			case k < 0:
				row[j] = math.NaN()
			case opts.Ffill || src.Dates[k].Equal(d):
				row[j] = src.Values[k][j]
			default:
				row[j] = math.NaN()
			}
		}
		out.Values[i] = row
	}
	return out, nil
}

// Resample is the series form of Table.Resample.
func (s *Series) Resample(freq Frequency, opts ResampleOptions) (*Series, error) {
	t, err := s.Table().Resample(freq, opts)
	if err != nil {
		return nil, err
	}
	return t.Column(0), nil
}

// Bucket is one calendar partition produced by SplitByFrequency.
type Bucket struct {
	Key   string
	Table *Table
}

// SplitByFrequency partitions the table rows into non-overlapping calendar
// buckets of the given frequency, in chronological order.
func (t *Table) SplitByFrequency(freq Frequency) ([]Bucket, error) {
	if freq == FreqNone {
		return []Bucket{{Key: "all", Table: t.Clone()}}, nil
	}
	var buckets []Bucket
	index := map[string]int{}
	for i, d := range t.Dates {
		key, err := periodKey(d, freq)
		if err != nil {
			return nil, err
		}
		bi, ok := index[key]
		if !ok {
			bi = len(buckets)
			index[key] = bi
			buckets = append(buckets, Bucket{
				Key:   key,
				Table: &Table{Columns: append([]string(nil), t.Columns...)},
			})
		}
		buckets[bi].Table.Dates = append(buckets[bi].Table.Dates, d)
		buckets[bi].Table.Values = append(buckets[bi].Table.Values, append([]float64(nil), t.Values[i]...))
	}
	return buckets, nil
}

func periodKey(d time.Time, freq Frequency) (string, error) {
	switch freq {
	case FreqDaily, FreqBusinessDaily:
		return d.Format("2006-01-02"), nil
	case FreqWeekly:
		y, w := d.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w), nil
	case FreqMonthly:
		return d.Format("2006-01"), nil
	case FreqQuarterly:
		return fmt.Sprintf("%d-Q%d", d.Year(), (int(d.Month())+2)/3), nil
	case FreqAnnual:
		return fmt.Sprintf("%d", d.Year()), nil
	default:
		return "", fmt.Errorf("split: unsupported frequency %q", string(freq))
	}
}
