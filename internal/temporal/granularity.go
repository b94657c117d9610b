package temporal

import (
	"fmt"
	"strings"
	"time"

	tserrors "github.com/paveg/tsprep/internal/errors"
)

// Granularity is a temporal resolution. Lower values are coarser.
type Granularity int

// Granularities from coarsest to finest
const (
	GranularityYear Granularity = iota
	GranularityQuarter
	GranularityMonth
	GranularityWeek
	GranularityDay
	GranularityHour
	GranularityMinute
	GranularitySecond
)

// Granularities lists every granularity from coarsest to finest
var Granularities = []Granularity{
	GranularityYear, GranularityQuarter, GranularityMonth, GranularityWeek,
	GranularityDay, GranularityHour, GranularityMinute, GranularitySecond,
}

// ParseGranularity parses a granularity name such as "DAY", case-insensitively
func ParseGranularity(s string) (Granularity, error) {
	for _, g := range Granularities {
		if strings.EqualFold(s, g.String()) {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown granularity %q", s)
}

// String returns the granularity name
func (g Granularity) String() string {
	switch g {
	case GranularityYear:
		return "YEAR"
	case GranularityQuarter:
		return "QUARTER"
	case GranularityMonth:
		return "MONTH"
	case GranularityWeek:
		return "WEEK"
	case GranularityDay:
		return "DAY"
	case GranularityHour:
		return "HOUR"
	case GranularityMinute:
		return "MINUTE"
	case GranularitySecond:
		return "SECOND"
	}
	return fmt.Sprintf("Granularity(%d)", int(g))
}

// Subfield returns the calendar subfield the granularity is resolved by
func (g Granularity) Subfield() Subfield {
	switch g {
	case GranularityYear:
		return Year
	case GranularityQuarter:
		return Quarter
	case GranularityMonth:
		return Month
	case GranularityWeek:
		return Week
	case GranularityDay:
		return Day
	case GranularityHour:
		return Hour
	case GranularityMinute:
		return Minute
	case GranularitySecond:
		return Second
	}
	return ""
}

// CoarserThan reports whether g is a coarser resolution than other
func (g Granularity) CoarserThan(other Granularity) bool {
	return g < other
}

// CollapsesToYear reports whether reduction replaces the timestamp with its
// year. The period within the year is then identified by the subfield.
func (g Granularity) CollapsesToYear() bool {
	return g.CoarserThan(GranularityDay)
}

// SubDay reports whether the granularity is finer than a day
func (g Granularity) SubDay() bool {
	return GranularityDay.CoarserThan(g)
}

// ValidateGranularity fails with a configuration error when the kind has no
// subfield for the granularity, for example SECOND on a date column.
func ValidateGranularity(op, column string, kind Kind, g Granularity) error {
	if !kind.HasSubfield(g.Subfield()) {
		return tserrors.NewValidationError(op, column,
			fmt.Sprintf("granularity %s is not available for %s columns", g, kind))
	}
	return nil
}

// Floor rounds a wall-clock value down to the granularity. Year to week
// granularities leave the value unchanged since they reduce to the year.
func Floor(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityYear, GranularityQuarter, GranularityMonth, GranularityWeek:
		return t
	case GranularityDay:
		return AsDate(t)
	case GranularityHour:
		return t.Truncate(time.Hour)
	case GranularityMinute:
		return t.Truncate(time.Minute)
	case GranularitySecond:
		return t.Truncate(time.Second)
	}
	return t
}

// ReducedTable is a FieldTable whose timestamp column has been reduced to a
// granularity.
type ReducedTable struct {
	table       *FieldTable
	granularity Granularity
	years       []int
	values      []time.Time
}

// Reduce rewrites the timestamp column of the table to the granularity:
//   - YEAR, QUARTER, MONTH and WEEK replace it with the integer year,
//   - DAY narrows it to a date,
//   - HOUR, MINUTE and SECOND floor it, keeping time columns as time of day.
//
// Zoned columns keep their offsets; they are reattached by Zoned for sub-day
// granularities.
func Reduce(table *FieldTable, g Granularity) (*ReducedTable, error) {
	if !table.Has(g.Subfield()) {
		return nil, ValidateGranularity("reduce", table.Name(), table.Kind(), g)
	}

	r := &ReducedTable{table: table, granularity: g}
	if g.CollapsesToYear() {
		r.years, _ = table.Ints(Year)
		return r, nil
	}

	r.values = make([]time.Time, table.Len())
	for i, t := range table.timestamps {
		r.values[i] = Floor(t, g)
	}
	return r, nil
}

// Granularity returns the granularity the table was reduced to
func (r *ReducedTable) Granularity() Granularity {
	return r.granularity
}

// Table returns the field table the reduction was computed from
func (r *ReducedTable) Table() *FieldTable {
	return r.table
}

// Len returns the number of rows
func (r *ReducedTable) Len() int {
	return r.table.Len()
}

// Kind returns the kind of the reduced timestamp column: DATE for DAY, the
// source kind for sub-day granularities. The boolean is false for reductions
// to a year.
func (r *ReducedTable) Kind() (Kind, bool) {
	switch {
	case r.granularity.CollapsesToYear():
		return 0, false
	case r.granularity == GranularityDay:
		return KindDate, true
	default:
		return r.table.Kind(), true
	}
}

// Years returns the reduced year column, nil unless the granularity collapses to a year
func (r *ReducedTable) Years() []int {
	if r.years == nil {
		return nil
	}
	return append([]int(nil), r.years...)
}

// Values returns the reduced wall-clock column, nil when it collapsed to a year
func (r *ReducedTable) Values() []time.Time {
	if r.values == nil {
		return nil
	}
	return append([]time.Time(nil), r.values...)
}

// Zoned returns the reduced values with offsets reattached. Offsets are only
// reattached for zoned columns at sub-day granularities.
func (r *ReducedTable) Zoned() []time.Time {
	if r.values == nil {
		return nil
	}
	if r.table.Kind() == KindZonedDateTime && r.granularity.SubDay() {
		return AttachAll(r.values, r.table.offsets)
	}
	return r.Values()
}

// Keys returns the raw subfield at the reduced granularity, the secondary
// grouping key that separates periods sharing a year.
func (r *ReducedTable) Keys() []int {
	keys, _ := r.table.Ints(r.granularity.Subfield())
	return keys
}

// Series returns the reduced column as a normalized series so it can be
// extracted and reduced again. The boolean is false for reductions to a year.
func (r *ReducedTable) Series() (*Series, bool) {
	kind, ok := r.Kind()
	if !ok {
		return nil, false
	}
	s := &Series{Name: r.table.Name(), Kind: kind, Values: r.Values()}
	if kind == KindZonedDateTime {
		s.Offsets = r.table.Offsets()
	}
	return s, true
}
