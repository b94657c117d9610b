package temporal

import (
	"fmt"
	"slices"
	"strings"
	"time"

	tserrors "github.com/paveg/tsprep/internal/errors"
)

// Period is the step of a regenerated timestamp sequence
type Period int

// Alignment periods
const (
	PeriodYear Period = iota
	PeriodMonth
	PeriodWeek
	PeriodDay
	PeriodHour
	PeriodMinute
	PeriodSecond
)

// Periods lists every period from longest to shortest
var Periods = []Period{PeriodYear, PeriodMonth, PeriodWeek, PeriodDay, PeriodHour, PeriodMinute, PeriodSecond}

// ParsePeriod parses a period name such as "HOUR", case-insensitively
func ParsePeriod(s string) (Period, error) {
	for _, p := range Periods {
		if strings.EqualFold(s, p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown period %q", s)
}

// String returns the period name
func (p Period) String() string {
	switch p {
	case PeriodYear:
		return "YEAR"
	case PeriodMonth:
		return "MONTH"
	case PeriodWeek:
		return "WEEK"
	case PeriodDay:
		return "DAY"
	case PeriodHour:
		return "HOUR"
	case PeriodMinute:
		return "MINUTE"
	case PeriodSecond:
		return "SECOND"
	}
	return fmt.Sprintf("Period(%d)", int(p))
}

// Frequency returns the frequency alias of the period (1Y, 1M, 1W, 1D, 1H, 1Min, 1S)
func (p Period) Frequency() string {
	switch p {
	case PeriodYear:
		return "1Y"
	case PeriodMonth:
		return "1M"
	case PeriodWeek:
		return "1W"
	case PeriodDay:
		return "1D"
	case PeriodHour:
		return "1H"
	case PeriodMinute:
		return "1Min"
	case PeriodSecond:
		return "1S"
	}
	return ""
}

// Granularity returns the granularity paired with the period
func (p Period) Granularity() Granularity {
	switch p {
	case PeriodYear:
		return GranularityYear
	case PeriodMonth:
		return GranularityMonth
	case PeriodWeek:
		return GranularityWeek
	case PeriodDay:
		return GranularityDay
	case PeriodHour:
		return GranularityHour
	case PeriodMinute:
		return GranularityMinute
	case PeriodSecond:
		return GranularitySecond
	}
	return GranularitySecond
}

// Step returns start advanced by n periods. Month and year steps are
// anchored at start and clamped to the end of the target month.
func (p Period) Step(start time.Time, n int) time.Time {
	switch p {
	case PeriodYear:
		return addMonthsClamped(start, 12*n)
	case PeriodMonth:
		return addMonthsClamped(start, n)
	case PeriodWeek:
		return start.AddDate(0, 0, 7*n)
	case PeriodDay:
		return start.AddDate(0, 0, n)
	case PeriodHour:
		return start.Add(time.Duration(n) * time.Hour)
	case PeriodMinute:
		return start.Add(time.Duration(n) * time.Minute)
	case PeriodSecond:
		return start.Add(time.Duration(n) * time.Second)
	}
	return start
}

func addMonthsClamped(t time.Time, months int) time.Time {
	total := int(t.Month()) - 1 + months
	year := t.Year() + floorDiv(total, 12)
	month := time.Month(total - 12*floorDiv(total, 12) + 1)

	day := t.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidatePeriod fails with a configuration error when the kind has no
// subfield for the period, for example HOUR on a date column.
func ValidatePeriod(op, column string, kind Kind, p Period) error {
	if !kind.HasSubfield(p.Granularity().Subfield()) {
		return tserrors.NewValidationError(op, column,
			fmt.Sprintf("period %s is not available for %s columns", p, kind))
	}
	return nil
}

// GapFilledMapping relates every row of an aligned output to its source.
// Row i of the output holds Timestamps[i] and comes from source row
// Source[i], or is an inserted row when Source[i] is -1.
type GapFilledMapping struct {
	Kind       Kind
	Timestamps []time.Time
	Source     []int
	// Offset is the column-wide offset of zoned columns
	Offset int
	// Inserted counts the rows added for missing timestamps
	Inserted int
}

// Len returns the number of output rows
func (m *GapFilledMapping) Len() int {
	return len(m.Timestamps)
}

// Format writes the timestamp of output row i in the layout of the kind
func (m *GapFilledMapping) Format(i int) string {
	return FormatValue(m.Kind, m.Timestamps[i], m.Offset)
}

// Aligner regenerates complete timestamp sequences
type Aligner struct {
	maxRows int
}

// NewAligner creates an aligner refusing to generate sequences longer than maxRows.
// A non-positive maxRows disables the limit.
func NewAligner(maxRows int) *Aligner {
	return &Aligner{maxRows: maxRows}
}

// Align computes the gap-filled mapping of s at the period:
//  1. the sequence runs from the minimum to the maximum value, stepping one
//     period from the minimum and including the maximum when it lies on the grid,
//  2. sequence values absent from s are appended after the original rows,
//  3. the rows are stably sorted by timestamp so duplicates keep source order.
//
// Zoned columns must share a single offset.
func (a *Aligner) Align(s *Series, p Period) (*GapFilledMapping, error) {
	if err := ValidatePeriod("align", s.Name, s.Kind, p); err != nil {
		return nil, err
	}

	mapping := &GapFilledMapping{Kind: s.Kind}
	if s.Kind == KindZonedDateTime && len(s.Offsets) > 0 {
		mapping.Offset = s.Offsets[0]
		for _, off := range s.Offsets[1:] {
			if off != mapping.Offset {
				return nil, tserrors.NewExecutionError("align", s.Name, "multiple zones not supported", nil)
			}
		}
	}

	n := s.Len()
	if n == 0 {
		return mapping, nil
	}

	values := make([]time.Time, n)
	for i, v := range s.Values {
		values[i] = narrow(s.Kind, v)
	}
	start := slices.MinFunc(values, time.Time.Compare)
	end := slices.MaxFunc(values, time.Time.Compare)

	present := make(map[int64]struct{}, n)
	for _, v := range values {
		present[v.UnixNano()] = struct{}{}
	}

	var missing []time.Time
	generated := 0
	for i := 0; ; i++ {
		t := p.Step(start, i)
		if t.After(end) {
			break
		}
		generated++
		if a.maxRows > 0 && generated > a.maxRows {
			return nil, tserrors.NewExecutionError("align", s.Name,
				fmt.Sprintf("sequence from %s to %s at %s exceeds %d rows",
					FormatValue(s.Kind, start, mapping.Offset), FormatValue(s.Kind, end, mapping.Offset),
					p.Frequency(), a.maxRows), nil)
		}
		if _, ok := present[t.UnixNano()]; !ok {
			missing = append(missing, t)
		}
	}

	total := n + len(missing)
	timestamps := append(values, missing...)
	source := make([]int, total)
	for i := range source {
		if i < n {
			source[i] = i
		} else {
			source[i] = -1
		}
	}

	order := make([]int, total)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(x, y int) int {
		return timestamps[x].Compare(timestamps[y])
	})

	mapping.Timestamps = make([]time.Time, total)
	mapping.Source = make([]int, total)
	for i, idx := range order {
		mapping.Timestamps[i] = timestamps[idx]
		mapping.Source[i] = source[idx]
	}
	mapping.Inserted = len(missing)
	return mapping, nil
}
