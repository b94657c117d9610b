package temporal

import (
	"time"
)

// Subfield names a calendar component extracted from a timestamp
type Subfield string

// Calendar subfields
const (
	Year    Subfield = "year"
	Quarter Subfield = "quarter"
	Month   Subfield = "month"
	Week    Subfield = "week"
	Day     Subfield = "day"
	Hour    Subfield = "hour"
	Minute  Subfield = "minute"
	Second  Subfield = "second"
	Zone    Subfield = "zone"
)

// FieldTable holds a timestamp column together with its calendar subfields.
// Which subfields exist is determined by the kind. A FieldTable is not
// modified after extraction.
type FieldTable struct {
	name       string
	kind       Kind
	timestamps []time.Time
	offsets    []int
	ints       map[Subfield][]int
	zones      []string
}

// ExtractFields decomposes a normalized series into its calendar subfields.
// Weeks are ISO-8601 week numbers; quarters run 1-4.
func ExtractFields(s *Series) *FieldTable {
	n := s.Len()
	table := &FieldTable{
		name:       s.Name,
		kind:       s.Kind,
		timestamps: make([]time.Time, n),
		ints:       make(map[Subfield][]int),
	}
	if s.Kind == KindZonedDateTime {
		table.offsets = append([]int(nil), s.Offsets...)
	}

	subfields := s.Kind.Subfields()
	for _, f := range subfields {
		if f == Zone {
			table.zones = make([]string, n)
			continue
		}
		table.ints[f] = make([]int, n)
	}

	for i, v := range s.Values {
		v = narrow(s.Kind, v)
		table.timestamps[i] = v
		for _, f := range subfields {
			if f == Zone {
				table.zones[i] = OffsetString(table.offsets[i])
				continue
			}
			table.ints[f][i] = subfieldValue(v, f)
		}
	}
	return table
}

func subfieldValue(t time.Time, f Subfield) int {
	switch f {
	case Year:
		return t.Year()
	case Quarter:
		return (int(t.Month())-1)/3 + 1
	case Month:
		return int(t.Month())
	case Week:
		_, w := t.ISOWeek()
		return w
	case Day:
		return t.Day()
	case Hour:
		return t.Hour()
	case Minute:
		return t.Minute()
	case Second:
		return t.Second()
	case Zone:
		return 0
	}
	return 0
}

// Name returns the name of the timestamp column
func (ft *FieldTable) Name() string {
	return ft.name
}

// Kind returns the kind of the timestamp column
func (ft *FieldTable) Kind() Kind {
	return ft.kind
}

// Len returns the number of rows
func (ft *FieldTable) Len() int {
	return len(ft.timestamps)
}

// Timestamps returns a copy of the narrowed wall-clock timestamp column
func (ft *FieldTable) Timestamps() []time.Time {
	return append([]time.Time(nil), ft.timestamps...)
}

// Offsets returns a copy of the per-row offsets, nil unless the kind is zoned
func (ft *FieldTable) Offsets() []int {
	if ft.offsets == nil {
		return nil
	}
	return append([]int(nil), ft.offsets...)
}

// Subfields returns the subfields present in the table, in output order
func (ft *FieldTable) Subfields() []Subfield {
	return ft.kind.Subfields()
}

// Has reports whether the table contains the subfield
func (ft *FieldTable) Has(f Subfield) bool {
	if f == Zone {
		return ft.zones != nil
	}
	_, ok := ft.ints[f]
	return ok
}

// Ints returns a copy of a numeric subfield column
func (ft *FieldTable) Ints(f Subfield) ([]int, bool) {
	col, ok := ft.ints[f]
	if !ok {
		return nil, false
	}
	return append([]int(nil), col...), true
}

// Zones returns the zone subfield as offset strings, nil unless the kind is zoned
func (ft *FieldTable) Zones() []string {
	if ft.zones == nil {
		return nil
	}
	return append([]string(nil), ft.zones...)
}
