// Package temporal normalizes timestamp columns and reduces them to calendar
// granularities.
//
// A column is first classified into one of four kinds from the logical type
// descriptor the host attached to it. The Caster then parses the column into
// a Series of wall-clock values, the Field Extractor decomposes a Series into
// calendar subfields, the Granularity Reducer collapses the timestamp to a
// requested resolution and the Sequence Aligner regenerates a gap-free
// sequence at a fixed period.
//
// All values are held as time.Time in UTC representing the wall clock of the
// source value. Dates sit at midnight, times of day sit on 1970-01-01 and
// zoned values keep their offset in a parallel slice until it is reattached.
package temporal

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Kind is the logical kind of a timestamp column
type Kind int

const (
	// KindDate is a calendar date without time of day
	KindDate Kind = iota
	// KindTime is a time of day without date
	KindTime
	// KindDateTime is a local date and time without zone
	KindDateTime
	// KindZonedDateTime is a date and time with a per-row UTC offset
	KindZonedDateTime
)

// Logical type descriptors of the host value factories
const (
	ZonedDateTimeDescriptor = "org.knime.core.data.v2.time.ZonedDateTimeValueFactory2"
	TimeDescriptor          = "org.knime.core.data.v2.time.LocalTimeValueFactory"
	DateDescriptor          = "org.knime.core.data.v2.time.LocalDateValueFactory"
	DateTimeDescriptor      = "org.knime.core.data.v2.time.LocalDateTimeValueFactory"
)

// Kinds lists every kind in classification precedence order
var Kinds = []Kind{KindZonedDateTime, KindTime, KindDate, KindDateTime}

// Classify maps a logical type descriptor to its kind. The boolean is false
// when the descriptor names no timestamp type; that is not an error.
func Classify(descriptor string) (Kind, bool) {
	for _, k := range Kinds {
		if strings.Contains(descriptor, k.Descriptor()) {
			return k, true
		}
	}
	return 0, false
}

// IsTimestamp reports whether the descriptor names any of the four kinds
func IsTimestamp(descriptor string) bool {
	_, ok := Classify(descriptor)
	return ok
}

// KindForArrowType maps typed Arrow temporal columns to a kind, for sources
// such as Parquet that carry no host descriptor.
func KindForArrowType(dt arrow.DataType) (Kind, bool) {
	if dt == nil {
		return 0, false
	}
	switch t := dt.(type) {
	case *arrow.Date32Type, *arrow.Date64Type:
		return KindDate, true
	case *arrow.Time32Type, *arrow.Time64Type:
		return KindTime, true
	case *arrow.TimestampType:
		if t.TimeZone == "" {
			return KindDateTime, true
		}
		return KindZonedDateTime, true
	}
	return 0, false
}

// Descriptor returns the canonical logical type descriptor of the kind
func (k Kind) Descriptor() string {
	switch k {
	case KindDate:
		return DateDescriptor
	case KindTime:
		return TimeDescriptor
	case KindDateTime:
		return DateTimeDescriptor
	case KindZonedDateTime:
		return ZonedDateTimeDescriptor
	}
	return ""
}

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindDate:
		return "DATE"
	case KindTime:
		return "TIME"
	case KindDateTime:
		return "DATE_TIME"
	case KindZonedDateTime:
		return "ZONED_DATE_TIME"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// HasDate reports whether values of the kind carry a calendar date
func (k Kind) HasDate() bool {
	switch k {
	case KindDate, KindDateTime, KindZonedDateTime:
		return true
	case KindTime:
		return false
	}
	return false
}

// HasClock reports whether values of the kind carry a time of day
func (k Kind) HasClock() bool {
	switch k {
	case KindTime, KindDateTime, KindZonedDateTime:
		return true
	case KindDate:
		return false
	}
	return false
}

// Subfields returns the calendar subfields extracted for the kind, in output order
func (k Kind) Subfields() []Subfield {
	switch k {
	case KindDate:
		return []Subfield{Year, Quarter, Month, Week, Day}
	case KindTime:
		return []Subfield{Hour, Minute, Second}
	case KindDateTime:
		return []Subfield{Year, Quarter, Month, Week, Day, Hour, Minute, Second}
	case KindZonedDateTime:
		return []Subfield{Year, Quarter, Month, Week, Day, Hour, Minute, Second, Zone}
	}
	return nil
}

// HasSubfield reports whether the kind extracts the given subfield
func (k Kind) HasSubfield(f Subfield) bool {
	for _, s := range k.Subfields() {
		if s == f {
			return true
		}
	}
	return false
}
