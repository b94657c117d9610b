package temporal

import (
	"fmt"
	"strings"
	"time"
)

// Canonical layouts written for each kind. Fractional seconds are emitted only when present.
const (
	DateLayout          = "2006-01-02"
	TimeLayout          = "15:04:05.999999999"
	DateTimeLayout      = "2006-01-02 15:04:05.999999999"
	ZonedDateTimeLayout = "2006-01-02 15:04:05.999999999Z07:00"
)

// Accepted input layouts per kind. time.Parse accepts a fractional second
// after the seconds field even when the layout omits it.
var (
	dateLayouts     = []string{"2006-01-02"}
	timeLayouts     = []string{"15:04:05", "15:04"}
	dateTimeLayouts = []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006-01-02T15:04",
	}
	zonedLayouts = []string{
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04Z07:00",
		"2006-01-02T15:04Z07:00",
		"2006-01-02 15:04:05-0700",
		"2006-01-02T15:04:05-0700",
		"2006-01-02 15:04:05 Z07:00",
	}
)

// Layout returns the layout used to write values of the kind
func (k Kind) Layout() string {
	switch k {
	case KindDate:
		return DateLayout
	case KindTime:
		return TimeLayout
	case KindDateTime:
		return DateTimeLayout
	case KindZonedDateTime:
		return ZonedDateTimeLayout
	}
	return time.RFC3339Nano
}

// ParseValue parses one host value of the kind. It returns the wall clock in
// UTC and, for zoned values, the offset in seconds east of UTC.
func ParseValue(kind Kind, s string) (time.Time, int, error) {
	s = strings.TrimSpace(s)

	switch kind {
	case KindDate:
		t, err := parseFirst(dateLayouts, s)
		if err != nil {
			return time.Time{}, 0, err
		}
		return AsDate(t), 0, nil
	case KindTime:
		t, err := parseFirst(timeLayouts, s)
		if err != nil {
			return time.Time{}, 0, err
		}
		return AsTimeOfDay(t), 0, nil
	case KindDateTime:
		t, err := parseFirst(dateTimeLayouts, s)
		if err != nil {
			return time.Time{}, 0, err
		}
		return t.UTC(), 0, nil
	case KindZonedDateTime:
		// drop a trailing region such as "[Europe/Berlin]"; the offset is authoritative
		if i := strings.IndexByte(s, '['); i > 0 && strings.HasSuffix(s, "]") {
			s = s[:i]
		}
		t, err := parseFirst(zonedLayouts, s)
		if err != nil {
			return time.Time{}, 0, err
		}
		_, offset := t.Zone()
		return Wall(t), offset, nil
	}
	return time.Time{}, 0, fmt.Errorf("unknown timestamp kind %d", int(kind))
}

// FormatValue writes a wall-clock value of the kind. The offset is used for zoned values only.
func FormatValue(kind Kind, t time.Time, offset int) string {
	switch kind {
	case KindZonedDateTime:
		return Attach(t, offset).Format(ZonedDateTimeLayout)
	case KindDate, KindTime, KindDateTime:
		return t.Format(kind.Layout())
	}
	return t.Format(time.RFC3339Nano)
}

func parseFirst(layouts []string, s string) (time.Time, error) {
	var firstErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// Wall returns the wall clock of t as a UTC value, discarding the zone
func Wall(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// AsDate narrows a value to its calendar date at midnight UTC
func AsDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AsTimeOfDay narrows a value to its time of day on 1970-01-01 UTC
func AsTimeOfDay(t time.Time) time.Time {
	return time.Date(1970, time.January, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Attach reinterprets a wall-clock value in the fixed zone of the given offset
func Attach(t time.Time, offset int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), Location(offset))
}

// Location returns a fixed zone named after its offset
func Location(offset int) *time.Location {
	if offset == 0 {
		return time.UTC
	}
	return time.FixedZone(OffsetString(offset), offset)
}

// OffsetString formats an offset in seconds as ±hh:mm
func OffsetString(offset int) string {
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return fmt.Sprintf("%c%02d:%02d", sign, offset/3600, (offset%3600)/60)
}
