package temporal

import (
	"context"
	"errors"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/paveg/tsprep/internal/config"
	tserrors "github.com/paveg/tsprep/internal/errors"
	"github.com/paveg/tsprep/internal/parallel"
	"github.com/paveg/tsprep/internal/series"
)

var errNullTimestamp = errors.New("missing timestamp value")

// Column is the subset of a table column the caster reads
type Column interface {
	Name() string
	Array() arrow.Array
}

// Series is a normalized temporal column. Values hold the wall clock in UTC
// narrowed to the kind. Offsets is set for zoned columns only and holds the
// per-row offset in seconds east of UTC.
type Series struct {
	Name    string
	Kind    Kind
	Values  []time.Time
	Offsets []int
}

// Len returns the number of rows
func (s *Series) Len() int {
	return len(s.Values)
}

// Zoned returns the values with their offsets reattached. Non-zoned series
// are returned as UTC values.
func (s *Series) Zoned() []time.Time {
	if s.Kind != KindZonedDateTime {
		return append([]time.Time(nil), s.Values...)
	}
	return AttachAll(s.Values, s.Offsets)
}

// Format writes row i the way output columns hold it
func (s *Series) Format(i int) string {
	offset := 0
	if s.Offsets != nil {
		offset = s.Offsets[i]
	}
	return FormatValue(s.Kind, s.Values[i], offset)
}

// Caster parses host columns into normalized series
type Caster struct {
	parallelThreshold int
	workers           int
}

// NewCaster creates a caster using the parallel settings of cfg
func NewCaster(cfg config.Config) *Caster {
	cfg = cfg.WithDefaults()
	return &Caster{
		parallelThreshold: cfg.ParallelThreshold,
		workers:           cfg.Workers(),
	}
}

// Cast parses col as the given kind using the global configuration
func Cast(col Column, kind Kind) (*Series, error) {
	return NewCaster(config.GetGlobalConfig()).Cast(context.Background(), col, kind)
}

// Cast parses col as the given kind. String columns are parsed with the
// layouts of the kind; Arrow temporal columns are converted directly. Any
// missing or malformed value fails the whole column. Cancelling ctx stops
// the parallel conversion of large columns.
func (c *Caster) Cast(ctx context.Context, col Column, kind Kind) (*Series, error) {
	arr := col.Array()
	defer arr.Release()

	n := arr.Len()
	out := &Series{
		Name:   col.Name(),
		Kind:   kind,
		Values: make([]time.Time, n),
	}
	if kind == KindZonedDateTime {
		out.Offsets = make([]int, n)
	}

	var convert func(i int) error
	switch a := arr.(type) {
	case *array.String:
		convert = func(i int) error {
			if a.IsNull(i) {
				return tserrors.NewParseError("cast", out.Name, i, "", errNullTimestamp)
			}
			raw := a.Value(i)
			t, offset, err := ParseValue(kind, raw)
			if err != nil {
				return tserrors.NewParseError("cast", out.Name, i, raw, err)
			}
			out.Values[i] = t
			if out.Offsets != nil {
				out.Offsets[i] = offset
			}
			return nil
		}
	case *array.Timestamp, *array.Date32, *array.Date64, *array.Time32, *array.Time64:
		loc := arrowLocation(arr.DataType())
		convert = func(i int) error {
			if arr.IsNull(i) {
				return tserrors.NewParseError("cast", out.Name, i, "", errNullTimestamp)
			}
			t, _ := series.TimeAt(arr, i)
			t = t.In(loc)
			_, offset := t.Zone()
			out.Values[i] = narrow(kind, Wall(t))
			if out.Offsets != nil {
				out.Offsets[i] = offset
			}
			return nil
		}
	default:
		return nil, tserrors.NewExecutionError("cast", out.Name,
			"unsupported column type "+arr.DataType().String(), nil)
	}

	if err := c.run(ctx, n, convert); err != nil {
		return nil, err
	}
	return out, nil
}

// run applies convert to every row, in parallel above the threshold.
// The reported error is the one of the lowest failing row.
func (c *Caster) run(ctx context.Context, n int, convert func(int) error) error {
	rows := func(r parallel.Range) error {
		for i := r.Start; i < r.End; i++ {
			if err := convert(i); err != nil {
				return err
			}
		}
		return nil
	}

	if n < c.parallelThreshold || c.workers <= 1 {
		return rows(parallel.Range{Start: 0, End: n})
	}

	pool := parallel.NewWorkerPoolWithContext(ctx, c.workers)
	defer pool.Close()
	return pool.ForEachRange(n, rows)
}

// narrow drops the components a kind does not carry
func narrow(kind Kind, t time.Time) time.Time {
	switch {
	case !kind.HasClock():
		return AsDate(t)
	case !kind.HasDate():
		return AsTimeOfDay(t)
	}
	return t
}

// arrowLocation returns the zone of a zoned Arrow timestamp type, UTC otherwise
func arrowLocation(dt arrow.DataType) *time.Location {
	ts, ok := dt.(*arrow.TimestampType)
	if !ok || ts.TimeZone == "" {
		return time.UTC
	}
	loc, err := ts.GetZone()
	if err != nil || loc == nil {
		return time.UTC
	}
	return loc
}

// AttachAll zips wall-clock values with their offsets into zoned values
func AttachAll(values []time.Time, offsets []int) []time.Time {
	out := make([]time.Time, len(values))
	for i, v := range values {
		out[i] = Attach(v, offsets[i])
	}
	return out
}
