package temporal_test

import (
	"testing"
	"time"

	tserrors "github.com/paveg/tsprep/internal/errors"
	"github.com/paveg/tsprep/internal/temporal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGranularity(t *testing.T) {
	for _, g := range temporal.Granularities {
		parsed, err := temporal.ParseGranularity(g.String())
		require.NoError(t, err)
		assert.Equal(t, g, parsed)
	}

	g, err := temporal.ParseGranularity("minute")
	require.NoError(t, err)
	assert.Equal(t, temporal.GranularityMinute, g)

	_, err = temporal.ParseGranularity("fortnight")
	assert.Error(t, err)
}

func TestGranularityOrdering(t *testing.T) {
	for i := 1; i < len(temporal.Granularities); i++ {
		assert.True(t, temporal.Granularities[i-1].CoarserThan(temporal.Granularities[i]))
	}
	assert.True(t, temporal.GranularityWeek.CollapsesToYear())
	assert.False(t, temporal.GranularityDay.CollapsesToYear())
	assert.True(t, temporal.GranularityHour.SubDay())
	assert.False(t, temporal.GranularityDay.SubDay())
}

func TestValidateGranularity(t *testing.T) {
	valid := map[temporal.Kind][]temporal.Granularity{
		temporal.KindDate:          {temporal.GranularityYear, temporal.GranularityQuarter, temporal.GranularityMonth, temporal.GranularityWeek, temporal.GranularityDay},
		temporal.KindTime:          {temporal.GranularityHour, temporal.GranularityMinute, temporal.GranularitySecond},
		temporal.KindDateTime:      temporal.Granularities,
		temporal.KindZonedDateTime: temporal.Granularities,
	}

	for kind, allowed := range valid {
		allowedSet := map[temporal.Granularity]bool{}
		for _, g := range allowed {
			allowedSet[g] = true
		}
		for _, g := range temporal.Granularities {
			err := temporal.ValidateGranularity("test", "ts", kind, g)
			if allowedSet[g] {
				assert.NoError(t, err, "%s/%s", kind, g)
			} else {
				assert.ErrorIs(t, err, tserrors.ErrConfiguration, "%s/%s", kind, g)
			}
		}
	}
}

func TestReduceSecondOnDateFails(t *testing.T) {
	table := temporal.ExtractFields(mustCast(t, temporal.KindDate, "2024-01-01"))

	_, err := temporal.Reduce(table, temporal.GranularitySecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, tserrors.ErrConfiguration)
	assert.Contains(t, err.Error(), "SECOND")
}

func TestReduceToYear(t *testing.T) {
	table := temporal.ExtractFields(mustCast(t, temporal.KindDateTime,
		"2023-12-31 23:59:59", "2024-02-10 08:00:00", "2024-11-02 08:00:00"))

	tests := []struct {
		g    temporal.Granularity
		keys []int
	}{
		{temporal.GranularityYear, []int{2023, 2024, 2024}},
		{temporal.GranularityQuarter, []int{4, 1, 4}},
		{temporal.GranularityMonth, []int{12, 2, 11}},
		{temporal.GranularityWeek, []int{52, 6, 44}},
	}

	for _, tt := range tests {
		t.Run(tt.g.String(), func(t *testing.T) {
			r, err := temporal.Reduce(table, tt.g)
			require.NoError(t, err)
			assert.Equal(t, []int{2023, 2024, 2024}, r.Years())
			assert.Nil(t, r.Values())
			assert.Equal(t, tt.keys, r.Keys())
			_, ok := r.Kind()
			assert.False(t, ok)
			_, ok = r.Series()
			assert.False(t, ok)
		})
	}
}

func TestReduceDay(t *testing.T) {
	table := temporal.ExtractFields(mustCast(t, temporal.KindZonedDateTime,
		"2024-01-01 10:00:00+01:00", "2024-01-02 23:59:00+01:00"))

	r, err := temporal.Reduce(table, temporal.GranularityDay)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{utc(2024, 1, 1, 0, 0, 0), utc(2024, 1, 2, 0, 0, 0)}, r.Values())
	kind, ok := r.Kind()
	require.True(t, ok)
	assert.Equal(t, temporal.KindDate, kind)
	assert.Equal(t, "2024-01-02", formatReduced(t, r, 1))
	// no zone at day granularity
	assert.Equal(t, time.UTC, r.Zoned()[0].Location())
}

func TestReduceSubDay(t *testing.T) {
	t.Run("date time", func(t *testing.T) {
		table := temporal.ExtractFields(mustCast(t, temporal.KindDateTime, "2024-01-01 10:42:17"))

		hour, err := temporal.Reduce(table, temporal.GranularityHour)
		require.NoError(t, err)
		assert.Equal(t, utc(2024, 1, 1, 10, 0, 0), hour.Values()[0])

		minute, err := temporal.Reduce(table, temporal.GranularityMinute)
		require.NoError(t, err)
		assert.Equal(t, utc(2024, 1, 1, 10, 42, 0), minute.Values()[0])
		assert.Equal(t, "2024-01-01 10:42:00", formatReduced(t, minute, 0))
	})

	t.Run("time stays time of day", func(t *testing.T) {
		table := temporal.ExtractFields(mustCast(t, temporal.KindTime, "23:59:59.900"))

		r, err := temporal.Reduce(table, temporal.GranularitySecond)
		require.NoError(t, err)
		assert.Equal(t, utc(1970, 1, 1, 23, 59, 59), r.Values()[0])
		kind, _ := r.Kind()
		assert.Equal(t, temporal.KindTime, kind)
		assert.Equal(t, "23:59:59", formatReduced(t, r, 0))
	})

	t.Run("zoned offsets reattached per row", func(t *testing.T) {
		table := temporal.ExtractFields(mustCast(t, temporal.KindZonedDateTime,
			"2024-01-01 10:30:00+01:00", "2024-01-01 10:30:00+02:00"))

		r, err := temporal.Reduce(table, temporal.GranularityHour)
		require.NoError(t, err)

		zoned := r.Zoned()
		require.Len(t, zoned, 2)
		_, off0 := zoned[0].Zone()
		_, off1 := zoned[1].Zone()
		assert.Equal(t, 3600, off0)
		assert.Equal(t, 7200, off1)
		assert.Equal(t, 10, zoned[0].Hour())
		assert.Equal(t, 0, zoned[1].Minute())
		assert.Equal(t, "2024-01-01 10:00:00+02:00", formatReduced(t, r, 1))

		// wall clock values remain offset-naive
		assert.Equal(t, time.UTC, r.Values()[0].Location())
	})
}

func TestReduceIdempotent(t *testing.T) {
	inputs := map[temporal.Kind][]string{
		temporal.KindDate:          {"2024-01-01", "2024-06-30"},
		temporal.KindTime:          {"01:02:03", "23:00:00"},
		temporal.KindDateTime:      {"2024-01-01 10:42:17", "2024-01-01 11:00:00"},
		temporal.KindZonedDateTime: {"2024-01-01 10:42:17+01:00", "2024-03-01 00:00:00+01:00"},
	}

	for kind, values := range inputs {
		table := temporal.ExtractFields(mustCast(t, kind, values...))
		for _, g := range temporal.Granularities {
			if !kind.HasSubfield(g.Subfield()) || g.CollapsesToYear() {
				continue
			}
			once, err := temporal.Reduce(table, g)
			require.NoError(t, err)

			reduced, ok := once.Series()
			require.True(t, ok)
			twice, err := temporal.Reduce(temporal.ExtractFields(reduced), g)
			require.NoError(t, err)

			assert.Equal(t, once.Values(), twice.Values(), "%s/%s", kind, g)
			for i := 0; i < once.Len(); i++ {
				assert.Equal(t, formatReduced(t, once, i), formatReduced(t, twice, i), "%s/%s", kind, g)
			}
		}
	}
}

func TestFloor(t *testing.T) {
	v := time.Date(2024, 7, 4, 13, 14, 15, 999, time.UTC)
	assert.Equal(t, v, temporal.Floor(v, temporal.GranularityMonth))
	assert.Equal(t, utc(2024, 7, 4, 0, 0, 0), temporal.Floor(v, temporal.GranularityDay))
	assert.Equal(t, utc(2024, 7, 4, 13, 0, 0), temporal.Floor(v, temporal.GranularityHour))
	assert.Equal(t, utc(2024, 7, 4, 13, 14, 0), temporal.Floor(v, temporal.GranularityMinute))
	assert.Equal(t, utc(2024, 7, 4, 13, 14, 15), temporal.Floor(v, temporal.GranularitySecond))
}

func formatReduced(t *testing.T, r *temporal.ReducedTable, i int) string {
	t.Helper()
	s, ok := r.Series()
	require.True(t, ok)
	return s.Format(i)
}
