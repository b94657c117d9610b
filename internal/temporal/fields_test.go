package temporal_test

import (
	"testing"
	"time"

	"github.com/paveg/tsprep/internal/temporal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFieldsPerKind(t *testing.T) {
	tests := []struct {
		name      string
		kind      temporal.Kind
		input     string
		timestamp time.Time
		expected  map[temporal.Subfield]int
		zone      string
	}{
		{
			name:      "date",
			kind:      temporal.KindDate,
			input:     "2024-05-17",
			timestamp: utc(2024, 5, 17, 0, 0, 0),
			expected: map[temporal.Subfield]int{
				temporal.Year: 2024, temporal.Quarter: 2, temporal.Month: 5, temporal.Week: 20, temporal.Day: 17,
			},
		},
		{
			name:      "time",
			kind:      temporal.KindTime,
			input:     "08:09:10",
			timestamp: utc(1970, 1, 1, 8, 9, 10),
			expected: map[temporal.Subfield]int{
				temporal.Hour: 8, temporal.Minute: 9, temporal.Second: 10,
			},
		},
		{
			name:      "date time",
			kind:      temporal.KindDateTime,
			input:     "2023-11-30 22:15:45",
			timestamp: utc(2023, 11, 30, 22, 15, 45),
			expected: map[temporal.Subfield]int{
				temporal.Year: 2023, temporal.Quarter: 4, temporal.Month: 11, temporal.Week: 48, temporal.Day: 30,
				temporal.Hour: 22, temporal.Minute: 15, temporal.Second: 45,
			},
		},
		{
			name:      "zoned date time",
			kind:      temporal.KindZonedDateTime,
			input:     "2024-01-01 00:30:00+01:00",
			timestamp: utc(2024, 1, 1, 0, 30, 0),
			expected: map[temporal.Subfield]int{
				temporal.Year: 2024, temporal.Quarter: 1, temporal.Month: 1, temporal.Week: 1, temporal.Day: 1,
				temporal.Hour: 0, temporal.Minute: 30, temporal.Second: 0,
			},
			zone: "+01:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := temporal.ExtractFields(mustCast(t, tt.kind, tt.input))

			assert.Equal(t, "ts", table.Name())
			assert.Equal(t, tt.kind, table.Kind())
			require.Equal(t, 1, table.Len())
			assert.Equal(t, tt.timestamp, table.Timestamps()[0])

			// exactly the declared subfield set
			present := map[temporal.Subfield]bool{}
			for _, f := range []temporal.Subfield{
				temporal.Year, temporal.Quarter, temporal.Month, temporal.Week, temporal.Day,
				temporal.Hour, temporal.Minute, temporal.Second, temporal.Zone,
			} {
				if table.Has(f) {
					present[f] = true
				}
			}
			expectedSet := map[temporal.Subfield]bool{}
			for _, f := range tt.kind.Subfields() {
				expectedSet[f] = true
			}
			assert.Equal(t, expectedSet, present)
			assert.Equal(t, tt.kind.Subfields(), table.Subfields())

			for f, want := range tt.expected {
				col, ok := table.Ints(f)
				require.True(t, ok, string(f))
				assert.Equal(t, want, col[0], string(f))
			}

			if tt.zone != "" {
				assert.Equal(t, []string{tt.zone}, table.Zones())
				assert.Equal(t, []int{3600}, table.Offsets())
			} else {
				assert.Nil(t, table.Zones())
				assert.Nil(t, table.Offsets())
			}
		})
	}
}

func TestExtractFieldsISOWeekAndQuarter(t *testing.T) {
	table := temporal.ExtractFields(mustCast(t, temporal.KindDate,
		"2021-01-03", "2021-01-04", "2020-12-31", "2024-03-31", "2024-04-01", "2024-12-30"))

	weeks, _ := table.Ints(temporal.Week)
	assert.Equal(t, []int{53, 1, 53, 13, 14, 1}, weeks)

	quarters, _ := table.Ints(temporal.Quarter)
	assert.Equal(t, []int{1, 1, 4, 1, 2, 4}, quarters)
}

func TestExtractFieldsIsPure(t *testing.T) {
	s := mustCast(t, temporal.KindDateTime, "2024-01-01 10:00:00")
	table := temporal.ExtractFields(s)

	ts := table.Timestamps()
	ts[0] = time.Time{}
	years, _ := table.Ints(temporal.Year)
	years[0] = 0

	assert.Equal(t, utc(2024, 1, 1, 10, 0, 0), table.Timestamps()[0])
	again, _ := table.Ints(temporal.Year)
	assert.Equal(t, 2024, again[0])
	assert.Equal(t, utc(2024, 1, 1, 10, 0, 0), s.Values[0])
}

func TestExtractFieldsEmpty(t *testing.T) {
	table := temporal.ExtractFields(&temporal.Series{Name: "ts", Kind: temporal.KindDate})
	assert.Equal(t, 0, table.Len())
	years, ok := table.Ints(temporal.Year)
	assert.True(t, ok)
	assert.Empty(t, years)
}
