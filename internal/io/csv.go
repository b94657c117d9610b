package io

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/paveg/tsprep/internal/dataframe"
	"github.com/paveg/tsprep/internal/series"
	"github.com/paveg/tsprep/internal/temporal"
)

const (
	// Boolean string constants
	trueStr  = "true"
	falseStr = "false"
)

type columnType int

const (
	stringColumn columnType = iota
	boolColumn
	intColumn
	floatColumn
	timestampColumn
)

// inferenceKinds is the order timestamp kinds are tried in; the narrowest
// layouts come first so a date column is not read as anything wider.
var inferenceKinds = []temporal.Kind{
	temporal.KindDate,
	temporal.KindTime,
	temporal.KindDateTime,
	temporal.KindZonedDateTime,
}

// Read reads CSV data and returns a DataFrame
func (r *CSVReader) Read() (*dataframe.DataFrame, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment
	csvReader.TrimLeadingSpace = r.options.SkipInitialSpace

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	if len(records) == 0 {
		return dataframe.New(), nil
	}

	var headers []string
	var dataRows [][]string

	if r.options.Header {
		headers = records[0]
		dataRows = records[1:]
	} else {
		numCols := len(records[0])
		headers = make([]string, numCols)
		for i := range numCols {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
		dataRows = records
	}

	// Transpose data to work with columns
	numCols := len(headers)
	columns := make([][]string, numCols)
	for i := range numCols {
		columns[i] = make([]string, len(dataRows))
		for j, row := range dataRows {
			if i < len(row) {
				columns[i][j] = row[i]
			}
		}
	}

	seriesList := make([]dataframe.ISeries, 0, numCols)
	for i, header := range headers {
		s, err := r.createSeriesFromStrings(header, columns[i])
		if err != nil {
			for _, done := range seriesList {
				done.Release()
			}
			return nil, fmt.Errorf("creating series for column %s: %w", header, err)
		}
		seriesList = append(seriesList, s)
	}

	return dataframe.New(seriesList...), nil
}

// createSeriesFromStrings creates a series from string data, inferring the
// appropriate type. Empty cells become nulls in typed columns.
func (r *CSVReader) createSeriesFromStrings(name string, data []string) (dataframe.ISeries, error) {
	inferred, kind := r.inferDataType(data)

	switch inferred {
	case boolColumn:
		return createTypedSeries(name, data, r, func(v string) (bool, error) {
			return strings.EqualFold(v, trueStr), nil
		})
	case intColumn:
		return createTypedSeries(name, data, r, func(v string) (int64, error) {
			return strconv.ParseInt(v, 10, 64)
		})
	case floatColumn:
		return createTypedSeries(name, data, r, func(v string) (float64, error) {
			return strconv.ParseFloat(v, 64)
		})
	case timestampColumn:
		s, err := createTypedSeries(name, data, r, func(v string) (string, error) { return v, nil })
		if err != nil {
			return nil, err
		}
		return s.WithLogicalType(kind.Descriptor()), nil
	default:
		return series.NewSafe(name, data, r.mem)
	}
}

func createTypedSeries[T any](name string, data []string, r *CSVReader, parse func(string) (T, error)) (*series.Series[T], error) {
	values := make([]T, len(data))
	valid := make([]bool, len(data))
	for i, v := range data {
		if v == "" {
			continue
		}
		parsed, err := parse(v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		values[i] = parsed
		valid[i] = true
	}
	return series.NewNullable(name, values, valid, r.mem)
}

// inferDataType determines the most specific type every non-empty value fits.
// For timestamp columns the kind is returned as well.
func (r *CSVReader) inferDataType(data []string) (columnType, temporal.Kind) {
	canBeInt := true
	canBeFloat := true
	canBeBool := true
	hasNonEmptyValue := false

	for _, value := range data {
		if value == "" {
			continue // Skip empty values for type inference
		}
		hasNonEmptyValue = true

		if canBeBool {
			lower := strings.ToLower(value)
			if lower != trueStr && lower != falseStr {
				canBeBool = false
			}
		}
		if canBeInt {
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				canBeInt = false
			}
		}
		if canBeFloat {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				canBeFloat = false
			}
		}
	}

	switch {
	case !hasNonEmptyValue:
		return stringColumn, 0
	case canBeBool:
		return boolColumn, 0
	case canBeInt:
		return intColumn, 0
	case canBeFloat:
		return floatColumn, 0
	}

	if r.options.InferTimestamps {
		if kind, ok := inferTimestampKind(data); ok {
			return timestampColumn, kind
		}
	}
	return stringColumn, 0
}

func inferTimestampKind(data []string) (temporal.Kind, bool) {
	for _, kind := range inferenceKinds {
		matches := true
		for _, value := range data {
			if value == "" {
				continue
			}
			if _, _, err := temporal.ParseValue(kind, value); err != nil {
				matches = false
				break
			}
		}
		if matches {
			return kind, true
		}
	}
	return 0, false
}

// Write writes the DataFrame to CSV format. Nulls are written as empty cells.
func (w *CSVWriter) Write(df *dataframe.DataFrame) error {
	csvWriter := csv.NewWriter(w.writer)
	csvWriter.Comma = w.options.Delimiter

	if w.options.Header {
		if err := csvWriter.Write(df.Columns()); err != nil {
			return fmt.Errorf("writing headers: %w", err)
		}
	}

	columns := make([]dataframe.ISeries, 0, df.Width())
	for _, name := range df.Columns() {
		col, _ := df.Column(name)
		columns = append(columns, col)
	}

	row := make([]string, len(columns))
	for i := range df.Len() {
		for j, col := range columns {
			row[j] = col.GetAsString(i)
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
