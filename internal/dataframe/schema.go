package dataframe

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// Field describes one column: its name, physical Arrow type and the host
// logical type descriptor ("" when the host attached none).
type Field struct {
	Name        string
	Type        arrow.DataType
	LogicalType string
}

// Schema is the ordered list of columns of a table. Nodes validate their
// settings against a Schema before any data is available.
type Schema []Field

// Field returns the column with the given name
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the column names in order
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Without returns a copy of the schema without the named columns
func (s Schema) Without(names ...string) Schema {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := make(Schema, 0, len(s))
	for _, f := range s {
		if !drop[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

// With returns a copy of the schema with f appended, or replacing the
// column of the same name in place.
func (s Schema) With(f Field) Schema {
	out := make(Schema, 0, len(s)+1)
	replaced := false
	for _, existing := range s {
		if existing.Name == f.Name {
			out = append(out, f)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, f)
	}
	return out
}

// IsNumeric reports whether the column holds integer or floating point values
func (f Field) IsNumeric() bool {
	if f.Type == nil {
		return false
	}
	switch f.Type.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64:
		return true
	}
	return false
}
