// Package record turns a recovered JSON mapping into the fixed thirteen-column output row.
package record

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/joseph-ayodele/certidao-ocr/constants"
)

// Row is one output record. Values are aligned with constants.Fields; a nil
// entry is a null cell.
type Row struct {
	values []*string
}

// Build reads each known key with a null default. Unknown keys are ignored.
// It never fails.
func Build(fields map[string]any) Row {
	values := make([]*string, len(constants.Fields))
	for i, f := range constants.Fields {
		values[i] = stringify(fields[f.Key])
	}
	return Row{values: values}
}

// FromValues builds a row from column-ordered values; missing trailing values are null.
func FromValues(values []*string) Row {
	out := make([]*string, len(constants.Fields))
	copy(out, values)
	return Row{values: out}
}

func stringify(v any) *string {
	var s string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return nil
		}
		s = string(b)
	}
	return &s
}

// Columns returns the column names in output order.
func (r Row) Columns() []string {
	return constants.Columns()
}

// Values returns the cells in column order.
func (r Row) Values() []*string {
	if r.values == nil {
		return make([]*string, len(constants.Fields))
	}
	return r.values
}

// Get returns the cell for a column; ok is false for null or unknown columns.
func (r Row) Get(column string) (string, bool) {
	i := constants.ColumnIndex(column)
	if i < 0 || i >= len(r.values) || r.values[i] == nil {
		return "", false
	}
	return *r.values[i], true
}

// Strings renders the row, using null for absent cells.
func (r Row) Strings(null string) []string {
	vals := r.Values()
	out := make([]string, len(vals))
	for i, v := range vals {
		if v == nil {
			out[i] = null
		} else {
			out[i] = *v
		}
	}
	return out
}

// Map returns column → value (string or nil).
func (r Row) Map() map[string]any {
	vals := r.Values()
	out := make(map[string]any, len(vals))
	for i, f := range constants.Fields {
		if vals[i] == nil {
			out[f.Column] = nil
		} else {
			out[f.Column] = *vals[i]
		}
	}
	return out
}

// MarshalJSON writes an object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	vals := r.Values()
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range constants.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(f.Column)
		buf.Write(k)
		buf.WriteByte(':')
		if vals[i] == nil {
			buf.WriteString("null")
			continue
		}
		v, err := json.Marshal(*vals[i])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts an object keyed by column name.
func (r *Row) UnmarshalJSON(b []byte) error {
	var m map[string]*string
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	values := make([]*string, len(constants.Fields))
	for i, f := range constants.Fields {
		values[i] = m[f.Column]
	}
	r.values = values
	return nil
}
