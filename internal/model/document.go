package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidDocument is wrapped by every Document validation failure.
var ErrInvalidDocument = errors.New("invalid document")

// Document is a column-oriented table: one value slice per column, all of
// equal length. The first column is the key (a date or date-time string),
// the others hold int64 or float64 statistics.
//
// JSON encoding keeps column order: {"hour": [...], "node1": [...]}.
type Document struct {
	columns []string
	values  map[string][]any
}

// NewDocument returns an empty document with the given columns.
func NewDocument(columns ...string) Document {
	d := Document{
		columns: append([]string(nil), columns...),
		values:  make(map[string][]any, len(columns)),
	}
	for _, c := range columns {
		d.values[c] = []any{}
	}
	return d
}

// DocumentFromRows builds a document from row slices in column order.
func DocumentFromRows(columns []string, rows ...[]any) (Document, error) {
	d := NewDocument(columns...)
	for _, row := range rows {
		if err := d.AppendRow(row); err != nil {
			return Document{}, err
		}
	}
	return d, nil
}

// IsZero reports whether the document has no columns.
func (d Document) IsZero() bool { return len(d.columns) == 0 }

// Columns returns the column names in order.
func (d Document) Columns() []string { return append([]string(nil), d.columns...) }

// Column returns the values of one column, nil when absent.
func (d Document) Column(name string) []any { return d.values[name] }

// HasColumn reports whether name is a column of d.
func (d Document) HasColumn(name string) bool {
	_, ok := d.values[name]
	return ok
}

// KeyColumn is the first column, "" for an empty document.
func (d Document) KeyColumn() string {
	if len(d.columns) == 0 {
		return ""
	}
	return d.columns[0]
}

// Len is the number of rows.
func (d Document) Len() int {
	if len(d.columns) == 0 {
		return 0
	}
	return len(d.values[d.columns[0]])
}

// LastKey returns the key of the most recent row.
func (d Document) LastKey() (string, bool) {
	n := d.Len()
	if n == 0 {
		return "", false
	}
	k, ok := d.values[d.columns[0]][n-1].(string)
	return k, ok
}

// AppendRow adds one row given in column order.
func (d *Document) AppendRow(row []any) error {
	if len(row) != len(d.columns) {
		return fmt.Errorf("%w: row has %d values, document has %d columns", ErrInvalidDocument, len(row), len(d.columns))
	}
	for i, c := range d.columns {
		d.values[c] = append(d.values[c], row[i])
	}
	return nil
}

// Rows re-flattens the document into rows in column order.
func (d Document) Rows() [][]any {
	n := d.Len()
	rows := make([][]any, n)
	for i := 0; i < n; i++ {
		row := make([]any, len(d.columns))
		for j, c := range d.columns {
			row[j] = d.values[c][i]
		}
		rows[i] = row
	}
	return rows
}

// Clone returns a deep copy.
func (d Document) Clone() Document {
	out := Document{
		columns: append([]string(nil), d.columns...),
		values:  make(map[string][]any, len(d.values)),
	}
	for k, v := range d.values {
		out.values[k] = append([]any(nil), v...)
	}
	return out
}

// Equal compares column order and every value.
func (d Document) Equal(o Document) bool {
	if len(d.columns) != len(o.columns) {
		return false
	}
	for i, c := range d.columns {
		if o.columns[i] != c {
			return false
		}
		a, b := d.values[c], o.values[c]
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if a[j] != b[j] {
				return false
			}
		}
	}
	return true
}

// Validate checks the stored-document invariants: at least one column,
// equal column lengths, string keys in strictly ascending order and
// finite numeric statistics.
func (d Document) Validate() error {
	if len(d.columns) == 0 {
		return fmt.Errorf("%w: no columns", ErrInvalidDocument)
	}
	n := d.Len()
	for _, c := range d.columns[1:] {
		if got := len(d.values[c]); got != n {
			return fmt.Errorf("%w: column %q has %d values, key column has %d", ErrInvalidDocument, c, got, n)
		}
		for i, v := range d.values[c] {
			switch f := v.(type) {
			case int64:
			case float64:
				if math.IsNaN(f) || math.IsInf(f, 0) {
					return fmt.Errorf("%w: column %q row %d is %v, want a finite number", ErrInvalidDocument, c, i, f)
				}
			default:
				return fmt.Errorf("%w: column %q row %d is %T, want a number", ErrInvalidDocument, c, i, v)
			}
		}
	}

	prev := ""
	for i, v := range d.values[d.columns[0]] {
		k, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: key row %d is %T, want a string", ErrInvalidDocument, i, v)
		}
		if i > 0 && strings.Compare(k, prev) <= 0 {
			return fmt.Errorf("%w: key %q at row %d does not follow %q", ErrInvalidDocument, k, i, prev)
		}
		prev = k
	}
	return nil
}

// MarshalJSON writes the columns in order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range d.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		vals := d.values[c]
		if vals == nil {
			vals = []any{}
		}
		b, err := json.Marshal(vals)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c, err)
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of arrays keeping key order. Integral
// numbers decode to int64, others to float64.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*d = Document{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: want a JSON object", ErrInvalidDocument)
	}

	out := Document{values: make(map[string][]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		if _, dup := out.values[key]; dup {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidDocument, key)
		}

		var raw []any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%w: column %q: %v", ErrInvalidDocument, key, err)
		}
		vals := make([]any, len(raw))
		for i, v := range raw {
			if num, ok := v.(json.Number); ok {
				vals[i], err = numberValue(num)
				if err != nil {
					return fmt.Errorf("%w: column %q row %d: %v", ErrInvalidDocument, key, i, err)
				}
				continue
			}
			vals[i] = v
		}
		out.columns = append(out.columns, key)
		out.values[key] = vals
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*d = out
	return nil
}

func numberValue(n json.Number) (any, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	return n.Float64()
}
