// Package tabular holds column-typed, immutable in-memory tables parsed from
// CSV documents.
//
// A Table is built once (at startup for the flat-file datasets, or per request
// for uploads) and never modified afterwards, so any number of goroutines may
// read it without synchronization. Cells are nil (null), int64, float64 or
// string according to the column Kind.
package tabular

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Kind is the inferred type of a column.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "text"
	}
}

// Numeric reports whether values of this kind are numbers.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat
}

// Column describes one table column.
type Column struct {
	Name string
	Kind Kind
}

// Row is one record. Callers must treat rows as read-only.
type Row []any

// Table is an immutable, column-typed table.
type Table struct {
	name    string
	columns []Column
	names   []string
	index   map[string]int
	rows    []Row
}

// New builds a table from explicit columns and rows. Every row must have
// exactly one cell per column.
func New(name string, columns []Column, rows []Row) (*Table, error) {
	t := &Table{
		name:    name,
		columns: slices.Clone(columns),
		names:   make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
		rows:    slices.Clone(rows),
	}
	for i, c := range columns {
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		t.names[i] = c.Name
		t.index[c.Name] = i
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(r), len(columns))
		}
	}
	return t, nil
}

// Name returns the table's name.
func (t *Table) Name() string { return t.name }

// Columns returns a copy of the column descriptors.
func (t *Table) Columns() []Column { return slices.Clone(t.columns) }

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string { return slices.Clone(t.names) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns every row in load order. The returned slice is a fresh copy,
// so reordering or truncating it never affects the table.
func (t *Table) Rows() []Row { return slices.Clone(t.rows) }

// Index returns the position of a column.
func (t *Table) Index(column string) (int, bool) {
	i, ok := t.index[column]
	return i, ok
}

// Column returns the descriptor for a named column.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// Records wraps rows so they serialize as JSON objects keyed by column name.
func (t *Table) Records(rows []Row) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = Record{names: t.names, values: r}
	}
	return out
}

// Record is a row bound to its column names.
type Record struct {
	names  []string
	values Row
}

// Get returns the value of a column in this record.
func (r Record) Get(column string) (any, bool) {
	for i, n := range r.names {
		if n == column {
			return r.values[i], true
		}
	}
	return nil, false
}

// Values returns the record's cells in column order.
func (r Record) Values() Row { return r.values }

// MarshalJSON emits the record as an object whose keys follow column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
