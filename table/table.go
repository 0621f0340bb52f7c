// Package table holds the in-memory tabular data exchanged by the batch predictor.
package table

import "fmt"

// Table is a header plus rows of raw text cells. Cells are kept verbatim so that
// exporting a table reproduces the uploaded values byte for byte.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New builds a table and checks that every row is as wide as the header.
func New(columns []string, rows [][]string) (*Table, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i+1, len(row), len(columns))
		}
	}
	return &Table{Columns: columns, Rows: rows}, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// WithColumn returns a copy of t with one appended column. values must have one entry per row.
func (t *Table) WithColumn(name string, values []string) (*Table, error) {
	if len(values) != len(t.Rows) {
		return nil, fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(t.Rows))
	}
	columns := make([]string, 0, len(t.Columns)+1)
	columns = append(columns, t.Columns...)
	columns = append(columns, name)

	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		out := make([]string, 0, len(row)+1)
		out = append(out, row...)
		rows[i] = append(out, values[i])
	}
	return &Table{Columns: columns, Rows: rows}, nil
}

// Head returns at most n rows, sharing storage with t.
func (t *Table) Head(n int) [][]string {
	if n < 0 || n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}

// Column returns the values of one column, or false when it does not exist.
func (t *Table) Column(name string) ([]string, bool) {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values, true
}
