package query

import (
	"database/sql"
	"fmt"
)

// Table is the tabular result of a query. Columns are the labels of the
// projected fields in projection order.
type Table struct {
	Columns []string
	Rows    [][]interface{}
	index   map[string]int
}

func newTable(columns []string) *Table {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &Table{Columns: columns, Rows: make([][]interface{}, 0), index: index}
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of a column label, or -1
func (t *Table) Index(label string) int {
	if i, ok := t.index[label]; ok {
		return i
	}
	return -1
}

// Value returns the value of a column in a row
func (t *Table) Value(row int, label string) (interface{}, error) {
	i := t.Index(label)
	if i < 0 {
		return nil, fmt.Errorf("no column %q", label)
	}
	if row < 0 || row >= len(t.Rows) {
		return nil, fmt.Errorf("row %d out of range", row)
	}
	return t.Rows[row][i], nil
}

// Column returns the values of one column
func (t *Table) Column(label string) ([]interface{}, error) {
	i := t.Index(label)
	if i < 0 {
		return nil, fmt.Errorf("no column %q", label)
	}
	out := make([]interface{}, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// DistinctBy returns a table keeping the first row for every distinct
// value of the column
func (t *Table) DistinctBy(label string) (*Table, error) {
	i := t.Index(label)
	if i < 0 {
		return nil, fmt.Errorf("no column %q", label)
	}
	out := newTable(t.Columns)
	seen := make(map[interface{}]bool, len(t.Rows))
	for _, row := range t.Rows {
		key := row[i]
		if seen[key] {
			continue
		}
		seen[key] = true
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// Records returns every row as a label -> value map
func (t *Table) Records() []map[string]interface{} {
	records := make([]map[string]interface{}, len(t.Rows))
	for r, row := range t.Rows {
		record := make(map[string]interface{}, len(t.Columns))
		for i, c := range t.Columns {
			record[c] = row[i]
		}
		records[r] = record
	}
	return records
}

// scanTable reads every row, labelling columns with the projection labels
func scanTable(rows *sql.Rows, labels []string) (*Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(columns) != len(labels) {
		return nil, fmt.Errorf("query returned %d columns, expected %d", len(columns), len(labels))
	}

	t := newTable(labels)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		for i, v := range values {
			// Handle []byte conversion to string for text fields
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		t.Rows = append(t.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}
