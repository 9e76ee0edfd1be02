package domain

import (
	"fmt"
	"strings"
)

// Normalized column names of the GSAF incident log
const (
	ColumnCaseNumber = "case_number"
	ColumnDate       = "date"
	ColumnYear       = "year"
	ColumnType       = "type"
	ColumnCountry    = "country"
	ColumnArea       = "area"
	ColumnLocation   = "location"
	ColumnActivity   = "activity"
	ColumnName       = "name"
	ColumnSex        = "sex"
	ColumnAge        = "age"
	ColumnInjury     = "injury"
	ColumnFatalRaw   = "fatal_y/n"
	ColumnFatal      = "fatal"
	ColumnTime       = "time"
	ColumnSpecies    = "species"
)

// Table is an in-memory sheet: a header row and data rows of cells.
// Rows are always padded to the header width.
type Table struct {
	Columns []string  `json:"columns"`
	Rows    [][]Value `json:"rows"`
}

// NewTable creates an empty table with the given header
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// AppendRow adds a row, padding with Absent or truncating to the header width
func (t *Table) AppendRow(cells []Value) {
	row := make([]Value, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Len returns the number of data rows
func (t *Table) Len() int { return len(t.Rows) }

// Shape returns (rows, columns)
func (t *Table) Shape() (int, int) { return len(t.Rows), len(t.Columns) }

// ColumnIndex returns the position of name, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether name is in the header
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Column returns a copy of the named column's cells
func (t *Table) Column(name string) ([]Value, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found", name)
	}
	out := make([]Value, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// SetColumn replaces the named column's cells. values must match the row count.
func (t *Table) SetColumn(name string, values []Value) error {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return fmt.Errorf("column %q not found", name)
	}
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q: got %d values for %d rows", name, len(values), len(t.Rows))
	}
	for i := range t.Rows {
		t.Rows[i][idx] = values[i]
	}
	return nil
}

// RenameColumn renames a header entry. Renaming a missing column is an error.
func (t *Table) RenameColumn(from, to string) error {
	idx := t.ColumnIndex(from)
	if idx < 0 {
		return fmt.Errorf("column %q not found", from)
	}
	t.Columns[idx] = to
	return nil
}

// Clone returns a deep copy
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns)
	out.Rows = make([][]Value, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]Value, len(row))
		copy(r, row)
		out.Rows[i] = r
	}
	return out
}

// Head returns a copy holding the first n rows
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := NewTable(t.Columns)
	for _, row := range t.Rows[:n] {
		out.AppendRow(row)
	}
	return out
}

// Records renders every row as strings, for CSV and sheet writers
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = v.String()
		}
		out[i] = rec
	}
	return out
}

// String renders a small fixed-width preview
func (t *Table) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Columns, " | "))
	b.WriteByte('\n')
	for _, rec := range t.Records() {
		b.WriteString(strings.Join(rec, " | "))
		b.WriteByte('\n')
	}
	return b.String()
}
