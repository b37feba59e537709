// Package table holds whole CSV extracts in memory as typed, column-ordered rows.
package table

import (
	"strconv"

	"github.com/sells-group/water-atlas/internal/failure"
	"github.com/sells-group/water-atlas/internal/jsonout"
)

// Table is an in-memory CSV extract. Cells are nil (null), int64, float64,
// bool, or string.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any

	index map[string]int
}

// New builds a Table from column names and rows. Rows are not copied.
func New(name string, columns []string, rows [][]any) *Table {
	t := &Table{Name: name, Columns: columns, Rows: rows}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		t.index[c] = i
	}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Col returns the position of the named column.
func (t *Table) Col(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Require returns a Parse failure naming the first absent column.
func (t *Table) Require(names ...string) error {
	for _, n := range names {
		if _, ok := t.index[n]; !ok {
			return failure.Errorf(failure.Parse, "%s: missing required column %q", t.Name, n)
		}
	}
	return nil
}

// AddColumn appends a column whose value for each row is computed by fn.
// An existing column with the same name is overwritten in place.
func (t *Table) AddColumn(name string, fn func(row []any) any) {
	c, ok := t.index[name]
	if !ok {
		c = len(t.Columns)
		t.Columns = append(t.Columns, name)
		t.index[name] = c
	}
	for i, row := range t.Rows {
		v := fn(row)
		if c < len(row) {
			row[c] = v
			continue
		}
		for len(row) < c {
			row = append(row, nil)
		}
		t.Rows[i] = append(row, v)
	}
}

// Record returns row i as an ordered JSON object in column order.
func (t *Table) Record(i int) *jsonout.Object {
	row := t.Rows[i]
	o := jsonout.NewObject(len(t.Columns))
	for c, name := range t.Columns {
		var v any
		if c < len(row) {
			v = row[c]
		}
		o.Set(name, v)
	}
	return o
}

// KeyString returns the join-key form of a cell: strings as-is, integers in
// decimal, everything else (including null) as "".
func KeyString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return ""
	}
}
