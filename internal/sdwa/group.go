package sdwa

import (
	"github.com/sells-group/water-atlas/internal/jsonout"
	"github.com/sells-group/water-atlas/internal/table"
)

// RowSet is an ordered selection of rows from one table. It serializes as an
// ordinal-keyed object: {"0": {...}, "1": {...}}.
type RowSet struct {
	Table *table.Table
	Index []int
}

// Len returns the number of selected rows.
func (r RowSet) Len() int { return len(r.Index) }

// Records returns the selected rows as ordered JSON objects.
func (r RowSet) Records() []*jsonout.Object {
	out := make([]*jsonout.Object, len(r.Index))
	for i, idx := range r.Index {
		out[i] = r.Table.Record(idx)
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (r RowSet) MarshalJSON() ([]byte, error) {
	if r.Table == nil {
		return []byte("{}"), nil
	}
	return jsonout.Ordinal(r.Records()).MarshalJSON()
}

// Grouping partitions a table's rows by key, preserving source order within
// each group.
type Grouping struct {
	table *table.Table
	rows  map[string][]int
}

// GroupBy partitions t by the named column. Rows whose key is null are not
// placed in any group, and keys without rows are absent.
func GroupBy(t *table.Table, column string) *Grouping {
	g := &Grouping{table: t, rows: make(map[string][]int)}
	col, ok := t.Col(column)
	if !ok {
		return g
	}
	for i, row := range t.Rows {
		key := table.KeyString(row[col])
		if key == "" {
			continue
		}
		g.rows[key] = append(g.rows[key], i)
	}
	return g
}

// Len returns the number of distinct keys.
func (g *Grouping) Len() int { return len(g.rows) }

// Get returns the rows for key; an unknown key yields an empty RowSet.
func (g *Grouping) Get(key string) RowSet {
	return RowSet{Table: g.table, Index: g.rows[key]}
}
