package table

import "math"

// NormalizeNulls replaces every cell that JSON cannot represent (NaN, +Inf,
// -Inf) with null across the given tables. All other cells keep their value
// and type. Returns the number of cells replaced.
func NormalizeNulls(tables ...*Table) int {
	n := 0
	for _, t := range tables {
		for _, row := range t.Rows {
			for c, v := range row {
				if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
					row[c] = nil
					n++
				}
			}
		}
	}
	return n
}
