package sdwa

import "github.com/sells-group/water-atlas/internal/table"

// CodeDictionary maps a reference VALUE_CODE to its VALUE_DESCRIPTION.
// Codes compare on their source text.
type CodeDictionary map[string]any

// BuildCodeDictionary indexes the reference-codes table. When a code repeats,
// the last row wins. Rows with a null code are skipped.
func BuildCodeDictionary(ref *table.Table) CodeDictionary {
	codeCol, _ := ref.Col(ColValueCode)
	descCol, _ := ref.Col(ColValueDescription)

	d := make(CodeDictionary, ref.Len())
	for _, row := range ref.Rows {
		code := table.KeyString(row[codeCol])
		if code == "" {
			continue
		}
		d[code] = row[descCol]
	}
	return d
}

// Lookup resolves code to its description. Unknown codes, null codes and
// null descriptions all resolve to nil.
func (d CodeDictionary) Lookup(code any) any {
	key := table.KeyString(code)
	if key == "" {
		return nil
	}
	desc, ok := d[key]
	if !ok {
		return nil
	}
	if s, isStr := desc.(string); isStr && s == "" {
		return nil
	}
	return desc
}

// AnnotateViolations appends VIOLATION_NAME and CONTAMINANT_NAME to every
// violation row. Returns how many non-null codes had no description.
func AnnotateViolations(v *table.Table, d CodeDictionary) (unresolved int) {
	vcCol, _ := v.Col(ColViolationCode)
	ccCol, _ := v.Col(ColContaminantCode)

	resolve := func(code any) any {
		name := d.Lookup(code)
		if name == nil && code != nil {
			unresolved++
		}
		return name
	}
	v.AddColumn(ColViolationName, func(row []any) any { return resolve(row[vcCol]) })
	v.AddColumn(ColContaminantName, func(row []any) any { return resolve(row[ccCol]) })
	return unresolved
}
