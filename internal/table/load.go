package table

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/water-atlas/internal/failure"
	"github.com/sells-group/water-atlas/internal/fetcher"
)

// DefaultNullValues are the cell texts loaded as null. They match the
// missing-value markers dataframe readers recognize by default.
var DefaultNullValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// Options configures CSV loading.
type Options struct {
	Delimiter   rune     // default ','
	Charset     string   // default UTF-8 (BOM stripped)
	NullValues  []string // nil means DefaultNullValues
	TextColumns []string // columns kept as strings instead of type-inferred
}

func (o Options) nullSet() map[string]struct{} {
	vals := o.NullValues
	if vals == nil {
		vals = DefaultNullValues
	}
	set := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		set[v] = struct{}{}
	}
	return set
}

// LoadFile reads a whole CSV file with a header row. A missing file is a
// NotFound failure naming the path.
func LoadFile(ctx context.Context, path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, failure.Errorf(failure.NotFound, "no such file: %s", path)
		}
		return nil, eris.Wrapf(err, "table: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return Load(ctx, path, f, opts)
}

// Load reads CSV text with a header row from r. Column types are inferred per
// column over the non-null cells: int64, then float64, then bool, else string.
func Load(ctx context.Context, name string, r io.Reader, opts Options) (*Table, error) {
	decoded, err := fetcher.DecodeReader(r, opts.Charset)
	if err != nil {
		return nil, eris.Wrapf(err, "table: %s", name)
	}

	records, err := fetcher.ReadAllCSV(ctx, decoded, fetcher.CSVOptions{
		Delimiter:  opts.Delimiter,
		LazyQuotes: true,
	})
	if err != nil {
		if errors.Is(err, fetcher.ErrInvalidUTF8) {
			return nil, failure.Wrap(failure.Parse, err,
				"table: "+name+": not valid UTF-8, set merge.encoding to the file's charset (e.g. windows-1252)")
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, failure.Wrap(failure.Parse, err, "table: "+name)
		}
		return nil, eris.Wrapf(err, "table: read %s", name)
	}
	if len(records) == 0 {
		return nil, failure.Errorf(failure.Parse, "table: %s: no header row", name)
	}

	columns := dedupeColumns(records[0])
	body := records[1:]
	for i, rec := range body {
		if len(rec) > len(columns) {
			// +2: one for the header, one for 1-based line numbers.
			return nil, failure.Errorf(failure.Parse,
				"table: %s: line %d: expected %d fields, saw %d", name, i+2, len(columns), len(rec))
		}
	}

	nulls := opts.nullSet()
	text := make(map[string]bool, len(opts.TextColumns))
	for _, c := range opts.TextColumns {
		text[c] = true
	}

	rows := make([][]any, len(body))
	for i := range rows {
		rows[i] = make([]any, len(columns))
	}
	for c, col := range columns {
		conv := inferColumn(body, c, nulls, text[col])
		for i, rec := range body {
			if c >= len(rec) {
				continue
			}
			rows[i][c] = conv(rec[c])
		}
	}

	return New(name, columns, rows), nil
}

// dedupeColumns renames repeated header names to "NAME.1", "NAME.2", ...
func dedupeColumns(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	counts := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		name := h
		for used[name] {
			counts[h]++
			name = h + "." + strconv.Itoa(counts[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

type kind int

const (
	kindNull kind = iota
	kindInt
	kindFloat
	kindBool
	kindString
)

// inferColumn picks the narrowest type that every non-null cell in column c
// parses as, and returns a converter for that type.
func inferColumn(body [][]string, c int, nulls map[string]struct{}, asText bool) func(string) any {
	isNull := func(s string) bool {
		_, ok := nulls[s]
		return ok
	}

	k := kindNull
	if asText {
		k = kindString
	}
	for _, rec := range body {
		if k == kindString {
			break
		}
		if c >= len(rec) || isNull(rec[c]) {
			continue
		}
		k = widen(k, rec[c])
	}

	return func(s string) any {
		if isNull(s) {
			return nil
		}
		switch k {
		case kindInt:
			v, _ := strconv.ParseInt(s, 10, 64)
			return v
		case kindFloat:
			v, _ := strconv.ParseFloat(s, 64)
			return v
		case kindBool:
			return strings.EqualFold(s, "true")
		default:
			return s
		}
	}
}

func widen(k kind, s string) kind {
	switch k {
	case kindNull, kindInt:
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			return kindInt
		}
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return kindFloat
		}
		if k == kindNull && isBool(s) {
			return kindBool
		}
		return kindString
	case kindFloat:
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return kindFloat
		}
		return kindString
	case kindBool:
		if isBool(s) {
			return kindBool
		}
		return kindString
	default:
		return kindString
	}
}

func isBool(s string) bool {
	switch s {
	case "True", "False", "true", "false", "TRUE", "FALSE":
		return true
	}
	return false
}
