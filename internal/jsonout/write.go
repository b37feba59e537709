package jsonout

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Indent is the indentation used for every document this package writes.
const Indent = "  "

// Encode renders v as indented JSON.
func Encode(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", Indent)
	if err != nil {
		return nil, eris.Wrap(err, "jsonout: encode")
	}
	return data, nil
}

// WriteFile encodes v fully in memory and then writes it to path in a single
// call, overwriting any existing file. If encoding fails the file is untouched.
// Returns the number of bytes written.
func WriteFile(path string, v any) (int, error) {
	data, err := Encode(v)
	if err != nil {
		return 0, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, eris.Wrapf(err, "jsonout: create directory %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, eris.Wrapf(err, "jsonout: write %s", path)
	}
	return len(data), nil
}
