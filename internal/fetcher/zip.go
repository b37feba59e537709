package fetcher

import (
	"archive/zip"
	"bytes"
	"io"

	"github.com/rotisserie/eris"
)

// ReadZIPMember opens an in-memory ZIP archive and returns the contents of
// the member with the given name.
func ReadZIPMember(data []byte, name string) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, eris.Wrap(err, "zip: open archive")
	}

	for _, f := range r.File {
		if f.Name != name || f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, eris.Wrapf(err, "zip: open entry %q", name)
		}
		defer rc.Close() //nolint:errcheck

		out, err := io.ReadAll(rc)
		if err != nil {
			return nil, eris.Wrapf(err, "zip: read entry %q", name)
		}
		return out, nil
	}

	return nil, eris.Errorf("zip: file %q not found in archive", name)
}

// ZIPMembers lists the file names in an in-memory ZIP archive, skipping directories.
func ZIPMembers(data []byte) ([]string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, eris.Wrap(err, "zip: open archive")
	}
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			names = append(names, f.Name)
		}
	}
	return names, nil
}
