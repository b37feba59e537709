package fetcher

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrInvalidUTF8 is returned while reading a UTF-8 stream that holds bytes
// outside the encoding.
var ErrInvalidUTF8 = encoding.ErrInvalidUTF8

// DecodeReader wraps r so it yields UTF-8. An empty charset or any UTF-8
// label strips a leading byte order mark and fails with ErrInvalidUTF8 on
// malformed input; other labels ("windows-1252", "latin1", ...) are resolved
// through the WHATWG encoding index.
func DecodeReader(r io.Reader, charset string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		// Validate before decoding; the decoder would turn bad bytes into U+FFFD.
		return unicode.UTF8BOM.NewDecoder().Reader(transform.NewReader(r, encoding.UTF8Validator)), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(r), nil
}
