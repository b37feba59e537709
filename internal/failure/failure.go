// Package failure classifies pipeline errors so the CLI can report them by kind.
package failure

import (
	"errors"
	"io/fs"

	"github.com/rotisserie/eris"
)

// Kind identifies the stage-level category of a pipeline failure.
type Kind int

const (
	Unexpected Kind = iota // anything not classified below
	Network                // download/transport failure or bad HTTP status
	Archive                // corrupt archive or missing member
	Parse                  // malformed row or missing required column
	NotFound               // missing local input file
)

// String returns the taxonomy name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case Network:
		return "NetworkError"
	case Archive:
		return "ArchiveError"
	case Parse:
		return "ParseError"
	case NotFound:
		return "FileNotFoundError"
	default:
		return "UnexpectedError"
	}
}

// Error wraps an error with its failure kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap annotates err with msg via eris and classifies it as kind.
// A nil err yields nil.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: eris.Wrap(err, msg)}
}

// Errorf builds a new classified error from a format string.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: eris.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in err's chain.
// Unclassified errors that wrap fs.ErrNotExist are reported as NotFound.
func KindOf(err error) Kind {
	if err == nil {
		return Unexpected
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, fs.ErrNotExist) {
		return NotFound
	}
	return Unexpected
}
