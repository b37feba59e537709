package failure

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Network, "NetworkError"},
		{Archive, "ArchiveError"},
		{Parse, "ParseError"},
		{NotFound, "FileNotFoundError"},
		{Unexpected, "UnexpectedError"},
		{Kind(42), "UnexpectedError"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.NoError(t, Wrap(Network, nil, "download"))
}

func TestKindOf_SurvivesErisWrapping(t *testing.T) {
	base := Wrap(Archive, errors.New("zip: not a valid zip file"), "open archive")
	wrapped := eris.Wrap(base, "zipcodes: extract")

	assert.Equal(t, Archive, KindOf(wrapped))
	assert.Contains(t, wrapped.Error(), "not a valid zip file")
}

func TestKindOf_OutermostWins(t *testing.T) {
	inner := Errorf(Parse, "line %d: bad latitude", 3)
	outer := &Error{Kind: Network, Err: inner}
	assert.Equal(t, Network, KindOf(outer))
}

func TestKindOf_MissingFileIsNotFound(t *testing.T) {
	_, err := os.Open(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	require.True(t, errors.Is(err, fs.ErrNotExist))

	assert.Equal(t, NotFound, KindOf(eris.Wrap(err, "open")))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, Unexpected, KindOf(errors.New("boom")))
	assert.Equal(t, Unexpected, KindOf(nil))
}
