package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/water-atlas/internal/failure"
)

func TestDiagnostic(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "network",
			err:  failure.Errorf(failure.Network, "download: unexpected status 404 from http://x/US.zip"),
			want: "Error downloading the file: download: unexpected status 404 from http://x/US.zip",
		},
		{
			name: "not found",
			err:  failure.Errorf(failure.NotFound, "no such file: data/SDWA_PUB_WATER_SYSTEMS.csv"),
			want: "Error: no such file: data/SDWA_PUB_WATER_SYSTEMS.csv. Make sure you are in the project root directory.",
		},
		{
			name: "archive",
			err:  failure.Errorf(failure.Archive, "zip: not a valid zip file"),
			want: "Error reading the archive: zip: not a valid zip file",
		},
		{
			name: "parse",
			err:  failure.Errorf(failure.Parse, "zipcodes: row 3: bad latitude"),
			want: "Error parsing the data: zipcodes: row 3: bad latitude",
		},
		{
			name: "unexpected",
			err:  errors.New("disk full"),
			want: "An error occurred: disk full",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, diagnostic(tt.err))
		})
	}
}

func TestDiagnostic_KindSurvivesWrapping(t *testing.T) {
	err := eris.Wrap(failure.Errorf(failure.NotFound, "no such file: x.csv"), "sdwa: load tables")
	assert.Contains(t, diagnostic(err), "Make sure you are in the project root directory.")
}

func TestReportError(t *testing.T) {
	var buf bytes.Buffer
	reportError(&buf, errors.New("boom"))
	assert.Equal(t, "An error occurred: boom\n", buf.String())
}
