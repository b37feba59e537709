package main

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/water-atlas/internal/config"
	"github.com/sells-group/water-atlas/internal/failure"
	"github.com/sells-group/water-atlas/internal/runlog"
)

func testConfig(dir string) *config.Config {
	c := &config.Config{}
	c.Zip.Member = "US.txt"
	c.Zip.State = "GA"
	c.Zip.Output = filepath.Join(dir, "zip_codes.json")
	c.Merge.DataDir = filepath.Join(dir, "data")
	c.Merge.Output = filepath.Join(dir, "data.json")
	c.Merge.Encoding = "utf-8"
	c.Fetch.MaxRetries = 1
	c.Fetch.TimeoutSecs = 5
	return c
}

func serveArchive(t *testing.T, lines ...string) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.Create("US.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/export/zip/US.zip"
}

func TestRunZipcodes(t *testing.T) {
	dir := t.TempDir()
	c := testConfig(dir)
	c.Zip.URL = serveArchive(t,
		"US\t30301\tAtlanta\tGeorgia\tGA\tFulton\t121\t\t\t33.7490\t-84.3880\t4",
		"US\t35004\tMoody\tAlabama\tAL\tSt. Clair\t115\t\t\t33.6035\t-86.4668\t4",
	)

	var out bytes.Buffer
	n, err := runZipcodes(context.Background(), c, &out)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Contains(t, out.String(), "Downloading zip code data...")
	assert.Contains(t, out.String(), "with 1 GA zip codes.")

	data, err := os.ReadFile(c.Zip.Output)
	require.NoError(t, err)
	assert.JSONEq(t, `{"30301": {"lat": 33.749, "lon": -84.388}}`, string(data))
}

func TestRunZipcodes_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := testConfig(t.TempDir())
	c.Zip.URL = srv.URL + "/US.zip"

	_, err := runZipcodes(context.Background(), c, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, failure.Network, failure.KindOf(err))
	assert.True(t, strings.HasPrefix(diagnostic(err), "Error downloading the file:"))
	assert.NoFileExists(t, c.Zip.Output)
}

func writeExtracts(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	files := map[string]string{
		"SDWA_PUB_WATER_SYSTEMS.csv":      "PWSID,PWS_NAME\nGA1234567,Atlanta Water\n",
		"SDWA_VIOLATIONS_ENFORCEMENT.csv": "PWSID,VIOLATION_CODE,CONTAMINANT_CODE\nGA1234567,03,1040\n",
		"SDWA_GEOGRAPHIC_AREAS.csv":       "PWSID,COUNTY_SERVED\nGA1234567,Fulton\n",
		"SDWA_REF_CODE_VALUES.csv":        "VALUE_CODE,VALUE_DESCRIPTION\n03,Monitoring Violation\n1040,Nitrate\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func TestRunMerge(t *testing.T) {
	dir := t.TempDir()
	c := testConfig(dir)
	writeExtracts(t, c.Merge.DataDir)

	var out bytes.Buffer
	n, err := runMerge(context.Background(), c, &out)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Contains(t, out.String(), "Reading CSV files...")
	assert.Contains(t, out.String(), "with 1 water systems.")

	data, err := os.ReadFile(c.Merge.Output)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"GA1234567": {
			"PWSID": "GA1234567",
			"PWS_NAME": "Atlanta Water",
			"violations": {"0": {
				"PWSID": "GA1234567",
				"VIOLATION_CODE": "03",
				"CONTAMINANT_CODE": "1040",
				"VIOLATION_NAME": "Monitoring Violation",
				"CONTAMINANT_NAME": "Nitrate"
			}},
			"geo_areas": {"0": {"PWSID": "GA1234567", "COUNTY_SERVED": "Fulton"}}
		}
	}`, string(data))
}

func TestRunMerge_MissingDataDir(t *testing.T) {
	c := testConfig(t.TempDir())

	_, err := runMerge(context.Background(), c, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, failure.NotFound, failure.KindOf(err))
	assert.Contains(t, diagnostic(err), "Make sure you are in the project root directory.")
	assert.NoFileExists(t, c.Merge.Output)
}

func TestRunMerge_TrackedInRunLog(t *testing.T) {
	dir := t.TempDir()
	c := testConfig(dir)
	writeExtracts(t, c.Merge.DataDir)

	ctx := context.Background()
	st, err := runlog.Open(ctx, filepath.Join(dir, "runs.db"), nil)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	require.NoError(t, st.Track(ctx, "merge", func(ctx context.Context) (int64, error) {
		return runMerge(ctx, c, &bytes.Buffer{})
	}))

	entries, err := st.List(ctx, runlog.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, runlog.StatusComplete, entries[0].Status)
	assert.Equal(t, int64(1), entries[0].Rows)

	run, err := st.Get(ctx, entries[0].ID)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, writeRun(&buf, run, "json"))
	assert.Contains(t, buf.String(), `"pipeline": "merge"`)
}
