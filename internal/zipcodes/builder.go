package zipcodes

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/water-atlas/internal/failure"
	"github.com/sells-group/water-atlas/internal/fetcher"
	"github.com/sells-group/water-atlas/internal/jsonout"
)

// Defaults for Options.
const (
	DefaultURL    = "https://download.geonames.org/export/zip/US.zip"
	DefaultMember = "US.txt"
	DefaultState  = "GA"
	DefaultOutput = "zip_codes.json"
)

// Options configures a Builder.
type Options struct {
	URL    string // archive location (http, https or ftp)
	Member string // archive member holding the postal-code table
	State  string // admin_code1 value to keep; exact, case-sensitive
	Output string // JSON file to write
}

func (o Options) withDefaults() Options {
	if o.URL == "" {
		o.URL = DefaultURL
	}
	if o.Member == "" {
		o.Member = DefaultMember
	}
	if o.State == "" {
		o.State = DefaultState
	}
	if o.Output == "" {
		o.Output = DefaultOutput
	}
	return o
}

// Result summarizes a completed build.
type Result struct {
	Parsed     int // rows in the source table
	Matched    int // rows whose admin_code1 equals the state
	Entries    int // keys written
	Duplicates int // matched rows that overwrote an earlier postal code
	Bytes      int
}

// Builder runs the zip-lookup pipeline: fetch, extract, parse, filter,
// project, write.
type Builder struct {
	opts    Options
	fetcher fetcher.Fetcher
}

// NewBuilder creates a Builder. Empty option fields take the package defaults.
func NewBuilder(f fetcher.Fetcher, opts Options) *Builder {
	return &Builder{opts: opts.withDefaults(), fetcher: f}
}

// Options returns the effective options.
func (b *Builder) Options() Options { return b.opts }

// Run executes every stage. Nothing is written unless all earlier stages succeed.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	log := zap.L().With(zap.String("pipeline", "zipcodes"))

	log.Info("downloading zip code data", zap.String("url", b.opts.URL))
	archive, err := FetchArchive(ctx, b.fetcher, b.opts.URL)
	if err != nil {
		return nil, err
	}

	log.Info("extracting data from zip archive", zap.String("member", b.opts.Member), zap.Int("archive_bytes", len(archive)))
	member, err := ExtractMember(archive, b.opts.Member)
	if err != nil {
		return nil, err
	}

	log.Info("processing zip code data")
	records, err := ParseTable(ctx, bytes.NewReader(member))
	if err != nil {
		return nil, err
	}

	log.Info("filtering zip codes", zap.String("state", b.opts.State), zap.Int("rows", len(records)))
	matched := FilterRows(records, b.opts.State)
	lookup, dups := Project(matched)
	if dups > 0 {
		log.Warn("duplicate postal codes overwritten", zap.Int("duplicates", dups))
	}

	n, err := jsonout.WriteFile(b.opts.Output, lookup)
	if err != nil {
		return nil, eris.Wrap(err, "zipcodes: write output")
	}

	res := &Result{
		Parsed:     len(records),
		Matched:    len(matched),
		Entries:    lookup.Len(),
		Duplicates: dups,
		Bytes:      n,
	}
	log.Info("zip lookup written",
		zap.String("path", b.opts.Output),
		zap.Int("entries", res.Entries),
	)
	return res, nil
}

// FetchArchive downloads the archive into memory. Any transport failure or
// non-success status is a Network failure.
func FetchArchive(ctx context.Context, f fetcher.Fetcher, rawURL string) ([]byte, error) {
	data, err := fetcher.DownloadBytes(ctx, f, rawURL)
	if err != nil {
		return nil, failure.Wrap(failure.Network, err, "zipcodes: fetch archive")
	}
	return data, nil
}

// ExtractMember returns the named member of an in-memory archive. A corrupt
// archive or absent member is an Archive failure.
func ExtractMember(archive []byte, name string) ([]byte, error) {
	data, err := fetcher.ReadZIPMember(archive, name)
	if err == nil {
		return data, nil
	}
	if names, listErr := fetcher.ZIPMembers(archive); listErr == nil {
		return nil, failure.Wrap(failure.Archive, err,
			"zipcodes: extract member (archive has: "+strings.Join(names, ", ")+")")
	}
	return nil, failure.Wrap(failure.Archive, err, "zipcodes: extract member")
}

// ParseTable parses the tab-separated, header-less postal-code table. Every
// row must have exactly twelve columns and numeric coordinates; the first
// malformed row aborts the parse with a Parse failure.
func ParseTable(ctx context.Context, r io.Reader) ([]Record, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	decoded, err := fetcher.DecodeReader(r, "")
	if err != nil {
		return nil, eris.Wrap(err, "zipcodes: decode")
	}

	rowCh, errCh := fetcher.StreamCSV(ctx, decoded, fetcher.CSVOptions{
		Delimiter:       '\t',
		FieldsPerRecord: len(Columns),
		LazyQuotes:      true,
	})

	var records []Record
	for row := range rowCh {
		rec, err := parseRecord(row)
		if err != nil {
			return nil, failure.Wrap(failure.Parse, err, "zipcodes: row "+strconv.Itoa(len(records)+1))
		}
		records = append(records, rec)
	}
	if err := <-errCh; err != nil {
		if errors.Is(err, fetcher.ErrInvalidUTF8) {
			return nil, failure.Wrap(failure.Parse, err, "zipcodes: parse table: member is not valid UTF-8")
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, failure.Wrap(failure.Parse, err, "zipcodes: parse table")
		}
		return nil, eris.Wrap(err, "zipcodes: parse table")
	}
	return records, nil
}

func parseRecord(row []string) (Record, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(row[9]), 64)
	if err != nil {
		return Record{}, eris.Wrapf(err, "latitude %q", row[9])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(row[10]), 64)
	if err != nil {
		return Record{}, eris.Wrapf(err, "longitude %q", row[10])
	}
	return Record{
		CountryCode: row[0],
		PostalCode:  row[1],
		PlaceName:   row[2],
		AdminName1:  row[3],
		AdminCode1:  row[4],
		AdminName2:  row[5],
		AdminCode2:  row[6],
		AdminName3:  row[7],
		AdminCode3:  row[8],
		Latitude:    lat,
		Longitude:   lon,
		Accuracy:    row[11],
	}, nil
}

// FilterRows keeps records whose AdminCode1 equals state exactly.
func FilterRows(records []Record, state string) []Record {
	var out []Record
	for _, r := range records {
		if r.AdminCode1 == state {
			out = append(out, r)
		}
	}
	return out
}

// Project builds the lookup table keyed by zero-padded postal code. A later
// record with the same code replaces the earlier value but keeps its
// position. Returns the table and the number of replaced entries.
func Project(records []Record) (*jsonout.Object, int) {
	lookup := jsonout.NewObject(len(records))
	dups := 0
	for _, r := range records {
		if lookup.Set(PadPostalCode(r.PostalCode), Coord{Lat: r.Latitude, Lon: r.Longitude}) {
			dups++
		}
	}
	return lookup, dups
}
