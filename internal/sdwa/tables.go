// Package sdwa merges Safe Drinking Water Act extracts (public water
// systems, violations, geographic areas and reference codes) into one JSON
// document keyed by PWSID.
package sdwa

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/water-atlas/internal/table"
)

// Default input and output locations.
const (
	DefaultDataDir    = "data"
	SystemsFile       = "SDWA_PUB_WATER_SYSTEMS.csv"
	ViolationsFile    = "SDWA_VIOLATIONS_ENFORCEMENT.csv"
	GeoAreasFile      = "SDWA_GEOGRAPHIC_AREAS.csv"
	RefCodesFile      = "SDWA_REF_CODE_VALUES.csv"
	DefaultOutputFile = "data.json"
)

// Column names the merge depends on.
const (
	ColPWSID            = "PWSID"
	ColViolationCode    = "VIOLATION_CODE"
	ColContaminantCode  = "CONTAMINANT_CODE"
	ColViolationName    = "VIOLATION_NAME"
	ColContaminantName  = "CONTAMINANT_NAME"
	ColValueCode        = "VALUE_CODE"
	ColValueDescription = "VALUE_DESCRIPTION"
)

// Output keys for the nested collections.
const (
	KeyViolations = "violations"
	KeyGeoAreas   = "geo_areas"
)

// Paths locates the four input extracts and the output document. File names
// are joined to DataDir unless absolute.
type Paths struct {
	DataDir    string
	Systems    string
	Violations string
	GeoAreas   string
	RefCodes   string
	Output     string
}

func (p Paths) withDefaults() Paths {
	if p.DataDir == "" {
		p.DataDir = DefaultDataDir
	}
	if p.Systems == "" {
		p.Systems = SystemsFile
	}
	if p.Violations == "" {
		p.Violations = ViolationsFile
	}
	if p.GeoAreas == "" {
		p.GeoAreas = GeoAreasFile
	}
	if p.RefCodes == "" {
		p.RefCodes = RefCodesFile
	}
	if p.Output == "" {
		p.Output = DefaultOutputFile
	}
	return p
}

func (p Paths) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.DataDir, name)
}

// Tables holds the four loaded extracts.
type Tables struct {
	Systems    *table.Table
	Violations *table.Table
	GeoAreas   *table.Table
	RefCodes   *table.Table
}

// textColumns are join keys and codes; they keep their source text so that
// codes like "03" are not read as numbers.
var textColumns = []string{
	ColPWSID,
	ColViolationCode,
	ColContaminantCode,
	ColValueCode,
	ColValueDescription,
}

// LoadTables reads all four extracts fully into memory. The first missing
// file stops the load with a NotFound failure naming its path. Required
// columns are checked once everything is loaded.
func LoadTables(ctx context.Context, p Paths, opts table.Options) (*Tables, error) {
	p = p.withDefaults()
	opts.TextColumns = append(append([]string(nil), opts.TextColumns...), textColumns...)

	var t Tables
	for _, src := range []struct {
		dst  **table.Table
		name string
	}{
		{&t.Systems, p.Systems},
		{&t.Violations, p.Violations},
		{&t.GeoAreas, p.GeoAreas},
		{&t.RefCodes, p.RefCodes},
	} {
		tbl, err := table.LoadFile(ctx, p.resolve(src.name), opts)
		if err != nil {
			return nil, eris.Wrap(err, "sdwa: load tables")
		}
		*src.dst = tbl
	}

	for _, check := range []struct {
		tbl  *table.Table
		cols []string
	}{
		{t.Systems, []string{ColPWSID}},
		{t.Violations, []string{ColPWSID, ColViolationCode, ColContaminantCode}},
		{t.GeoAreas, []string{ColPWSID}},
		{t.RefCodes, []string{ColValueCode, ColValueDescription}},
	} {
		if err := check.tbl.Require(check.cols...); err != nil {
			return nil, err
		}
	}
	return &t, nil
}
