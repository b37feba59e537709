package sdwa

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/water-atlas/internal/jsonout"
	"github.com/sells-group/water-atlas/internal/table"
)

// MergedSystem is one water system with its violations and geographic areas.
type MergedSystem struct {
	PWSID      string
	Systems    *table.Table
	Row        int
	Violations RowSet
	GeoAreas   RowSet
}

// MarshalJSON emits the system's own columns followed by the two nested
// collections, each re-keyed by ordinal position.
func (m *MergedSystem) MarshalJSON() ([]byte, error) {
	rec := m.Systems.Record(m.Row)
	rec.Set(KeyViolations, m.Violations)
	rec.Set(KeyGeoAreas, m.GeoAreas)
	return rec.MarshalJSON()
}

// Assembly is the output document plus counts gathered while building it.
type Assembly struct {
	Document   *jsonout.Object // PWSID → *MergedSystem
	Dropped    int             // system rows with a null PWSID
	Duplicates int             // system rows that replaced an earlier row with the same PWSID
	Violations int             // violation rows attached to some system
	GeoAreas   int             // geo-area rows attached to some system
}

// Assemble attaches each system's groups and keys the result by PWSID.
// Systems without a PWSID are excluded; systems without matches get empty
// collections.
func Assemble(systems *table.Table, violations, geoAreas *Grouping) *Assembly {
	col, _ := systems.Col(ColPWSID)
	a := &Assembly{Document: jsonout.NewObject(systems.Len())}

	for i, row := range systems.Rows {
		pwsid := table.KeyString(row[col])
		if pwsid == "" {
			a.Dropped++
			continue
		}
		m := &MergedSystem{
			PWSID:      pwsid,
			Systems:    systems,
			Row:        i,
			Violations: violations.Get(pwsid),
			GeoAreas:   geoAreas.Get(pwsid),
		}
		if prev, ok := a.Document.Get(pwsid); ok {
			p := prev.(*MergedSystem)
			a.Violations -= p.Violations.Len()
			a.GeoAreas -= p.GeoAreas.Len()
			a.Duplicates++
		}
		a.Document.Set(pwsid, m)
		a.Violations += m.Violations.Len()
		a.GeoAreas += m.GeoAreas.Len()
	}
	return a
}

// Result summarizes a completed merge.
type Result struct {
	Systems    int
	Violations int
	GeoAreas   int
	Dropped    int
	Duplicates int
	Unresolved int
	Bytes      int
	Output     string
}

// Merger runs the water-system merge pipeline.
type Merger struct {
	paths Paths
	opts  table.Options
}

// NewMerger creates a Merger. Empty path fields take the package defaults.
func NewMerger(paths Paths, opts table.Options) *Merger {
	return &Merger{paths: paths.withDefaults(), opts: opts}
}

// Paths returns the effective paths.
func (m *Merger) Paths() Paths { return m.paths }

// Build loads and joins the extracts without writing anything.
func (m *Merger) Build(ctx context.Context) (*Assembly, int, error) {
	log := zap.L().With(zap.String("pipeline", "sdwa"))

	log.Info("reading CSV files", zap.String("data_dir", m.paths.DataDir))
	t, err := LoadTables(ctx, m.paths, m.opts)
	if err != nil {
		return nil, 0, err
	}
	log.Info("tables loaded",
		zap.Int("systems", t.Systems.Len()),
		zap.Int("violations", t.Violations.Len()),
		zap.Int("geo_areas", t.GeoAreas.Len()),
		zap.Int("ref_codes", t.RefCodes.Len()),
	)

	log.Info("processing and merging data")
	dict := BuildCodeDictionary(t.RefCodes)
	unresolved := AnnotateViolations(t.Violations, dict)
	if unresolved > 0 {
		log.Debug("codes without a description", zap.Int("count", unresolved))
	}

	if n := table.NormalizeNulls(t.Systems, t.Violations, t.GeoAreas); n > 0 {
		log.Debug("non-finite values replaced with null", zap.Int("cells", n))
	}

	violations, geoAreas := GroupBy(t.Violations, ColPWSID), GroupBy(t.GeoAreas, ColPWSID)
	log.Debug("grouped by PWSID",
		zap.Int("violation_keys", violations.Len()),
		zap.Int("geo_area_keys", geoAreas.Len()),
	)

	a := Assemble(t.Systems, violations, geoAreas)
	if a.Dropped > 0 {
		log.Info("systems without PWSID skipped", zap.Int("count", a.Dropped))
	}
	if a.Duplicates > 0 {
		log.Warn("duplicate PWSID rows overwritten", zap.Int("count", a.Duplicates))
	}
	return a, unresolved, nil
}

// Run builds the merged document and writes it to the output path. On any
// failure before the write, the output file is left untouched.
func (m *Merger) Run(ctx context.Context) (*Result, error) {
	a, unresolved, err := m.Build(ctx)
	if err != nil {
		return nil, err
	}

	zap.L().Info("writing merged document", zap.String("path", m.paths.Output))
	n, err := jsonout.WriteFile(m.paths.Output, a.Document)
	if err != nil {
		return nil, eris.Wrap(err, "sdwa: write output")
	}

	return &Result{
		Systems:    a.Document.Len(),
		Violations: a.Violations,
		GeoAreas:   a.GeoAreas,
		Dropped:    a.Dropped,
		Duplicates: a.Duplicates,
		Unresolved: unresolved,
		Bytes:      n,
		Output:     m.paths.Output,
	}, nil
}
