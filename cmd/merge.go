package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/water-atlas/internal/config"
	"github.com/sells-group/water-atlas/internal/sdwa"
	"github.com/sells-group/water-atlas/internal/table"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge the SDWA extracts into one document keyed by PWSID",
	Long:  "Reads the public water system, violation, geographic area and reference code extracts, resolves code names and writes every system with its violations and geographic areas as indented JSON.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		applyMergeFlags(cmd, cfg)
		if err := cfg.Validate("merge"); err != nil {
			return err
		}

		ctx := cmd.Context()
		st := openRunLog(ctx)
		if st != nil {
			defer st.Close() //nolint:errcheck
		}
		return st.Track(ctx, "merge", func(ctx context.Context) (int64, error) {
			return runMerge(ctx, cfg, os.Stdout)
		})
	},
}

func init() {
	mergeCmd.Flags().String("data-dir", "", "directory holding the SDWA CSV extracts (default from merge.data_dir)")
	mergeCmd.Flags().String("out", "", "output file (default from merge.output)")
	mergeCmd.Flags().String("encoding", "", "character set of the CSV extracts (default from merge.encoding)")
	rootCmd.AddCommand(mergeCmd)
}

// applyMergeFlags copies explicitly set flags over the loaded config.
func applyMergeFlags(cmd *cobra.Command, c *config.Config) {
	for flag, dst := range map[string]*string{
		"data-dir": &c.Merge.DataDir,
		"out":      &c.Merge.Output,
		"encoding": &c.Merge.Encoding,
	} {
		if cmd.Flags().Changed(flag) {
			*dst, _ = cmd.Flags().GetString(flag)
		}
	}
}

func runMerge(ctx context.Context, c *config.Config, out io.Writer) (int64, error) {
	m := sdwa.NewMerger(sdwa.Paths{
		DataDir:    c.Merge.DataDir,
		Systems:    c.Merge.Systems,
		Violations: c.Merge.Violations,
		GeoAreas:   c.Merge.GeoAreas,
		RefCodes:   c.Merge.RefCodes,
		Output:     c.Merge.Output,
	}, table.Options{Charset: c.Merge.Encoding})

	_, _ = fmt.Fprintln(out, "Reading CSV files...")
	res, err := m.Run(ctx)
	if err != nil {
		return 0, err
	}

	_, _ = fmt.Fprintf(out, "Successfully created %s with %d water systems.\n", res.Output, res.Systems)
	return int64(res.Systems), nil
}
