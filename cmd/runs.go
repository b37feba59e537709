package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/water-atlas/internal/runlog"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List pipeline run history",
	Long:  "Prints recorded zipcodes and merge runs, most recent first. Requires runlog.path to be set.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("runs"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := runlog.Open(ctx, cfg.RunLog.Path, nil)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		pipeline, _ := cmd.Flags().GetString("pipeline")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")

		entries, err := st.List(ctx, runlog.Filter{
			Pipeline: pipeline,
			Status:   runlog.Status(status),
			Limit:    limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs")
		}

		if len(entries) == 0 && format == "table" {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}
		return writeRuns(os.Stdout, entries, format)
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("runs"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := runlog.Open(ctx, cfg.RunLog.Path, nil)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.Get(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		format, _ := cmd.Flags().GetString("format")
		return writeRun(os.Stdout, run, format)
	},
}

func init() {
	runsShowCmd.Flags().String("format", "json", "output format (json, yaml)")
	runsCmd.AddCommand(runsShowCmd)

	runsCmd.Flags().String("pipeline", "", "filter by pipeline (zipcodes, merge)")
	runsCmd.Flags().String("status", "", "filter by run status (running, complete, failed)")
	runsCmd.Flags().Int("limit", 20, "max number of runs to display")
	runsCmd.Flags().String("format", "table", "output format (table, json, yaml)")
	rootCmd.AddCommand(runsCmd)
}

// writeRuns renders entries in the requested format.
func writeRuns(out io.Writer, entries []runlog.Entry, format string) error {
	if entries == nil {
		entries = []runlog.Entry{}
	}
	switch format {
	case "table":
		formatRunsList(out, entries)
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return eris.Wrap(err, "runs: encode yaml")
		}
		return enc.Close()
	default:
		return eris.Errorf("runs: unknown format %q", format)
	}
}

// writeRun renders a single run with every field, including the full error.
func writeRun(out io.Writer, run *runlog.Entry, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(run); err != nil {
			return eris.Wrap(err, "runs show: encode yaml")
		}
		return enc.Close()
	default:
		return eris.Errorf("runs show: unknown format %q", format)
	}
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, entries []runlog.Entry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPIPELINE\tSTATUS\tROWS\tSTARTED\tDURATION\tERROR")
	_, _ = fmt.Fprintln(w, "--\t--------\t------\t----\t-------\t--------\t-----")

	for _, e := range entries {
		dur := ""
		if e.CompletedAt != nil {
			dur = e.Duration().Round(time.Second).String()
		}

		errMsg := e.Error
		if len(errMsg) > 40 {
			errMsg = errMsg[:37] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			truncateID(e.ID),
			e.Pipeline,
			e.Status,
			e.Rows,
			e.StartedAt.Format("2006-01-02 15:04"),
			dur,
			errMsg,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
