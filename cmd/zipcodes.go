package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/water-atlas/internal/config"
	"github.com/sells-group/water-atlas/internal/fetcher"
	"github.com/sells-group/water-atlas/internal/zipcodes"
)

var zipcodesCmd = &cobra.Command{
	Use:   "zipcodes",
	Short: "Build the postal-code lookup from the GeoNames archive",
	Long:  "Downloads the GeoNames US postal-code archive, keeps one state's rows and writes {postal_code: {lat, lon}} as indented JSON.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		applyZipFlags(cmd, cfg)
		if err := cfg.Validate("zipcodes"); err != nil {
			return err
		}

		ctx := cmd.Context()
		st := openRunLog(ctx)
		if st != nil {
			defer st.Close() //nolint:errcheck
		}
		return st.Track(ctx, "zipcodes", func(ctx context.Context) (int64, error) {
			return runZipcodes(ctx, cfg, os.Stdout)
		})
	},
}

func init() {
	zipcodesCmd.Flags().String("url", "", "archive URL (default from zip.url)")
	zipcodesCmd.Flags().String("member", "", "archive member to read (default from zip.member)")
	zipcodesCmd.Flags().String("state", "", "admin_code1 value to keep (default from zip.state)")
	zipcodesCmd.Flags().String("out", "", "output file (default from zip.output)")
	rootCmd.AddCommand(zipcodesCmd)
}

// applyZipFlags copies explicitly set flags over the loaded config.
func applyZipFlags(cmd *cobra.Command, c *config.Config) {
	for flag, dst := range map[string]*string{
		"url":    &c.Zip.URL,
		"member": &c.Zip.Member,
		"state":  &c.Zip.State,
		"out":    &c.Zip.Output,
	} {
		if cmd.Flags().Changed(flag) {
			*dst, _ = cmd.Flags().GetString(flag)
		}
	}
}

func newFetcher(c *config.Config) fetcher.Fetcher {
	return fetcher.New(
		fetcher.HTTPOptions{
			UserAgent:    c.Fetch.UserAgent,
			Timeout:      c.Fetch.Timeout(),
			MaxRetries:   c.Fetch.MaxRetries,
			RateLimiters: fetcher.DefaultRateLimiters(),
		},
		fetcher.FTPOptions{Timeout: c.Fetch.Timeout()},
	)
}

func runZipcodes(ctx context.Context, c *config.Config, out io.Writer) (int64, error) {
	b := zipcodes.NewBuilder(newFetcher(c), zipcodes.Options{
		URL:    c.Zip.URL,
		Member: c.Zip.Member,
		State:  c.Zip.State,
		Output: c.Zip.Output,
	})
	opts := b.Options()

	_, _ = fmt.Fprintln(out, "Downloading zip code data...")
	res, err := b.Run(ctx)
	if err != nil {
		return 0, err
	}

	_, _ = fmt.Fprintf(out, "Successfully created %s with %d %s zip codes.\n", opts.Output, res.Entries, opts.State)
	return int64(res.Entries), nil
}
