package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smazurov/liftlights/internal/display"
	"github.com/smazurov/liftlights/internal/fetch"
	"github.com/smazurov/liftlights/internal/lifts"
	"github.com/smazurov/liftlights/internal/status"
)

// CreateCheckCmd creates the check command: one fetch and parse, printed
// as the strip would show it.
func CreateCheckCmd(settings *Settings) *cobra.Command {
	var url string
	var raw bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Fetch the lift status once and print the resulting colours",
		Long: `Performs one status request, decodes it and prints every entry with its LED index and colour. ` +
			`Nothing is written to the strip.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if url == "" {
				url = settings.SourceURL
			}
			if url == "" {
				return fmt.Errorf("no status URL: set source.url or pass --url")
			}

			names, err := lifts.LoadCatalog(settings.CatalogFile)
			if err != nil {
				return err
			}
			registry := lifts.NewRegistry(names)

			var opts []fetch.Option
			if settings.SourceTimeout > 0 {
				opts = append(opts, fetch.WithTimeout(settings.SourceTimeout))
			}
			fetcher, err := fetch.New(url, commandLogger("fetch"), opts...)
			if err != nil {
				return err
			}

			payload, err := fetcher.Fetch(context.Background())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if raw {
				fmt.Fprintf(out, "%s\n", payload)
			}

			entries, err := status.Parse(payload)
			if err != nil {
				return err
			}

			return printEntries(cmd, registry, settings.LEDCount, entries)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Status endpoint (defaults to source.url)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Also print the response body")
	return cmd
}

func printEntries(cmd *cobra.Command, registry *lifts.Registry, ledCount int, entries []status.Entry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LIFT\tLED\tSTATUS\tCOLOUR\tNOTE")

	var unmatched int
	for _, e := range entries {
		idx, ok := registry.Lookup(e.Name)
		if !ok {
			unmatched++
			fmt.Fprintf(w, "%s\t-\t%s\t-\tnot in catalog\n", e.Name, e.Report)
			continue
		}
		note := ""
		if e.Report.Present && !e.Report.Status.Known() {
			note = "unrecognized status"
		}
		if ledCount > 0 && idx >= ledCount {
			note = "beyond end of strip"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", e.Name, idx, e.Report, display.ColorFor(e.Report), note)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d entries, %d not in catalog\n", len(entries), unmatched)
	return nil
}
