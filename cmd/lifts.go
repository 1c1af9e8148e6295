package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smazurov/liftlights/internal/lifts"
)

// CreateLiftsCmd creates the lifts command, which prints the catalog with
// the LED each lift drives.
func CreateLiftsCmd(settings *Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "lifts",
		Short: "Print the lift catalog with LED indices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := lifts.LoadCatalog(settings.CatalogFile)
			if err != nil {
				return err
			}
			registry := lifts.NewRegistry(names)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "LED\tLIFT\tNOTE")
			fmt.Fprintf(w, "%d\t(heartbeat)\t\n", 0)
			for i, name := range registry.Names() {
				led := i + 1
				note := ""
				if idx, _ := registry.Lookup(name); idx != led {
					note = fmt.Sprintf("duplicate of LED %d, never lit", idx)
				} else if settings.LEDCount > 0 && led >= settings.LEDCount {
					note = "beyond end of strip"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", led, name, note)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			source := "built-in"
			if settings.CatalogFile != "" {
				source = settings.CatalogFile
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d lifts (%s), strip needs %d LEDs", registry.Len(), source, registry.Len()+1)
			if settings.LEDCount > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", configured %d", settings.LEDCount)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			if dups := registry.Duplicates(); len(dups) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "duplicates: %s\n", strings.Join(dups, ", "))
			}
			return nil
		},
	}
}
