package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smazurov/liftlights/internal/updater"
	"github.com/smazurov/liftlights/internal/version"
)

// CreateUpdateCmd creates the update command. Without --check it installs
// the newest release in place; the running service picks it up on restart.
func CreateUpdateCmd(settings *Settings) *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for or install a newer release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := updater.New(updater.Options{
				Repository: settings.UpdaterRepository,
				Prerelease: settings.UpdaterPrerelease,
			}, commandLogger("updater"))
			if err != nil {
				return err
			}
			if !u.Enabled() {
				return fmt.Errorf("updates disabled: %s", u.DisabledReason())
			}

			out := cmd.OutOrStdout()
			ctx := context.Background()

			if checkOnly {
				info, err := u.Check(ctx)
				if err != nil {
					return err
				}
				if !info.UpdateAvailable {
					fmt.Fprintf(out, "%s is up to date\n", info.CurrentVersion)
					return nil
				}
				fmt.Fprintf(out, "%s available (running %s)\n%s\n", info.LatestVersion, info.CurrentVersion, info.ReleaseURL)
				return nil
			}

			info, err := u.Apply(ctx)
			if updater.CodeOf(err) == updater.ErrCodeNoUpdate {
				fmt.Fprintf(out, "%s is up to date\n", version.Version)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Installed %s; restart the %s service to run it\n", info.LatestVersion, version.Name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether a newer release exists")
	return cmd
}
