package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

var healthJSON bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check storage, cache and event transport",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Health == nil {
			return fmt.Errorf("app not initialized")
		}

		report := app.Health.Check(cmd.Context())
		out := cmd.OutOrStdout()
		if healthJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(out, "Status: %s\n", report.Status)
			names := make([]string, 0, len(report.Checks))
			for name := range report.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				check := report.Checks[name]
				fmt.Fprintf(out, "  %-16s %-9s %s\n", name, check.Status, check.Message)
			}
		}

		if report.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("unhealthy")
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(healthCmd)
}
