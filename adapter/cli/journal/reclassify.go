package journal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/moodlens/internal/journal/application/commands"
)

var reclassifyWorkers int

var reclassifyCmd = &cobra.Command{
	Use:   "reclassify",
	Short: "Re-run the classifier over every entry",
	Long: `Re-run the classifier over every entry and save those whose
classification changed. Run it after upgrading to new lexicons.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := journalApp()
		if err != nil {
			return err
		}
		if app.ReclassifyEntriesHandler == nil {
			return errNoJournal
		}

		workers := reclassifyWorkers
		if workers <= 0 {
			workers = app.ReclassifyWorkers
		}

		result, err := app.ReclassifyEntriesHandler.Handle(cmd.Context(), commands.ReclassifyEntriesCommand{
			UserID:  app.CurrentUserID,
			Workers: workers,
			Country: app.HelplineCountry,
		})
		if err != nil {
			return fmt.Errorf("failed to reclassify entries: %w", err)
		}
		if err := app.FlushEvents(cmd.Context()); err != nil {
			return fmt.Errorf("failed to relay events: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Processed: %d\n", result.Processed)
		fmt.Fprintf(out, "Changed:   %d\n", result.Changed)
		if result.SafetyAlerts > 0 {
			fmt.Fprintf(out, "Safety alerts raised: %d\n", result.SafetyAlerts)
		}
		return nil
	},
}

func init() {
	reclassifyCmd.Flags().IntVarP(&reclassifyWorkers, "workers", "w", 0, "concurrent workers (default from RECLASSIFY_WORKERS)")
}
