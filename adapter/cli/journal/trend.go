package journal

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/moodlens/internal/journal/application/queries"
	"github.com/felixgeelhaar/moodlens/internal/mood/domain"
)

var (
	trendLimit int
	trendJSON  bool
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show the mood trend of recent entries",
	Long: `Show the dominant mood, trend direction, mood distribution,
insights and recurring themes over the most recent entries.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := journalApp()
		if err != nil {
			return err
		}
		if app.GetMoodTrendHandler == nil {
			return errNoJournal
		}

		limit := trendLimit
		if limit <= 0 {
			limit = app.TrendWindow
		}

		report, err := app.GetMoodTrendHandler.Handle(cmd.Context(), queries.GetMoodTrendQuery{
			UserID: app.CurrentUserID,
			Limit:  limit,
		})
		if err != nil {
			return fmt.Errorf("failed to build trend: %w", err)
		}

		out := cmd.OutOrStdout()
		if trendJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		fmt.Fprintf(out, "Mood trend (last %d entries)\n", report.EntryCount)
		fmt.Fprintln(out, strings.Repeat("-", 40))
		fmt.Fprintf(out, "  Dominant:  %s\n", report.DominantMood)
		fmt.Fprintf(out, "  Direction: %s\n", report.TrendDirection)

		if report.EntryCount > 0 {
			fmt.Fprintln(out, "\nDistribution:")
			for _, m := range domain.AllMoods() {
				if n := report.MoodDistribution[m]; n > 0 {
					fmt.Fprintf(out, "  %-9s %s %d\n", m, strings.Repeat("#", n), n)
				}
			}
		}

		if len(report.Insights) > 0 {
			fmt.Fprintln(out, "\nInsights:")
			for _, insight := range report.Insights {
				fmt.Fprintf(out, "  - %s\n", insight)
			}
		}

		if len(report.Themes) > 0 {
			fmt.Fprintln(out, "\nRecurring themes:")
			for _, theme := range report.Themes {
				fmt.Fprintf(out, "  %s (%d)\n", theme.Term, theme.Count)
			}
		}
		return nil
	},
}

func init() {
	trendCmd.Flags().IntVarP(&trendLimit, "limit", "n", 0, "entries in the window (default from TREND_HISTORY_LIMIT)")
	trendCmd.Flags().BoolVar(&trendJSON, "json", false, "print as JSON")
}
