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
	listLimit  int
	listOffset int
	listMood   string
	listJSON   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries, newest first",
	Long: `List journal entries, newest first.

Examples:
  moodlens journal list
  moodlens journal list --mood anxious --limit 5`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := journalApp()
		if err != nil {
			return err
		}

		query := queries.ListEntriesQuery{
			UserID: app.CurrentUserID,
			Limit:  listLimit,
			Offset: listOffset,
		}
		if listMood != "" {
			m, err := domain.ParseMood(listMood)
			if err != nil {
				return err
			}
			query.Mood = &m
		}

		result, err := app.ListEntriesHandler.Handle(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		out := cmd.OutOrStdout()
		if listJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		if len(result.Entries) == 0 {
			fmt.Fprintln(out, "No entries found.")
			return nil
		}

		fmt.Fprintf(out, "Entries (%d of %d)\n", len(result.Entries), result.Total)
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, e := range result.Entries {
			fmt.Fprintf(out, "%s  %-9s %s  %s\n",
				e.CreatedAt.Local().Format("2006-01-02"),
				e.Mood,
				e.ID.String()[:8],
				preview(e.Content, 48),
			)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", queries.DefaultListLimit, "maximum entries")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "entries to skip")
	listCmd.Flags().StringVar(&listMood, "mood", "", "only entries with this mood")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print as JSON")
}
