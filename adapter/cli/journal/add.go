package journal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/moodlens/adapter/cli"
	"github.com/felixgeelhaar/moodlens/adapter/cli/mood"
	"github.com/felixgeelhaar/moodlens/internal/journal/application/commands"
)

var (
	addTitle   string
	addManual  string
	addTags    []string
	addCountry string
	addDate    string
)

var addCmd = &cobra.Command{
	Use:   "add <text...>",
	Short: "Write a journal entry",
	Long: `Write a journal entry. Its mood is classified on the spot.

If the text contains crisis language a helpline is printed.

Examples:
  moodlens journal add "Walked the dog, felt calm and relaxed"
  moodlens journal add --title "Monday" --tag work "Stressed about the deadline"
  moodlens journal add --manual grateful "Dinner with my sister"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := journalApp()
		if err != nil {
			return err
		}

		content := strings.Join(args, " ")
		if strings.TrimSpace(content) == "" {
			return errors.New("entry text is required")
		}

		manual, err := cli.ParseManualMood(addManual)
		if err != nil {
			return err
		}

		var writtenAt time.Time
		if addDate != "" {
			writtenAt, err = time.ParseInLocation("2006-01-02", addDate, time.Local)
			if err != nil {
				return fmt.Errorf("invalid date (use YYYY-MM-DD): %w", err)
			}
		}

		country := addCountry
		if country == "" {
			country = app.HelplineCountry
		}

		result, err := app.CreateEntryHandler.Handle(cmd.Context(), commands.CreateEntryCommand{
			UserID:     app.CurrentUserID,
			Title:      addTitle,
			Content:    content,
			ManualMood: manual,
			Tags:       addTags,
			Country:    country,
			WrittenAt:  writtenAt,
		})
		if err != nil {
			return fmt.Errorf("failed to add entry: %w", err)
		}
		if err := app.FlushEvents(cmd.Context()); err != nil {
			return fmt.Errorf("failed to relay events: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Entry saved!")
		fmt.Fprintln(out, strings.Repeat("-", 40))
		fmt.Fprintf(out, "  ID: %s\n", result.EntryID)
		mood.PrintClassification(out, result.Classification)
		if result.Helpline != nil {
			mood.PrintHelpline(out, *result.Helpline)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "entry title")
	addCmd.Flags().StringVarP(&addManual, "manual", "m", "", "manual mood override")
	addCmd.Flags().StringSliceVar(&addTags, "tag", nil, "tag (repeatable)")
	addCmd.Flags().StringVar(&addCountry, "country", "", "helpline country")
	addCmd.Flags().StringVar(&addDate, "date", "", "backdate the entry (YYYY-MM-DD)")
}
