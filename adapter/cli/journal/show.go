package journal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/moodlens/internal/journal/application/queries"
	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
)

var showCmd = &cobra.Command{
	Use:   "show <entry-id>",
	Short: "Show a journal entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := journalApp()
		if err != nil {
			return err
		}

		entryID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid entry ID: %w", err)
		}

		entry, err := app.GetEntryHandler.Handle(cmd.Context(), queries.GetEntryQuery{
			UserID:  app.CurrentUserID,
			EntryID: entryID,
		})
		if errors.Is(err, domain.ErrEntryNotFound) {
			return fmt.Errorf("entry %s not found", entryID)
		}
		if err != nil {
			return fmt.Errorf("failed to load entry: %w", err)
		}

		out := cmd.OutOrStdout()
		printEntry(out, *entry)
		if len(entry.MatchedKeywords) > 0 {
			fmt.Fprintf(out, "  Keywords:   %s\n", strings.Join(entry.MatchedKeywords, ", "))
		}
		fmt.Fprintf(out, "  Reasoning:  %s\n", entry.Reasoning)
		fmt.Fprintln(out, strings.Repeat("-", 40))
		fmt.Fprintln(out, entry.Content)
		return nil
	},
}
