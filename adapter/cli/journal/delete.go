package journal

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/moodlens/internal/journal/application/commands"
	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <entry-id>",
	Short:   "Delete a journal entry",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := journalApp()
		if err != nil {
			return err
		}
		if app.DeleteEntryHandler == nil {
			return errNoJournal
		}

		entryID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid entry ID: %w", err)
		}

		err = app.DeleteEntryHandler.Handle(cmd.Context(), commands.DeleteEntryCommand{
			UserID:  app.CurrentUserID,
			EntryID: entryID,
		})
		if errors.Is(err, domain.ErrEntryNotFound) {
			return fmt.Errorf("entry %s not found", entryID)
		}
		if err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Entry %s deleted.\n", entryID)
		return nil
	},
}
