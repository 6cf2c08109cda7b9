package journal

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/moodlens/adapter/cli"
	"github.com/felixgeelhaar/moodlens/internal/journal/application/queries"
)

// Cmd is the journal command group
var Cmd = &cobra.Command{
	Use:   "journal",
	Short: "Manage journal entries",
	Long:  `Write, list, reclassify, and review the mood of your journal entries.`,
}

// errNoJournal is returned when journal handlers are not wired.
var errNoJournal = errors.New("journal commands require a database connection")

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(reclassifyCmd)
	Cmd.AddCommand(trendCmd)
	Cmd.AddCommand(exportCmd)
}

func journalApp() (*cli.App, error) {
	app := cli.GetApp()
	if !app.HasJournal() {
		return nil, errNoJournal
	}
	return app, nil
}

func printEntry(w io.Writer, e queries.EntryDTO) {
	fmt.Fprintf(w, "  ID:         %s\n", e.ID)
	if e.Title != "" {
		fmt.Fprintf(w, "  Title:      %s\n", e.Title)
	}
	fmt.Fprintf(w, "  Mood:       %s", e.Mood)
	if e.ManualMood != nil {
		fmt.Fprintf(w, " (detected %s)", e.DetectedMood)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Confidence: %.2f\n", e.Confidence)
	if len(e.Tags) > 0 {
		fmt.Fprintf(w, "  Tags:       %s\n", strings.Join(e.Tags, ", "))
	}
	fmt.Fprintf(w, "  Written:    %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04"))
}

func preview(content string, n int) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= n {
		return content
	}
	return string(runes[:n-3]) + "..."
}
