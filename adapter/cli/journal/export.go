package journal

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/moodlens/adapter/cli"
	"github.com/felixgeelhaar/moodlens/internal/journal/application/queries"
)

const exportPageSize = 100

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every journal entry",
	Long: `Export every journal entry with its classification, oldest first.

Examples:
  moodlens journal export                      # JSON to stdout
  moodlens journal export --format csv -o moods.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := journalApp()
		if err != nil {
			return err
		}

		entries, err := allEntries(cmd, app)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if exportOutput != "" {
			f, err := os.OpenFile(exportOutput, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
			if err != nil {
				return fmt.Errorf("failed to open output: %w", err)
			}
			defer f.Close()
			out = f
		}

		switch strings.ToLower(exportFormat) {
		case "json":
			err = writeEntriesJSON(out, entries)
		case "csv":
			err = writeEntriesCSV(out, entries)
		default:
			return fmt.Errorf("unsupported format: %s (supported: json, csv)", exportFormat)
		}
		if err != nil {
			return fmt.Errorf("failed to export entries: %w", err)
		}

		if exportOutput != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d entries to %s\n", len(entries), exportOutput)
		}
		return nil
	},
}

// allEntries pages through the journal and returns it oldest first.
func allEntries(cmd *cobra.Command, app *cli.App) ([]queries.EntryDTO, error) {
	var entries []queries.EntryDTO
	for offset := 0; ; offset += exportPageSize {
		page, err := app.ListEntriesHandler.Handle(cmd.Context(), queries.ListEntriesQuery{
			UserID: app.CurrentUserID,
			Limit:  exportPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list entries: %w", err)
		}
		entries = append(entries, page.Entries...)
		if len(page.Entries) < exportPageSize {
			break
		}
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func writeEntriesJSON(w io.Writer, entries []queries.EntryDTO) error {
	if entries == nil {
		entries = []queries.EntryDTO{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

var csvHeader = []string{
	"id", "created_at", "mood", "detected_mood", "confidence",
	"sentiment", "self_harm", "title", "tags", "content",
}

func writeEntriesCSV(w io.Writer, entries []queries.EntryDTO) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		record := []string{
			e.ID.String(),
			e.CreatedAt.UTC().Format(time.RFC3339),
			string(e.Mood),
			string(e.DetectedMood),
			strconv.FormatFloat(e.Confidence, 'f', 2, 64),
			strconv.FormatFloat(e.SentimentScore, 'f', 3, 64),
			strconv.FormatBool(e.SelfHarm),
			e.Title,
			strings.Join(e.Tags, ";"),
			e.Content,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "export format (json, csv)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
}
