package mood

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/moodlens/internal/mood/domain"
)

var helplineJSON bool

var helplineCmd = &cobra.Command{
	Use:   "helpline [country]",
	Short: "Show the crisis helpline for a country",
	Long: `Show the crisis helpline for a country code (US, UK, CA, AU, IN).

Unknown codes fall back to the US line.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		country := defaultCountry()
		if len(args) == 1 {
			country = args[0]
		}

		helpline := domain.HelplineInfo(country)
		if helplineJSON {
			return writeJSON(cmd.OutOrStdout(), helpline)
		}
		PrintHelpline(cmd.OutOrStdout(), helpline)
		return nil
	},
}

func init() {
	helplineCmd.Flags().BoolVar(&helplineJSON, "json", false, "print the record as JSON")
}
