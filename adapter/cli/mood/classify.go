package mood

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/moodlens/adapter/cli"
	"github.com/felixgeelhaar/moodlens/internal/mood/domain"
)

var (
	manualMood    string
	asJSON        bool
	crisisCountry string
)

type classifyOutput struct {
	domain.ClassificationResult
	EffectiveMood domain.Mood            `json:"effective_mood"`
	Helpline      *domain.HelplineRecord `json:"helpline,omitempty"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify [text...]",
	Short: "Classify the mood of a piece of text",
	Long: `Classify text into one of ten moods without storing it.

Crisis language always wins and prints a helpline. Empty text is
classified as neutral with zero confidence.

Examples:
  moodlens classify "I feel so happy and grateful today"
  moodlens classify --manual calm "long day at work"
  moodlens classify --json "nervous about tomorrow"`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")

		manual, err := cli.ParseManualMood(manualMood)
		if err != nil {
			return err
		}

		result := classifier().Classify(text, manual)

		country := crisisCountry
		if country == "" {
			country = defaultCountry()
		}

		out := cmd.OutOrStdout()
		if asJSON {
			payload := classifyOutput{ClassificationResult: result, EffectiveMood: result.EffectiveMood()}
			if result.SelfHarmDetected {
				helpline := domain.HelplineInfo(country)
				payload.Helpline = &helpline
			}
			return writeJSON(out, payload)
		}

		PrintClassification(out, result)
		if result.SelfHarmDetected {
			PrintHelpline(out, domain.HelplineInfo(country))
		}
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVarP(&manualMood, "manual", "m", "", "manual mood override")
	classifyCmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	classifyCmd.Flags().StringVar(&crisisCountry, "country", "", "helpline country for crisis results")
}
