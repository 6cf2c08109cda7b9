package domain

// Confidence values assigned outside the score bands.
const (
	CrisisConfidence = 0.95
	EmptyConfidence  = 0.0
)

// ClassificationResult is the outcome of classifying one piece of text.
type ClassificationResult struct {
	DetectedMood     Mood     `json:"detected_mood"`
	Confidence       float64  `json:"confidence"`
	ManualMood       *Mood    `json:"manual_mood,omitempty"`
	SelfHarmDetected bool     `json:"self_harm_detected"`
	CrisisPhrases    []string `json:"crisis_phrases,omitempty"`
	SentimentScore   float64  `json:"sentiment_score"`
	MatchedKeywords  []string `json:"matched_keywords"`
	MoodScores       Scores   `json:"mood_scores"`
	Reasoning        string   `json:"reasoning"`
}

// EffectiveMood returns the manual mood when one was supplied.
func (r ClassificationResult) EffectiveMood() Mood {
	if r.ManualMood != nil && *r.ManualMood != "" {
		return *r.ManualMood
	}
	return r.DetectedMood
}

// Clone returns a deep copy so callers can hold results without sharing slices or maps.
func (r ClassificationResult) Clone() ClassificationResult {
	out := r
	if r.ManualMood != nil {
		manual := *r.ManualMood
		out.ManualMood = &manual
	}
	if r.CrisisPhrases != nil {
		out.CrisisPhrases = append([]string(nil), r.CrisisPhrases...)
	}
	if r.MatchedKeywords != nil {
		out.MatchedKeywords = append([]string(nil), r.MatchedKeywords...)
	}
	if r.MoodScores != nil {
		out.MoodScores = r.MoodScores.Clone()
	}
	return out
}
