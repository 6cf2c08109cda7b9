package analysis

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/moodlens/internal/mood/domain"
)

// Classifier runs the full pipeline. It holds no mutable state, so one value
// can serve any number of goroutines.
type Classifier struct {
	logger *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger used for debug traces. Entry text is never logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClassifier creates a classifier.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultClassifier = NewClassifier()

// Classify runs the pipeline with a silent classifier.
func Classify(text string, manual *domain.Mood) domain.ClassificationResult {
	return defaultClassifier.Classify(text, manual)
}

// Classify labels text with a mood, a confidence and the self-harm flag.
// The manual mood is recorded as given and never validated here.
func (c *Classifier) Classify(text string, manual *domain.Mood) domain.ClassificationResult {
	normalized := Normalize(text)
	result := domain.ClassificationResult{
		ManualMood:      copyMood(manual),
		MatchedKeywords: []string{},
	}

	if normalized.IsEmpty() {
		result.DetectedMood = domain.MoodNeutral
		result.Confidence = domain.EmptyConfidence
		result.MoodScores = domain.NewScores()
		result.Reasoning = "No text provided"
		c.trace(result)
		return result
	}

	result.SentimentScore = SentimentScore(normalized.Tokens)

	if detected, phrases := DetectCrisis(normalized.Phrase); detected {
		scores := domain.NewScores()
		scores[domain.MoodSad] = MarkerScore

		result.DetectedMood = domain.MoodSad
		result.Confidence = domain.CrisisConfidence
		result.SelfHarmDetected = true
		result.CrisisPhrases = phrases
		result.MatchedKeywords = dedupe(phrases)
		result.MoodScores = scores
		result.Reasoning = fmt.Sprintf("Crisis language detected (%s); safety override applied",
			strings.Join(phrases, ", "))

		c.logger.Warn("crisis language detected", "phrases", len(phrases))
		c.trace(result)
		return result
	}

	scores, markers := ScoreMoods(normalized.Phrase, result.SentimentScore)
	mood, confidence := SelectMood(scores)

	result.DetectedMood = mood
	result.Confidence = confidence
	result.MoodScores = scores
	if len(markers) > 0 {
		result.MatchedKeywords = dedupe(markers)
		result.Reasoning = fmt.Sprintf("Matched %s keywords: %s", mood, strings.Join(result.MatchedKeywords, ", "))
	} else {
		result.MatchedKeywords = sentimentWords(normalized.Tokens)
		result.Reasoning = fallbackReason(mood, result.SentimentScore)
	}

	c.trace(result)
	return result
}

func (c *Classifier) trace(result domain.ClassificationResult) {
	c.logger.Debug("text classified",
		"mood", result.DetectedMood,
		"confidence", result.Confidence,
		"sentiment", result.SentimentScore,
		"self_harm", result.SelfHarmDetected,
		"keywords", len(result.MatchedKeywords),
	)
}

func fallbackReason(mood domain.Mood, sentiment float64) string {
	switch mood {
	case domain.MoodHappy:
		return fmt.Sprintf("No mood keywords matched; positive sentiment (%.2f)", sentiment)
	case domain.MoodSad:
		return fmt.Sprintf("No mood keywords matched; negative sentiment (%.2f)", sentiment)
	default:
		return fmt.Sprintf("No mood keywords matched; sentiment (%.2f) within neutral range", sentiment)
	}
}

func copyMood(m *domain.Mood) *domain.Mood {
	if m == nil {
		return nil
	}
	v := *m
	return &v
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
