package analysis

import "github.com/felixgeelhaar/moodlens/internal/mood/domain"

// MinimumWinningScore is the lowest score that can name a mood. Anything
// below it resolves to neutral with an effective score of 1.
const MinimumWinningScore = 3

const neutralEffectiveScore = 1

// Confidence bands keyed by winning score.
const (
	highConfidence    = 0.90
	mediumConfidence  = 0.70
	lowConfidence     = 0.50
	minimalConfidence = 0.30
)

// SelectMood picks the emotional category with the strictly greatest score.
// Ties go to the mood that comes first in enumeration order. neutral is never
// a candidate: it is what remains when no category reaches MinimumWinningScore.
func SelectMood(scores domain.Scores) (domain.Mood, float64) {
	winner := domain.MoodNeutral
	best := 0
	found := false

	for _, m := range domain.AllMoods() {
		if m == domain.MoodNeutral {
			continue
		}
		score := scores[m]
		if !found || score > best {
			winner, best, found = m, score, true
		}
	}

	if best < MinimumWinningScore {
		return domain.MoodNeutral, ConfidenceForScore(neutralEffectiveScore)
	}
	return winner, ConfidenceForScore(best)
}

// ConfidenceForScore maps a raw score onto its coarse confidence band.
func ConfidenceForScore(score int) float64 {
	switch {
	case score >= 8:
		return highConfidence
	case score >= 5:
		return mediumConfidence
	case score >= MinimumWinningScore:
		return lowConfidence
	default:
		return minimalConfidence
	}
}
