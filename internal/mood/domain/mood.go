package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMood is returned when a value is not one of the known moods.
var ErrInvalidMood = errors.New("invalid mood")

// Mood is one of the fixed emotional categories assigned to a journal entry.
type Mood string

const (
	MoodHappy    Mood = "happy"
	MoodSad      Mood = "sad"
	MoodAngry    Mood = "angry"
	MoodAnxious  Mood = "anxious"
	MoodExcited  Mood = "excited"
	MoodCalm     Mood = "calm"
	MoodGrateful Mood = "grateful"
	MoodLonely   Mood = "lonely"
	MoodConfused Mood = "confused"
	MoodNeutral  Mood = "neutral"
)

var allMoods = [...]Mood{
	MoodHappy, MoodSad, MoodAngry, MoodAnxious, MoodExcited,
	MoodCalm, MoodGrateful, MoodLonely, MoodConfused, MoodNeutral,
}

// AllMoods returns every mood in enumeration order.
// Enumeration order is the tie-break order used when selecting a winner.
func AllMoods() []Mood {
	moods := make([]Mood, len(allMoods))
	copy(moods, allMoods[:])
	return moods
}

// IsValid reports whether the mood belongs to the enumeration.
func (m Mood) IsValid() bool {
	for _, known := range allMoods {
		if m == known {
			return true
		}
	}
	return false
}

func (m Mood) String() string {
	return string(m)
}

// ParseMood converts user input into a Mood.
func ParseMood(value string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(value)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMood, value)
	}
	return m, nil
}

// Valence groups moods for trend direction.
type Valence string

const (
	ValencePositive Valence = "positive"
	ValenceNegative Valence = "negative"
	ValenceNeutral  Valence = "neutral"
)

// Valence returns the trend group of the mood.
// confused and neutral count toward neither side.
func (m Mood) Valence() Valence {
	switch m {
	case MoodHappy, MoodExcited, MoodGrateful, MoodCalm:
		return ValencePositive
	case MoodSad, MoodAngry, MoodAnxious, MoodLonely:
		return ValenceNegative
	default:
		return ValenceNeutral
	}
}

// Scores maps every mood to its raw category score.
type Scores map[Mood]int

// NewScores returns a score mapping with every mood set to zero.
func NewScores() Scores {
	scores := make(Scores, len(allMoods))
	for _, m := range allMoods {
		scores[m] = 0
	}
	return scores
}

// Clone returns an independent copy.
func (s Scores) Clone() Scores {
	out := make(Scores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
