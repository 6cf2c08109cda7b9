package analysis

import (
	"strings"

	"github.com/felixgeelhaar/moodlens/internal/mood/domain"
)

// Raw category scores produced by the cascade.
const (
	MarkerScore   = 10
	FallbackScore = 5
)

// Sentiment cutoffs for the fallback branch.
const (
	PositiveSentimentCutoff = 0.15
	NegativeSentimentCutoff = -0.15
)

// Category pairs a mood with the phrases that signal it.
type Category struct {
	Mood    domain.Mood
	Markers []string
}

// cascade is checked top to bottom and the first category with any marker wins.
// Order resolves overlapping vocabulary.
var cascade = []Category{
	{Mood: domain.MoodExcited, Markers: []string{
		"excited", "exciting", "thrilled", "can't wait", "cant wait", "cannot wait",
		"pumped", "stoked", "ecstatic", "elated", "looking forward", "hyped",
		"exhilarated", "amazing",
	}},
	{Mood: domain.MoodSad, Markers: []string{
		"sad", "unhappy", "depressed", "depressing", "miserable", "heartbroken",
		"crying", "cried", "tears", "feeling down", "feel down", "gloomy", "grief",
		"grieving", "devastated", "upset",
	}},
	{Mood: domain.MoodAngry, Markers: []string{
		"angry", "furious", "mad at", "so mad", "annoyed", "irritated", "frustrated",
		"frustrating", "pissed", "enraged", "in a rage", "i hate", "hated", "livid",
		"outraged", "resent",
	}},
	{Mood: domain.MoodAnxious, Markers: []string{
		"anxious", "anxiety", "worried", "worry", "worrying", "nervous", "panic",
		"stressed", "stressful", "overwhelmed", "uneasy", "on edge", "scared",
		"afraid", "fearful", "dread",
	}},
	{Mood: domain.MoodConfused, Markers: []string{
		"confused", "confusing", "unsure", "not sure", "don't know what",
		"dont know what", "uncertain", "puzzled", "torn between", "mixed feelings",
		"conflicted", "no idea what", "lost",
	}},
	{Mood: domain.MoodLonely, Markers: []string{
		"lonely", "loneliness", "alone", "isolated", "left out", "no one to talk",
		"nobody cares", "no friends", "by myself", "miss having",
	}},
	{Mood: domain.MoodHappy, Markers: []string{
		"happy", "joyful", "glad", "cheerful", "delighted", "wonderful", "great day",
		"good day", "smiling", "laughing", "fantastic", "awesome", "feeling good",
		"feel good",
	}},
	{Mood: domain.MoodGrateful, Markers: []string{
		"grateful", "thankful", "gratitude", "appreciate", "appreciative", "blessed",
		"thank you", "thanks",
	}},
	{Mood: domain.MoodCalm, Markers: []string{
		"calm", "peaceful", "relaxed", "relaxing", "serene", "tranquil", "at ease",
		"at peace", "content with", "mellow",
	}},
}

// Cascade returns the categories in priority order.
func Cascade() []Category {
	out := make([]Category, len(cascade))
	for i, c := range cascade {
		out[i] = Category{Mood: c.Mood, Markers: append([]string(nil), c.Markers...)}
	}
	return out
}

// ScoreMoods runs the priority cascade over lowercased phrase text.
// The first category with a matching marker scores MarkerScore and every other
// mood stays 0. When nothing matches the sentiment score picks happy, sad or
// neutral at FallbackScore. The returned markers belong to the winning category.
func ScoreMoods(phrase string, sentiment float64) (domain.Scores, []string) {
	scores := domain.NewScores()

	for _, category := range cascade {
		if matched := matchMarkers(phrase, category.Markers); len(matched) > 0 {
			scores[category.Mood] = MarkerScore
			return scores, matched
		}
	}

	switch {
	case sentiment > PositiveSentimentCutoff:
		scores[domain.MoodHappy] = FallbackScore
	case sentiment < NegativeSentimentCutoff:
		scores[domain.MoodSad] = FallbackScore
	default:
		scores[domain.MoodNeutral] = FallbackScore
	}
	return scores, nil
}

func matchMarkers(phrase string, markers []string) []string {
	if phrase == "" {
		return nil
	}
	var matched []string
	for _, marker := range markers {
		if strings.Contains(phrase, marker) {
			matched = append(matched, marker)
		}
	}
	return matched
}
