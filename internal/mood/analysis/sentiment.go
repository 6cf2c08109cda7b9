package analysis

const negativeWeight = 2.0

var positiveLexicon = newKeywordSet(
	"happy", "joy", "joyful", "glad", "good", "great", "wonderful", "amazing",
	"awesome", "love", "lovely", "excellent", "fantastic", "grateful", "thankful",
	"blessed", "excited", "calm", "peaceful", "relaxed", "proud", "hopeful", "fun",
	"beautiful", "nice", "smile", "laugh", "enjoy", "better", "best", "success",
	"win", "optimistic", "cheerful", "delighted", "thanks", "kind", "celebrate",
)

var negativeLexicon = newKeywordSet(
	"sad", "bad", "terrible", "awful", "horrible", "hate", "angry", "upset",
	"depressed", "anxious", "worried", "stressed", "lonely", "alone", "tired",
	"exhausted", "hurt", "pain", "cry", "fear", "scared", "afraid", "miserable",
	"worse", "worst", "fail", "failure", "annoying", "frustrated", "sick", "broken",
	"empty", "guilty", "ashamed", "disappointed", "nervous", "unhappy",
)

// SentimentScore returns (positives - 2*negatives) / max(tokens, 1).
// Empty input scores 0.
func SentimentScore(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	var positives, negatives float64
	for _, token := range tokens {
		switch {
		case positiveLexicon.contains(token):
			positives++
		case negativeLexicon.contains(token):
			negatives++
		}
	}
	return (positives - negativeWeight*negatives) / float64(len(tokens))
}

// sentimentWords returns the lexicon words present in tokens, in order of
// first appearance.
func sentimentWords(tokens []string) []string {
	seen := make(map[string]struct{})
	words := make([]string, 0)
	for _, token := range tokens {
		if !positiveLexicon.contains(token) && !negativeLexicon.contains(token) {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		words = append(words, token)
	}
	return words
}
