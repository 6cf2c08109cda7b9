package analysis

import "strings"

// crisisPhrases are matched by plain substring containment. Any single match
// is enough; recall matters more than precision here.
var crisisPhrases = []string{
	"kill myself",
	"killing myself",
	"end my life",
	"ending my life",
	"take my own life",
	"want to die",
	"wanna die",
	"wish i was dead",
	"wish i were dead",
	"better off dead",
	"better off without me",
	"suicide",
	"suicidal",
	"no reason to live",
	"nothing to live for",
	"don't want to live",
	"dont want to live",
	"not worth living",
	"can't go on",
	"cant go on",
	"end it all",
	"hurt myself",
	"hurting myself",
	"harm myself",
	"self harm",
	"self-harm",
	"cut myself",
	"cutting myself",
	"hopeless",
	"worthless",
	"no way out",
}

// CrisisPhrases returns a copy of the crisis phrase list.
func CrisisPhrases() []string {
	return append([]string(nil), crisisPhrases...)
}

// DetectCrisis scans lowercased text for crisis phrases and returns every
// phrase found, in list order.
func DetectCrisis(text string) (bool, []string) {
	if text == "" {
		return false, nil
	}
	var matched []string
	for _, phrase := range crisisPhrases {
		if strings.Contains(text, phrase) {
			matched = append(matched, phrase)
		}
	}
	return len(matched) > 0, matched
}
