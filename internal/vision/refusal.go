package vision

import (
	"errors"
	"strings"
)

// ErrRefusal means the oracle declined to analyze the image.
var ErrRefusal = errors.New("oracle refused to analyze the image")

// Known refusal phrasings. Matching is heuristic by necessity: the oracle
// signals refusal in prose, not in a structured field.
var refusalPhrases = []string{
	"i can't analyze",
	"i'm sorry",
	"i cannot",
	"policy",
	"guidelines",
}

// IsRefusal reports whether oracle output matches a known refusal phrasing.
func IsRefusal(content string) bool {
	lower := strings.ToLower(content)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
