package report

import "strings"

// Session notes are scanned for fixed trigger words. The rule is a
// case-insensitive substring match, not a word-boundary match, and the word
// lists are the single source of truth for the heuristic. Buckets are not
// mutually exclusive: one note can land in several.

var (
	significantKeywords = []string{"breakthrough", "significant", "critical"}
	progressKeywords    = []string{"progress", "improved"}
	challengeKeywords   = []string{"challenge", "difficulty"}
)

// NoteCategories is the set of buckets a note matched.
type NoteCategories struct {
	Significant bool `json:"significant"`
	Progress    bool `json:"progress"`
	Challenge   bool `json:"challenge"`
}

// Any reports whether the note matched at least one bucket.
func (c NoteCategories) Any() bool {
	return c.Significant || c.Progress || c.Challenge
}

// ClassifyNote scans free text for the trigger words of each bucket.
func ClassifyNote(text string) NoteCategories {
	lower := strings.ToLower(text)
	return NoteCategories{
		Significant: containsAny(lower, significantKeywords),
		Progress:    containsAny(lower, progressKeywords),
		Challenge:   containsAny(lower, challengeKeywords),
	}
}

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
