package graph

import "strings"

// Stop words to filter out when matching query words
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// TokenizeQuery splits a query into lowercase keyword tokens with stop
// words and punctuation removed. Every backend matches on these tokens.
func TokenizeQuery(query string) []string {
	return tokenizeAndFilter(query)
}

// matchCount reports how many of the query words appear in the text's
// word set.
func matchCount(text string, queryWords []string) int {
	words := tokenizeAndFilter(text)
	wordSet := make(map[string]bool, len(words))
	for _, word := range words {
		wordSet[word] = true
	}

	matched := 0
	for _, qWord := range queryWords {
		if wordSet[qWord] {
			matched++
		}
	}
	return matched
}

// SnippetRunes caps the length of fact lines built from episode content.
const SnippetRunes = 240

// Snippet compresses text to a single line capped at maxRunes.
func Snippet(text string, maxRunes int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "..."
}
