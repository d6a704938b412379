package openai

import "strings"

// scrubString removes punctuation and trims whitespace from text.
func scrubString(s string) string {
	// Remove common punctuation
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(".,!?;:\"'()[]{}—–-", r) {
			return -1
		}
		return r
	}, s)
	// Trim leading and trailing whitespace
	return strings.TrimSpace(s)
}

// stripCodeFences removes markdown code fences the model sometimes wraps
// around its JSON output.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// truncateRunes shortens s to at most max runes, marking the cut with an ellipsis.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
