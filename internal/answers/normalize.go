package answers

import "strings"

// Normalize maps semantically identical inputs to one cache key: lowercase,
// interior whitespace runs collapsed to a single space, surrounding space and
// trailing sentence punctuation stripped. The rule is deterministic; changing
// it orphans existing keys, so treat it as part of the storage format.
func Normalize(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	normalized = strings.TrimRight(normalized, "?!.")
	return strings.TrimSpace(normalized)
}
