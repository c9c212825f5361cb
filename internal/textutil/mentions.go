package textutil

import (
	"regexp"
	"strings"
)

// mentionPattern matches an @ followed by a maximal run of word characters.
var mentionPattern = regexp.MustCompile(`@(\w+)`)

// Mentions extracts candidate mention tokens from free text, in order of
// appearance with duplicates removed case-insensitively. Free text commonly
// contains @ outside the mention syntax, so tokens are candidates only and
// unmatched ones carry no meaning.
func Mentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	tokens := make([]string, 0, len(matches))
	for _, match := range matches {
		key := strings.ToLower(match[1])
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tokens = append(tokens, match[1])
	}
	return tokens
}

// Truncate shortens s to at most limit runes, appending an ellipsis marker
// when anything was cut.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
