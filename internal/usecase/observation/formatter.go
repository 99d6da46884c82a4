// Package observation turns environment snapshots into the text the agent and
// the resolver work on, and decides whether a snapshot satisfies the success
// criterion.
package observation

import (
	"strings"
	"unicode/utf8"

	"agent-evaluator/internal/domain/entity"
)

// ExtractText returns the raw tree text, or "" when there is none.
func ExtractText(obs *entity.Observation) string {
	if obs == nil {
		return ""
	}
	return obs.Text
}

// IsSuccess is a case-sensitive literal substring check. An empty criterion
// never matches.
func IsSuccess(obs *entity.Observation, criterion string) bool {
	text := ExtractText(obs)
	if text == "" || criterion == "" {
		return false
	}
	return strings.Contains(text, criterion)
}

// Preview shortens text for log lines without splitting a rune.
func Preview(text string, maxLen int) string {
	if maxLen <= 0 || len(text) <= maxLen {
		return text
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
