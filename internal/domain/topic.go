package domain

import (
	"regexp"
	"strings"
)

var (
	topicWhitespace = regexp.MustCompile(`\s+`)
	topicPunct      = regexp.MustCompile(`[^\p{L}\p{N}\s&'-]`)
)

// NormalizeTopic produces the canonical comparison form of a topic string
// for duplicate detection (spec §4.2, §4.5): trims, collapses internal
// whitespace, lowercases, and strips punctuation other than the small set
// that's semantically load-bearing (&, ', -). Idempotent.
func NormalizeTopic(topic string) string {
	t := strings.TrimSpace(topic)
	t = topicPunct.ReplaceAllString(t, "")
	t = topicWhitespace.ReplaceAllString(t, " ")
	return strings.ToLower(strings.TrimSpace(t))
}

// SameTopic reports whether two topic strings normalize to the same
// canonical form, the comparison used by the duplicate-topic lookback
// check (spec §4.5, E1).
func SameTopic(a, b string) bool {
	return NormalizeTopic(a) == NormalizeTopic(b)
}
