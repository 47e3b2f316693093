package domain

import (
	"regexp"
	"strings"
)

var (
	slugNonAlnum  = regexp.MustCompile(`[^a-z0-9]+`)
	slugEdgeDashes = regexp.MustCompile(`^-+|-+$`)
)

// DeriveSlug normalizes title into a URL-safe slug: lowercase,
// non-alphanumeric runs collapsed to a single hyphen, leading/trailing
// hyphens trimmed. Deterministic and idempotent (spec §3 invariant 1 /
// §4.2): DeriveSlug(DeriveSlug(x)) == DeriveSlug(x) for any x.
func DeriveSlug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugNonAlnum.ReplaceAllString(s, "-")
	s = slugEdgeDashes.ReplaceAllString(s, "")
	return s
}

// DisambiguateSlug appends a numeric suffix for a slug collision, matching
// the convention "topic-slug-2", "topic-slug-3", ... (spec §4.2, E1). n
// must be >= 2; n == 1 returns base unchanged since the first occupant of
// a slug carries no suffix.
func DisambiguateSlug(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "-" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
