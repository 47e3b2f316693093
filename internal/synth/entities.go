package synth

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
)

const (
	minRelevance       = 0.3
	maxFuzzyEditRatio  = 0.15
)

// LinkCandidate is the minimal view of a stored company the linker
// resolves mentions against. Mirrors
// internal/persistence/repository.LinkCandidate without importing the
// persistence package, keeping synth free of a storage dependency.
type LinkCandidate struct {
	ID        string
	LegalName string
	Domain    string
	Slug      string
}

// candidateMention is one NER/dictionary hit before relevance scoring.
type candidateMention struct {
	name        string
	frequency   int
	inHeading   bool
	firstOffset int
}

var orgWordBoundary = regexp.MustCompile(`[A-Z][\w&.-]{2,}(?:\s+[A-Z][\w&.-]{2,}){0,3}`)

// ExtractEntities implements P9 (spec §4.7): finds candidate organization
// mentions in body via a dictionary match against known candidates
// (exact-slug / fuzzy-name / domain), scores relevance by frequency and
// position, and resolves. Unresolved mentions are dropped (spec:
// "recorded but not linked" — this synchronous path has no event bus to
// record them on, so the caller logs the gap; see internal/workflow).
func ExtractEntities(body string, headings []string, candidates []LinkCandidate) []domain.MentionedCompany {
	mentions := findMentions(body, headings)
	byRelevance := scoreMentions(mentions, len(strings.Fields(body)))

	var out []domain.MentionedCompany
	for _, m := range byRelevance {
		if m.relevance < minRelevance {
			continue
		}
		id, ok := resolve(m.mention.name, candidates)
		if !ok {
			continue
		}
		out = append(out, domain.MentionedCompany{CompanyID: id, Relevance: m.relevance})
	}
	return out
}

type scoredMention struct {
	mention   candidateMention
	relevance float64
}

func findMentions(body string, headings []string) []candidateMention {
	seen := make(map[string]*candidateMention)
	var order []string

	headingSet := make(map[string]bool, len(headings))
	for _, h := range headings {
		headingSet[h] = true
	}

	matches := orgWordBoundary.FindAllStringIndex(body, -1)
	for _, loc := range matches {
		name := strings.TrimSpace(body[loc[0]:loc[1]])
		if len(name) < 3 {
			continue
		}
		m, ok := seen[name]
		if !ok {
			m = &candidateMention{name: name, firstOffset: loc[0]}
			seen[name] = m
			order = append(order, name)
		}
		m.frequency++
	}

	out := make([]candidateMention, 0, len(order))
	for _, name := range order {
		m := *seen[name]
		for _, h := range headings {
			if strings.Contains(h, name) {
				m.inHeading = true
				break
			}
		}
		out = append(out, m)
	}
	return out
}

// scoreMentions applies the frequency/position weighting from spec §4.7:
// position contributes a flat bonus when the mention appears in a heading
// or near the start of the body, frequency contributes proportionally,
// normalized into [0,1].
func scoreMentions(mentions []candidateMention, bodyWords int) []scoredMention {
	out := make([]scoredMention, 0, len(mentions))
	for _, m := range mentions {
		freqScore := float64(m.frequency) / 10.0
		if freqScore > 0.6 {
			freqScore = 0.6
		}
		positionBonus := 0.0
		if m.inHeading || m.firstOffset < bodyWords/4 {
			positionBonus = 0.3
		}
		out = append(out, scoredMention{mention: m, relevance: clamp01(freqScore + positionBonus + 0.1)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].relevance != out[j].relevance {
			return out[i].relevance > out[j].relevance
		}
		return out[i].mention.firstOffset < out[j].mention.firstOffset
	})
	return out
}

// resolve implements the three-stage linker from spec §4.7: exact-slug,
// then fuzzy-name (normalized edit distance <= 0.15), then domain match.
func resolve(name string, candidates []LinkCandidate) (string, bool) {
	slug := domain.DeriveSlug(name)
	for _, c := range candidates {
		if c.Slug == slug {
			return c.ID, true
		}
	}

	lowerName := strings.ToLower(name)
	for _, c := range candidates {
		dist := levenshtein.ComputeDistance(lowerName, strings.ToLower(c.LegalName))
		maxLen := len(lowerName)
		if len(c.LegalName) > maxLen {
			maxLen = len(c.LegalName)
		}
		if maxLen == 0 {
			continue
		}
		if float64(dist)/float64(maxLen) <= maxFuzzyEditRatio {
			return c.ID, true
		}
	}

	for _, c := range candidates {
		if c.Domain != "" && strings.Contains(lowerName, strings.ToLower(strings.TrimSuffix(c.Domain, "."))) {
			return c.ID, true
		}
	}

	return "", false
}

// RelevantHeadings extracts h2_title strings from article sections, the
// "position" signal the relevance scorer needs.
func RelevantHeadings(sections []domain.ArticleSection) []string {
	out := make([]string, len(sections))
	for i, s := range sections {
		out[i] = s.H2Title
	}
	return out
}
