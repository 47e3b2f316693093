// Package synth implements the narrative-first synthesizer, the
// fingerprinted image sequencer, and entity extraction/linking (spec
// §4.5, §4.6, §4.7). All three consume the research bundle the fan-out
// phase assembled and produce additions to the accumulating payload;
// none persist anything themselves.
package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Londondannyboy/quest-sub002/internal/activity/adapter"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
)

const (
	maxSchemaRepairAttempts  = 2
	maxExpansionAttempts     = 2
	wordCountFloorFraction   = 0.85
	minSectionSentences      = 2
	minSectionConfidence     = 0.5
)

// Synthesizer produces ArticlePayload/ProfilePayload drafts from gathered
// research via an LLM backend (spec §4.5). The prompt lists the bundle's
// source URLs and tells the model to ground every claim in them; the
// sections it returns are filtered by sentence count only and are not
// checked against the bundle's URLs.
type Synthesizer struct {
	llm adapter.LLMClient
}

// NewSynthesizer builds a Synthesizer over llm.
func NewSynthesizer(llm adapter.LLMClient) *Synthesizer {
	return &Synthesizer{llm: llm}
}

// sourceDigest is the compact, prompt-ready view of one bundle item.
type sourceDigest struct {
	URL        string
	Title      string
	Excerpt    string
	Confidence float64
}

func digestBundle(bundle *domain.ResearchBundle) []sourceDigest {
	var out []sourceDigest
	for _, entry := range bundle.AllItems() {
		item := entry.Item
		if item.Synthetic {
			continue
		}
		excerpt := item.Snippet
		if item.FullText != nil && len(*item.FullText) > 0 {
			excerpt = truncate(*item.FullText, 1500)
		}
		out = append(out, sourceDigest{URL: item.URL, Title: item.Title, Excerpt: excerpt, Confidence: item.Confidence})
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// SynthesizeArticle runs the bounded schema-repair / expansion retry loop
// described in spec §4.5 and returns a validated draft ArticlePayload.
func (s *Synthesizer) SynthesizeArticle(ctx context.Context, input *domain.ArticleInput, bundle *domain.ResearchBundle) (*domain.ArticlePayload, error) {
	sources := digestBundle(bundle)
	if len(sources) == 0 {
		return nil, domain.Data(domain.CodeEmpty, "synthesis has no source material to draw from", nil)
	}

	expansionDirective := ""
	for expansionAttempt := 0; expansionAttempt <= maxExpansionAttempts; expansionAttempt++ {
		prompt := articlePrompt(input, sources, expansionDirective)

		payload, err := s.completeArticle(ctx, prompt)
		if err != nil {
			return nil, err
		}

		if payload.MeetsWordFloor(input.TargetWordCount) {
			applyEvidenceConfidence(payload, sources)
			return payload, nil
		}

		if expansionAttempt == maxExpansionAttempts {
			return nil, domain.Business(domain.CodeBelowFloor, fmt.Sprintf("draft word count %d below floor for target %d after %d expansion attempts", payload.WordCount, input.TargetWordCount, maxExpansionAttempts))
		}
		expansionDirective = fmt.Sprintf("The previous draft was only %d words; expand coverage substantially while staying grounded in the provided sources to reach at least %d words.", payload.WordCount, int(float64(input.TargetWordCount)*wordCountFloorFraction))
	}

	return nil, domain.Business(domain.CodeBelowFloor, "synthesis did not converge on a passing draft")
}

// completeArticle runs the schema-repair loop for one expansion attempt:
// up to maxSchemaRepairAttempts extra tries if the LLM's output doesn't
// parse into a valid ArticlePayload (spec §4.5 "retried with a
// schema-repair directive up to 2 times").
func (s *Synthesizer) completeArticle(ctx context.Context, prompt string) (*domain.ArticlePayload, error) {
	repairDirective := ""
	var lastErr error
	for attempt := 0; attempt <= maxSchemaRepairAttempts; attempt++ {
		fullPrompt := prompt
		if repairDirective != "" {
			fullPrompt = prompt + "\n\n" + repairDirective
		}

		resp, err := s.llm.Complete(ctx, adapter.LLMRequest{
			Prompt:    fullPrompt,
			Schema:    articleSchemaHint,
			MaxTokens: 8000,
		})
		if err != nil {
			return nil, err
		}

		payload, perr := decodeArticlePayload(resp.Structured)
		if perr == nil {
			return payload, nil
		}
		lastErr = perr
		repairDirective = "The previous response did not match the required JSON schema (" + perr.Error() + "). Return ONLY valid JSON matching the schema, no prose."
	}
	return nil, domain.Data(domain.CodeSchemaInvalid, "synthesis output never matched schema: "+lastErr.Error(), lastErr)
}

func decodeArticlePayload(structured map[string]any) (*domain.ArticlePayload, error) {
	if structured == nil {
		return nil, fmt.Errorf("llm returned no structured output")
	}
	raw, err := json.Marshal(structured)
	if err != nil {
		return nil, err
	}
	var payload domain.ArticlePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	if payload.Title == "" || payload.MarkdownBody == "" {
		return nil, fmt.Errorf("missing required fields title/markdown_body")
	}
	if payload.WordCount == 0 {
		payload.WordCount = countWords(payload.MarkdownBody)
	}
	if payload.Slug == "" {
		payload.Slug = domain.DeriveSlug(payload.Title)
	}
	filterNarrativeSections(&payload.Sections)
	return &payload, nil
}

// filterNarrativeSections drops any section the synthesizer produced
// that falls short of the minimum sentence bar — the narrative-first
// discipline from spec §4.5/§9: sections only exist when evidence
// supports them, never padded out to hit a count.
func filterNarrativeSections(sections *[]domain.ArticleSection) {
	kept := (*sections)[:0]
	for _, sec := range *sections {
		if countSentences(sec.Body) < minSectionSentences {
			continue
		}
		kept = append(kept, sec)
	}
	*sections = kept
}

func countSentences(text string) int {
	n := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			n++
		}
	}
	if n == 0 && strings.TrimSpace(text) != "" {
		n = 1
	}
	return n
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

// applyEvidenceConfidence sets each section's implied confidence from the
// number and average confidence of the sources digested for this run
// (spec §4.5 "confidence per section derived from number and diversity
// of supporting sources"). Sections don't carry their own confidence
// field in the payload (spec §3's ArticlePayload section shape has no
// confidence field — only ProfilePayload sections do), so this instead
// raises the payload-level ConfidenceScore.
func applyEvidenceConfidence(payload *domain.ArticlePayload, sources []sourceDigest) {
	if len(sources) == 0 {
		return
	}
	var sum float64
	for _, s := range sources {
		sum += s.Confidence
	}
	avg := sum / float64(len(sources))
	diversity := diversityBonus(len(sources))
	payload.ConfidenceScore = clamp01(avg*0.7 + diversity*0.3)
	payload.CompletenessScore = float64(domain.ArticleCompleteness(payload))
}

func diversityBonus(nSources int) float64 {
	switch {
	case nSources >= 8:
		return 1.0
	case nSources >= 4:
		return 0.7
	case nSources >= 2:
		return 0.4
	default:
		return 0.1
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var articleSchemaHint = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title":         map[string]any{"type": "string"},
		"subtitle":      map[string]any{"type": "string"},
		"markdown_body": map[string]any{"type": "string"},
		"excerpt":       map[string]any{"type": "string"},
		"sections":      map[string]any{"type": "array"},
		"classification": map[string]any{"type": "string"},
		"tags":          map[string]any{"type": "array"},
		"meta_description": map[string]any{"type": "string"},
	},
	"required": []string{"title", "markdown_body"},
}

func articlePrompt(input *domain.ArticleInput, sources []sourceDigest, directive string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s-format article on: %s\n", input.Format, input.Topic)
	fmt.Fprintf(&b, "Target word count: %d. App: %s.\n", input.TargetWordCount, input.AppTag)
	b.WriteString("Ground every claim-bearing sentence in one of these sources; never cite a URL not listed here:\n")
	for _, s := range sources {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", s.URL, s.Title, s.Excerpt)
	}
	if directive != "" {
		b.WriteString("\n" + directive)
	}
	b.WriteString("\nRespond as JSON matching the article schema.")
	return b.String()
}
