package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Londondannyboy/quest-sub002/internal/activity/adapter"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
)

// SynthesizeProfile runs the company-profile counterpart of
// SynthesizeArticle. Company profiles have no target-word-count floor —
// spec §4.5's expansion retry is an article-only concern — so this is
// just the schema-repair loop plus narrative-first section filtering.
func (s *Synthesizer) SynthesizeProfile(ctx context.Context, input *domain.CompanyInput, bundle *domain.ResearchBundle) (*domain.ProfilePayload, error) {
	sources := digestBundle(bundle)
	if len(sources) == 0 {
		return nil, domain.Data(domain.CodeEmpty, "synthesis has no source material to draw from", nil)
	}

	repairDirective := ""
	var lastErr error
	for attempt := 0; attempt <= maxSchemaRepairAttempts; attempt++ {
		prompt := profilePrompt(input, sources, repairDirective)

		resp, err := s.llm.Complete(ctx, adapter.LLMRequest{Prompt: prompt, Schema: profileSchemaHint, MaxTokens: 6000})
		if err != nil {
			return nil, err
		}

		payload, perr := decodeProfilePayload(resp.Structured)
		if perr == nil {
			applyProfileConfidence(payload, sources)
			return payload, nil
		}
		lastErr = perr
		repairDirective = "The previous response did not match the required JSON schema (" + perr.Error() + "). Return ONLY valid JSON matching the schema, no prose."
	}
	return nil, domain.Data(domain.CodeSchemaInvalid, "profile synthesis output never matched schema: "+lastErr.Error(), lastErr)
}

// profileWireSection is the wire shape the LLM emits for
// profile_sections — an array rather than the ordered map the domain
// type uses internally, since plain JSON objects don't guarantee key
// order across marshal/unmarshal round trips.
type profileWireSection struct {
	Key             string   `json:"key"`
	Title           string   `json:"title"`
	MarkdownContent string   `json:"markdown_content"`
	Confidence      float64  `json:"confidence"`
	SourceURLs      []string `json:"source_urls,omitempty"`
}

type profileWirePayload struct {
	domain.ProfilePayload
	SectionsWire []profileWireSection `json:"sections"`
}

func decodeProfilePayload(structured map[string]any) (*domain.ProfilePayload, error) {
	if structured == nil {
		return nil, fmt.Errorf("llm returned no structured output")
	}
	raw, err := json.Marshal(structured)
	if err != nil {
		return nil, err
	}

	var wire profileWirePayload
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}
	if wire.LegalName == "" || wire.Domain == "" {
		return nil, fmt.Errorf("missing required fields legal_name/domain")
	}

	payload := wire.ProfilePayload
	payload.Sections = nil
	payload.SectionOrder = nil
	for _, sec := range wire.SectionsWire {
		payload.AddSection(domain.ProfileSection{
			Key: sec.Key, Title: sec.Title, MarkdownContent: sec.MarkdownContent,
			Confidence: sec.Confidence, SourceURLs: sec.SourceURLs,
		})
	}
	if payload.Slug == "" {
		payload.Slug = domain.DeriveSlug(payload.LegalName)
	}
	return &payload, nil
}

func applyProfileConfidence(payload *domain.ProfilePayload, sources []sourceDigest) {
	if len(sources) == 0 {
		return
	}
	var sum float64
	for _, s := range sources {
		sum += s.Confidence
	}
	avg := sum / float64(len(sources))
	payload.ConfidenceScore = clamp01(avg*0.7 + diversityBonus(len(sources))*0.3)
}

var profileSchemaHint = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"legal_name":   map[string]any{"type": "string"},
		"domain":       map[string]any{"type": "string"},
		"company_type": map[string]any{"type": "string"},
		"website":      map[string]any{"type": "string"},
		"sections":     map[string]any{"type": "array"},
	},
	"required": []string{"legal_name", "domain"},
}

func profilePrompt(input *domain.CompanyInput, sources []sourceDigest, directive string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Build a company profile for the company at: %s\n", input.URL)
	fmt.Fprintf(&b, "Category: %s. App: %s.\n", input.Category, input.AppTag)
	b.WriteString("Ground every structured fact and every profile_sections entry in one of these sources:\n")
	for _, s := range sources {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", s.URL, s.Title, s.Excerpt)
	}
	if directive != "" {
		b.WriteString("\n" + directive)
	}
	b.WriteString("\nEach profile_sections entry needs a `key`, title, markdown_content, confidence, and source_urls. Only emit a section when it has >= 2 sentences and confidence >= 0.5. Respond as JSON matching the schema.")
	return b.String()
}
