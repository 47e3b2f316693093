package article

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Londondannyboy/quest-sub002/internal/activity/adapter"
	"github.com/Londondannyboy/quest-sub002/internal/config"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/synth"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

// stubLLM returns a fixed LLMResponse, standing in for the real
// OpenAI/Anthropic-backed clients so the synthesizer's retry loop is
// exercised without a network call.
type stubLLM struct {
	resp adapter.LLMResponse
	err  error
}

func (s *stubLLM) Complete(ctx context.Context, req adapter.LLMRequest) (adapter.LLMResponse, error) {
	return s.resp, s.err
}

func wordyBody(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = "word"
	}
	return strings.Join(words, " ") + "."
}

func fullArticlePayload() *domain.ArticlePayload {
	return &domain.ArticlePayload{
		Title: "A", Subtitle: "B", MarkdownBody: wordyBody(600), Excerpt: "E",
		Sections:       []domain.ArticleSection{{H2Title: "S1", Body: "body"}},
		Classification: "guide", Tags: []string{"visa"}, MetaDescription: "meta",
		Images: domain.ImageBundle{
			Featured: &domain.Image{URL: "f"}, Hero: &domain.Image{URL: "h"}, Content1: &domain.Image{URL: "c1"},
		},
		MentionedCompanies: []domain.MentionedCompany{{CompanyID: "co-1"}},
	}
}

func bareArticlePayload() *domain.ArticlePayload {
	return &domain.ArticlePayload{Title: "A", MarkdownBody: "short body."}
}

func stateWithSynthesisInputs(t *testing.T, payload *domain.ArticlePayload) *engine.ExecutionState {
	t.Helper()
	state := engine.NewExecutionState("exec-1", "article")
	state.SetContext(phases.KeyArticlePayload, payload)
	state.SetContext(phases.KeyArticleInput, &domain.ArticleInput{Topic: "t", AppTag: domain.AppRelocation, TargetWordCount: 500})
	bundle := domain.NewResearchBundle()
	bundle.Set(&domain.SourceRecord{Kind: domain.SourceNewsSearch, Items: []domain.ResearchItem{{URL: "https://a.com", Confidence: 0.8}}})
	state.SetContext(phases.KeyResearchBundle, bundle)
	return state
}

func TestCompletenessGatePhase_PassesFloorWithoutAnyChange(t *testing.T) {
	payload := fullArticlePayload()
	state := stateWithSynthesisInputs(t, payload)

	phase := NewCompletenessGatePhase(synth.NewSynthesizer(&stubLLM{}), config.CompletenessFloorDraft, 50)
	err := phase.Run(context.Background(), state)

	require.NoError(t, err)
	assert.Empty(t, payload.EditorialStatus)
}

func TestCompletenessGatePhase_DraftPolicyMarksDraftOnLowScore(t *testing.T) {
	payload := bareArticlePayload()
	state := stateWithSynthesisInputs(t, payload)

	phase := NewCompletenessGatePhase(synth.NewSynthesizer(&stubLLM{}), config.CompletenessFloorDraft, 90)
	err := phase.Run(context.Background(), state)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, payload.EditorialStatus)
}

func TestCompletenessGatePhase_RetryPolicyReplacesPayloadOnImprovedResynthesis(t *testing.T) {
	payload := bareArticlePayload()
	state := stateWithSynthesisInputs(t, payload)

	structured := map[string]any{
		"title": "Improved Title", "subtitle": "Improved Subtitle",
		"markdown_body": wordyBody(600), "excerpt": "Improved excerpt.",
		"classification":    "guide",
		"tags":              []string{"visa"},
		"meta_description":  "Improved meta description.",
		"sections": []map[string]any{
			{"h2_title": "Eligibility", "body": "First sentence. Second sentence."},
		},
	}
	llm := &stubLLM{resp: adapter.LLMResponse{Structured: structured}}

	phase := NewCompletenessGatePhase(synth.NewSynthesizer(llm), config.CompletenessFloorRetry, 90)
	err := phase.Run(context.Background(), state)
	require.NoError(t, err)

	replacedAny, ok := state.GetContext(phases.KeyArticlePayload)
	require.True(t, ok)
	replaced := replacedAny.(*domain.ArticlePayload)
	assert.NotSame(t, payload, replaced)
	assert.Equal(t, "Improved Title", replaced.Title)
	assert.Greater(t, domain.ArticleCompleteness(replaced), domain.ArticleCompleteness(payload))
}

func TestCompletenessGatePhase_RetryPolicyKeepsOriginalWhenResynthesisErrors(t *testing.T) {
	payload := bareArticlePayload()
	state := stateWithSynthesisInputs(t, payload)

	llm := &stubLLM{err: domain.Dependency(domain.CodeUpstream5xx, "llm unavailable", nil)}

	phase := NewCompletenessGatePhase(synth.NewSynthesizer(llm), config.CompletenessFloorRetry, 90)
	err := phase.Run(context.Background(), state)

	require.NoError(t, err)
	// a failed re-synthesis attempt keeps the original draft as-is rather
	// than marking it draft or failing the run.
	assert.Empty(t, payload.EditorialStatus)
	got, _ := state.GetContext(phases.KeyArticlePayload)
	assert.Same(t, payload, got)
}

func TestCompletenessGatePhase_RetryPolicyMarksDraftWhenResynthesisDoesNotImprove(t *testing.T) {
	payload := bareArticlePayload()
	state := stateWithSynthesisInputs(t, payload)

	// structured output decodes to the same two required fields as the
	// original, so its completeness score does not improve on a retry.
	structured := map[string]any{"title": "A", "markdown_body": wordyBody(600)}
	llm := &stubLLM{resp: adapter.LLMResponse{Structured: structured}}

	phase := NewCompletenessGatePhase(synth.NewSynthesizer(llm), config.CompletenessFloorRetry, 90)
	err := phase.Run(context.Background(), state)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, payload.EditorialStatus)
}
