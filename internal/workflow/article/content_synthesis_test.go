package article

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Londondannyboy/quest-sub002/internal/activity/adapter"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/synth"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

func TestContentSynthesisPhase_WritesArticlePayloadOnSuccess(t *testing.T) {
	payload := bareArticlePayload()
	state := stateWithSynthesisInputs(t, payload)
	// stateWithSynthesisInputs already seeds KeyArticlePayload; clear it so
	// the phase's own write is what's observed below.
	state.SetContext(phases.KeyArticlePayload, (*domain.ArticlePayload)(nil))

	llm := &stubLLM{resp: adapter.LLMResponse{Structured: map[string]any{
		"title": "Digital Nomad Visas in Greece", "markdown_body": wordyBody(600),
	}}}

	phase := NewContentSynthesisPhase(synth.NewSynthesizer(llm))
	err := phase.Run(context.Background(), state)
	require.NoError(t, err)

	got, ok := state.GetContext(phases.KeyArticlePayload)
	require.True(t, ok)
	article := got.(*domain.ArticlePayload)
	assert.Equal(t, "Digital Nomad Visas in Greece", article.Title)
}

func TestContentSynthesisPhase_PropagatesMissingArticleInput(t *testing.T) {
	state := engine.NewExecutionState("exec-1", "article")
	bundle := domain.NewResearchBundle()
	bundle.Set(&domain.SourceRecord{Kind: domain.SourceNewsSearch, Items: []domain.ResearchItem{{URL: "https://a.com", Confidence: 0.8}}})
	state.SetContext(phases.KeyResearchBundle, bundle)

	phase := NewContentSynthesisPhase(synth.NewSynthesizer(&stubLLM{}))
	err := phase.Run(context.Background(), state)

	require.Error(t, err)
	assert.Equal(t, domain.ClassInput, domain.ClassOf(err))
}

func TestContentSynthesisPhase_PropagatesWrongTypedArticleInput(t *testing.T) {
	state := engine.NewExecutionState("exec-1", "article")
	state.SetContext(phases.KeyArticleInput, "not an article input")
	bundle := domain.NewResearchBundle()
	bundle.Set(&domain.SourceRecord{Kind: domain.SourceNewsSearch, Items: []domain.ResearchItem{{URL: "https://a.com", Confidence: 0.8}}})
	state.SetContext(phases.KeyResearchBundle, bundle)

	phase := NewContentSynthesisPhase(synth.NewSynthesizer(&stubLLM{}))
	err := phase.Run(context.Background(), state)

	require.Error(t, err)
	assert.Equal(t, domain.ClassInput, domain.ClassOf(err))
}

func TestContentSynthesisPhase_PropagatesMissingResearchBundle(t *testing.T) {
	state := engine.NewExecutionState("exec-1", "article")
	state.SetContext(phases.KeyArticleInput, &domain.ArticleInput{Topic: "t", AppTag: domain.AppRelocation})

	phase := NewContentSynthesisPhase(synth.NewSynthesizer(&stubLLM{}))
	err := phase.Run(context.Background(), state)

	require.Error(t, err)
	assert.Equal(t, domain.ClassData, domain.ClassOf(err))
}

func TestContentSynthesisPhase_PropagatesEmptyBundleError(t *testing.T) {
	state := engine.NewExecutionState("exec-1", "article")
	state.SetContext(phases.KeyArticleInput, &domain.ArticleInput{Topic: "t", AppTag: domain.AppRelocation})
	state.SetContext(phases.KeyResearchBundle, domain.NewResearchBundle())

	phase := NewContentSynthesisPhase(synth.NewSynthesizer(&stubLLM{}))
	err := phase.Run(context.Background(), state)

	require.Error(t, err)
	assert.Equal(t, domain.CodeEmpty, errCode(t, err))
}

func TestContentSynthesisPhase_PropagatesSchemaInvalidAfterRepairAttemptsExhausted(t *testing.T) {
	state := stateWithSynthesisInputs(t, bareArticlePayload())

	llm := &stubLLM{resp: adapter.LLMResponse{Structured: map[string]any{"title": "Only A Title"}}} // missing markdown_body every time
	phase := NewContentSynthesisPhase(synth.NewSynthesizer(llm))
	err := phase.Run(context.Background(), state)

	require.Error(t, err)
	assert.Equal(t, domain.CodeSchemaInvalid, errCode(t, err))
}

func TestContentSynthesisPhase_NameDepsAndRetryPolicy(t *testing.T) {
	phase := NewContentSynthesisPhase(synth.NewSynthesizer(&stubLLM{}))

	assert.Equal(t, "content_synthesis", phase.Name())
	assert.Equal(t, []string{"url_validate_pre"}, phase.DependsOn())
	assert.Equal(t, engine.NoRetryPolicy(), phase.RetryPolicy())
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var pe *domain.Error
	require.ErrorAs(t, err, &pe)
	return pe.Code
}
