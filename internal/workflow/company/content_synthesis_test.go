package company

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

type stubLLM struct {
	resp adapter.LLMResponse
	err  error
}

func (s *stubLLM) Complete(ctx context.Context, req adapter.LLMRequest) (adapter.LLMResponse, error) {
	return s.resp, s.err
}

func bundleWithOneSource() *domain.ResearchBundle {
	bundle := domain.NewResearchBundle()
	bundle.Set(&domain.SourceRecord{Kind: domain.SourceNewsSearch, Items: []domain.ResearchItem{
		{URL: "https://acme.com/about", Title: "About Acme", Snippet: "Acme builds things.", Confidence: 0.8},
	}})
	return bundle
}

func stateWithProfileInputs(t *testing.T, input *domain.CompanyInput, bundle *domain.ResearchBundle) *engine.ExecutionState {
	t.Helper()
	state := engine.NewExecutionState("exec-1", "company")
	state.SetContext(phases.KeyCompanyInput, input)
	state.SetContext(phases.KeyResearchBundle, bundle)
	return state
}

func TestContentSynthesisPhase_WritesProfilePayloadOnSuccess(t *testing.T) {
	llm := &stubLLM{resp: adapter.LLMResponse{Structured: map[string]any{
		"legal_name": "Acme Corp",
		"domain":     "acme.com",
		"sections": []any{
			map[string]any{
				"key":              "overview",
				"title":            "Overview",
				"markdown_content": "Acme builds things. Acme ships fast.",
				"confidence":       0.9,
			},
		},
	}}}
	input := &domain.CompanyInput{URL: "https://acme.com", Category: "tech", AppTag: domain.AppConsultancy}
	state := stateWithProfileInputs(t, input, bundleWithOneSource())

	phase := NewContentSynthesisPhase(synth.NewSynthesizer(llm))
	err := phase.Run(context.Background(), state)
	require.NoError(t, err)

	payload, err := getProfilePayload(state)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", payload.LegalName)
	assert.Equal(t, "acme.com", payload.Domain)
	assert.Len(t, payload.OrderedSections(), 1)
	assert.Greater(t, payload.ConfidenceScore, 0.0)
}

func TestContentSynthesisPhase_PropagatesMissingCompanyInput(t *testing.T) {
	state := engine.NewExecutionState("exec-1", "company")
	state.SetContext(phases.KeyResearchBundle, bundleWithOneSource())

	phase := NewContentSynthesisPhase(synth.NewSynthesizer(&stubLLM{}))
	err := phase.Run(context.Background(), state)

	require.Error(t, err)
	assert.Equal(t, domain.ClassInput, domain.ClassOf(err))
}

func TestContentSynthesisPhase_PropagatesWrongTypedCompanyInput(t *testing.T) {
	state := engine.NewExecutionState("exec-1", "company")
	state.SetContext(phases.KeyCompanyInput, "not a company input")
	state.SetContext(phases.KeyResearchBundle, bundleWithOneSource())

	phase := NewContentSynthesisPhase(synth.NewSynthesizer(&stubLLM{}))
	err := phase.Run(context.Background(), state)

	require.Error(t, err)
	assert.Equal(t, domain.ClassInput, domain.ClassOf(err))
}

func TestContentSynthesisPhase_PropagatesMissingResearchBundle(t *testing.T) {
	state := engine.NewExecutionState("exec-1", "company")
	state.SetContext(phases.KeyCompanyInput, &domain.CompanyInput{URL: "https://acme.com"})

	phase := NewContentSynthesisPhase(synth.NewSynthesizer(&stubLLM{}))
	err := phase.Run(context.Background(), state)

	require.Error(t, err)
	assert.Equal(t, domain.ClassData, domain.ClassOf(err))
}

func TestContentSynthesisPhase_PropagatesEmptyBundleError(t *testing.T) {
	input := &domain.CompanyInput{URL: "https://acme.com"}
	state := stateWithProfileInputs(t, input, domain.NewResearchBundle())

	phase := NewContentSynthesisPhase(synth.NewSynthesizer(&stubLLM{}))
	err := phase.Run(context.Background(), state)

	require.Error(t, err)
	assert.Equal(t, domain.CodeEmpty, errCode(t, err))
}

func TestContentSynthesisPhase_PropagatesSchemaInvalidAfterRepairAttemptsExhausted(t *testing.T) {
	llm := &stubLLM{resp: adapter.LLMResponse{Structured: map[string]any{"legal_name": "Acme Corp"}}} // missing domain every time
	input := &domain.CompanyInput{URL: "https://acme.com"}
	state := stateWithProfileInputs(t, input, bundleWithOneSource())

	phase := NewContentSynthesisPhase(synth.NewSynthesizer(llm))
	err := phase.Run(context.Background(), state)

	require.Error(t, err)
	assert.Equal(t, domain.CodeSchemaInvalid, errCode(t, err))
}

func TestContentSynthesisPhase_NameDepsAndRetryPolicy(t *testing.T) {
	phase := NewContentSynthesisPhase(synth.NewSynthesizer(&stubLLM{}))

	assert.Equal(t, "content_synthesis", phase.Name())
	assert.Equal(t, []string{"graph_context"}, phase.DependsOn())
	assert.Equal(t, engine.NoRetryPolicy(), phase.RetryPolicy())
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var pe *domain.Error
	require.ErrorAs(t, err, &pe)
	return pe.Code
}
