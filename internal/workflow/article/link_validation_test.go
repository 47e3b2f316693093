package article

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Londondannyboy/quest-sub002/internal/activity/adapter"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

func TestExtractBundleURLs_DedupsAndSkipsSyntheticItems(t *testing.T) {
	bundle := domain.NewResearchBundle()
	bundle.Set(&domain.SourceRecord{Kind: domain.SourceNewsSearch, Items: []domain.ResearchItem{
		{URL: "https://a.com"}, {URL: "https://a.com"}, {Synthetic: true}, {URL: ""},
	}})
	state := engine.NewExecutionState("exec-1", "article")
	state.SetContext(phases.KeyResearchBundle, bundle)

	got := extractBundleURLs(state)
	assert.Equal(t, []string{"https://a.com"}, got)
}

func TestApplyBundleValidation_DropsDeadItemsAcrossRecords(t *testing.T) {
	bundle := domain.NewResearchBundle()
	bundle.Set(&domain.SourceRecord{Kind: domain.SourceNewsSearch, Items: []domain.ResearchItem{
		{URL: "https://a.com"}, {URL: "https://dead.com"},
	}})
	state := engine.NewExecutionState("exec-1", "article")
	state.SetContext(phases.KeyResearchBundle, bundle)

	applyBundleValidation(state, []adapter.URLStatus{
		{URL: "https://a.com", Status: 200},
		{URL: "https://dead.com", Status: 404},
	})

	remaining := bundle.Records[domain.SourceNewsSearch].Items
	assert.Len(t, remaining, 1)
	assert.Equal(t, "https://a.com", remaining[0].URL)
}

func TestApplyBundleValidation_NoOpOnEmptyResults(t *testing.T) {
	bundle := domain.NewResearchBundle()
	bundle.Set(&domain.SourceRecord{Kind: domain.SourceNewsSearch, Items: []domain.ResearchItem{{URL: "https://a.com"}}})
	state := engine.NewExecutionState("exec-1", "article")
	state.SetContext(phases.KeyResearchBundle, bundle)

	applyBundleValidation(state, nil)

	assert.Len(t, bundle.Records[domain.SourceNewsSearch].Items, 1)
}

func TestExtractBodyLinks_DedupsMarkdownLinks(t *testing.T) {
	payload := &domain.ArticlePayload{MarkdownBody: "See [a](https://a.com) and again [a2](https://a.com) and [b](https://b.com)."}
	state := engine.NewExecutionState("exec-1", "article")
	state.SetContext(phases.KeyArticlePayload, payload)

	got := extractBodyLinks(state)
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, got)
}

func TestExtractBodyLinks_ReturnsNilWithoutPayload(t *testing.T) {
	state := engine.NewExecutionState("exec-1", "article")
	assert.Nil(t, extractBodyLinks(state))
}

func TestApplyValidatedLinks_WritesResultsToContext(t *testing.T) {
	state := engine.NewExecutionState("exec-1", "article")
	want := []adapter.URLStatus{{URL: "https://a.com", Status: 200}}

	applyValidatedLinks(state, want)

	got, ok := state.GetContext(phases.KeyValidatedLinks)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestNewPreSynthesisURLValidatePhase_NameAndDeps(t *testing.T) {
	phase := NewPreSynthesisURLValidatePhase(nil)
	assert.Equal(t, "url_validate_pre", phase.Name())
	assert.Equal(t, []string{"graph_context"}, phase.DependsOn())
}

func TestNewLinkCleansePhase_NameAndDeps(t *testing.T) {
	phase := NewLinkCleansePhase(nil)
	assert.Equal(t, "link_cleanse", phase.Name())
	assert.Equal(t, []string{"section_sentiment"}, phase.DependsOn())
}
