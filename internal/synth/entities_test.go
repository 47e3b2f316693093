package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
)

func TestExtractEntities_ResolvesExactSlugMatch(t *testing.T) {
	body := "Acme Corp announced a new office. Acme Corp has grown fast this year. Acme Corp is hiring."
	candidates := []LinkCandidate{{ID: "co-1", LegalName: "Acme Corp", Slug: domain.DeriveSlug("Acme Corp")}}

	got := ExtractEntities(body, nil, candidates)

	require := assert.New(t)
	require.NotEmpty(got)
	require.Equal("co-1", got[0].CompanyID)
	require.GreaterOrEqual(got[0].Relevance, minRelevance)
}

func TestExtractEntities_DropsUnresolvedMentions(t *testing.T) {
	body := "Globex Industries shipped a product. Globex Industries again. Globex Industries once more."
	got := ExtractEntities(body, nil, nil)

	assert.Empty(t, got)
}

func TestExtractEntities_EarlyBodyPositionBoostsRelevance(t *testing.T) {
	candidates := []LinkCandidate{{ID: "co-1", LegalName: "Initech LLC", Slug: domain.DeriveSlug("Initech LLC")}}

	early := ExtractEntities("Initech LLC leads the market. Other text follows to pad the body length out a fair bit more than the mention itself so position matters.", nil, candidates)
	late := ExtractEntities("Padding text that goes on for a while before the mention finally shows up. Initech LLC is mentioned only once here near the end.", nil, candidates)

	// the early mention earns the position bonus (0.1 + 0.3 + 0.1); the
	// single late one scores 0.2 and falls below the 0.3 keep threshold
	if assert.NotEmpty(t, early) {
		assert.GreaterOrEqual(t, early[0].Relevance, minRelevance)
	}
	assert.Empty(t, late)
}

func TestRelevantHeadings_ExtractsH2Titles(t *testing.T) {
	sections := []domain.ArticleSection{
		{H2Title: "Intro"},
		{H2Title: "Market Overview"},
	}

	assert.Equal(t, []string{"Intro", "Market Overview"}, RelevantHeadings(sections))
}
