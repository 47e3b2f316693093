package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmbiguitySignals_Confidence(t *testing.T) {
	s := AmbiguitySignals{
		NameURLMatch:            1.0,
		CategoryKeywordCoverage: 1.0,
		SourceCrossConsistency:  1.0,
		NoHomonymWarnings:       1.0,
		CoreFieldCompleteness:   1.0,
	}
	assert.InDelta(t, 1.0, s.Confidence(), 0.0001)
	assert.False(t, s.NeedsReresearch())
}

func TestAmbiguitySignals_NeedsReresearchBelowThreshold(t *testing.T) {
	s := AmbiguitySignals{
		NameURLMatch:            0.5,
		CategoryKeywordCoverage: 0.5,
		SourceCrossConsistency:  0.5,
		NoHomonymWarnings:       0.5,
		CoreFieldCompleteness:   0.5,
	}
	assert.InDelta(t, 0.5, s.Confidence(), 0.0001)
	assert.True(t, s.NeedsReresearch())
}

func TestArticleCompleteness_AllFieldsWeighSumToOneHundred(t *testing.T) {
	total := 0
	for _, f := range CanonicalArticleFields {
		total += f.Weight
	}
	assert.Equal(t, 100, total)
}

func TestCompanyCompleteness_AllFieldsWeighSumToOneHundred(t *testing.T) {
	total := 0
	for _, f := range CanonicalCompanyFields {
		total += f.Weight
	}
	assert.Equal(t, 100, total)
}

func TestArticleCompleteness_BelowFloorWithOneSource(t *testing.T) {
	a := &ArticlePayload{
		Title:        "A Topic",
		MarkdownBody: "some body",
	}
	score := ArticleCompleteness(a)
	assert.False(t, MeetsFloor(score, 60))
}

func TestArticleCompleteness_FullPayloadMeetsFloor(t *testing.T) {
	img := &Image{URL: "https://cdn.example.com/a.png"}
	a := &ArticlePayload{
		Title:           "A Topic",
		Subtitle:        "Subtitle",
		MarkdownBody:    "full markdown body",
		Excerpt:         "excerpt",
		Sections:        []ArticleSection{{H2Title: "One", Body: "body"}},
		Classification:  "news",
		Tags:            []string{"tag"},
		MetaDescription: "meta",
		MentionedCompanies: []MentionedCompany{{CompanyID: "c1", Relevance: 0.9}},
	}
	a.Images.Featured = img
	a.Images.Hero = img
	a.Images.Content1 = img
	score := ArticleCompleteness(a)
	assert.True(t, MeetsFloor(score, 60))
}

func TestCompanyCompleteness_BelowFloorWithSparseProfile(t *testing.T) {
	p := &ProfilePayload{LegalName: "Acme", Domain: "acme.com"}
	score := CompanyCompleteness(p)
	assert.False(t, MeetsFloor(score, 50))
}
