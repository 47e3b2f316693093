package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
)

func TestArticleImageSlots_BuildsSevenSlotsNamedBySection(t *testing.T) {
	payload := &domain.ArticlePayload{
		Title: "Remote Work Visas",
		Sections: []domain.ArticleSection{
			{H2Title: "Eligibility"},
			{H2Title: "Application Steps"},
		},
	}

	slots := ArticleImageSlots(payload)

	assert.Len(t, slots, 7)
	assert.Equal(t, 0, slots[0].Index)
	assert.Equal(t, "4:3", slots[0].Aspect)
	assert.Equal(t, 1, slots[1].Index)
	assert.Equal(t, "16:9", slots[1].Aspect)
	assert.Contains(t, slots[2].Prompt, "Eligibility")
	assert.Contains(t, slots[3].Prompt, "Application Steps")
	// fewer sections than content slots: remaining slots fall back to a
	// generic supporting-image prompt rather than indexing out of range.
	assert.Contains(t, slots[4].Prompt, "Supporting editorial image for")
}

func TestCompanyImageSlots_BuildsTwoSlots(t *testing.T) {
	payload := &domain.ProfilePayload{LegalName: "Acme Corp"}

	slots := CompanyImageSlots(payload)

	assert.Len(t, slots, 2)
	assert.Contains(t, slots[0].Prompt, "Acme Corp")
	assert.Equal(t, "4:3", slots[0].Aspect)
	assert.Equal(t, "16:9", slots[1].Aspect)
}

func TestDominantSentiment_PicksMostFrequentNonNeutral(t *testing.T) {
	sections := []domain.ArticleSection{
		{Sentiment: domain.SentimentNeutral},
		{Sentiment: domain.SentimentPositive},
		{Sentiment: domain.SentimentPositive},
		{Sentiment: domain.SentimentNegative},
	}

	assert.Equal(t, domain.SentimentPositive, DominantSentiment(sections))
}

func TestDominantSentiment_DefaultsToNeutralWhenNoSectionsAndPrefersPositiveOnTie(t *testing.T) {
	assert.Equal(t, domain.SentimentNeutral, DominantSentiment(nil))

	tied := []domain.ArticleSection{
		{Sentiment: domain.SentimentPositive},
		{Sentiment: domain.SentimentNegative},
	}
	assert.Equal(t, domain.SentimentPositive, DominantSentiment(tied)) // positive checked first on a tie
}

func TestFingerprint_DeterministicAndSensitiveToInputs(t *testing.T) {
	a := fingerprint(1, "prompt", "ref")
	b := fingerprint(1, "prompt", "ref")
	c := fingerprint(2, "prompt", "ref")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
