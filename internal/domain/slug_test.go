package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveSlug(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":          "hello-world",
		"  leading and trailing ": "leading-and-trailing",
		"Already-A-Slug":         "already-a-slug",
		"Multiple   Spaces":      "multiple-spaces",
	}
	for input, expected := range cases {
		assert.Equal(t, expected, DeriveSlug(input))
	}
}

func TestDeriveSlug_Idempotent(t *testing.T) {
	input := "The Future of Relocation Visas!!"
	once := DeriveSlug(input)
	twice := DeriveSlug(once)
	assert.Equal(t, once, twice)
}

func TestDisambiguateSlug(t *testing.T) {
	assert.Equal(t, "topic-slug", DisambiguateSlug("topic-slug", 1))
	assert.Equal(t, "topic-slug-2", DisambiguateSlug("topic-slug", 2))
	assert.Equal(t, "topic-slug-3", DisambiguateSlug("topic-slug", 3))
}
