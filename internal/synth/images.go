package synth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/Londondannyboy/quest-sub002/internal/activity/adapter"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
)

// ImageSlot names one position in the sequencer's fixed 7-slot bundle
// (spec §4.6). Company profiles only use the first two.
type ImageSlot struct {
	Index       int // 0-based emission index, see domain.ImageBundle.SetByIndex
	Prompt      string
	Aspect      string
	Alt         string
	Description string
	Title       string
}

// MoodPolicy maps a dominant sentiment to a prompt-suffix phrase, the
// "pluggable policy table" spec §4.6 calls for (positive → warm palette,
// negative → cool/muted, mixed → balanced).
type MoodPolicy map[domain.Sentiment]string

// DefaultMoodPolicy is the out-of-the-box sentiment-to-mood mapping.
var DefaultMoodPolicy = MoodPolicy{
	domain.SentimentPositive: "warm, optimistic color palette",
	domain.SentimentNegative: "cool, muted color palette",
	domain.SentimentNeutral:  "balanced, editorial color palette",
	domain.SentimentMixed:    "balanced color palette with subtle contrast",
}

// ImageSequencer produces the chained, fingerprinted image set described
// in spec §4.6: each generation after the first uses the prior image as
// a style reference, and no two images in one run may share a
// fingerprint.
type ImageSequencer struct {
	images *adapter.ImageGenerateAdapter
	mood   MoodPolicy
}

// NewImageSequencer builds a sequencer over images using policy (nil
// selects DefaultMoodPolicy).
func NewImageSequencer(images *adapter.ImageGenerateAdapter, policy MoodPolicy) *ImageSequencer {
	if policy == nil {
		policy = DefaultMoodPolicy
	}
	return &ImageSequencer{images: images, mood: policy}
}

// FailedSlot names an image slot the sequencer could not fill, with the
// error code that caused it (spec §7 E5's "image_failed idx=N reason=X").
type FailedSlot struct {
	Index  int
	Reason string
}

// Generate runs slots in order, chaining reference images and refusing
// duplicate fingerprints. On persistent failure for slot k, it records a
// nil image at that index and continues to k+1 using the last successful
// image as context (spec §4.1 P8 "partial-ok, retained urls for
// succeeded images").
func (s *ImageSequencer) Generate(ctx context.Context, slots []ImageSlot, dominantSentiment domain.Sentiment) (*domain.ImageBundle, []FailedSlot) {
	bundle := &domain.ImageBundle{}
	seen := make(map[string]bool)
	referenceURL := ""
	var failed []FailedSlot

	moodSuffix := s.mood[dominantSentiment]

	for _, slot := range slots {
		prompt := slot.Prompt
		if moodSuffix != "" {
			prompt = prompt + ", " + moodSuffix
		}

		img, newReference, err := s.generateOne(ctx, slot, prompt, referenceURL, seen)
		if err != nil {
			failed = append(failed, FailedSlot{Index: slot.Index, Reason: domain.CodeOf(err)})
			continue
		}
		bundle.SetByIndex(slot.Index, img)
		referenceURL = newReference
	}
	return bundle, failed
}

func (s *ImageSequencer) generateOne(ctx context.Context, slot ImageSlot, prompt, referenceURL string, seen map[string]bool) (*domain.Image, string, error) {
	const maxFingerprintRetries = 3
	var lastErr error
	for attempt := 0; attempt < maxFingerprintRetries; attempt++ {
		resp, err := s.images.Generate(ctx, adapter.ImageGenerateRequest{
			Prompt: prompt, ReferenceURL: referenceURL, Aspect: slot.Aspect,
		})
		if err != nil {
			return nil, referenceURL, err
		}

		fp := fingerprint(resp.Seed, prompt, referenceURL)
		if seen[fp] {
			// spec §4.6: refuse to emit a duplicate fingerprint in one
			// run; nudge the prompt and retry rather than silently
			// accepting the collision.
			prompt = fmt.Sprintf("%s (variation %d)", prompt, attempt+2)
			lastErr = domain.Data(domain.CodeConstraint, "duplicate image fingerprint", nil)
			continue
		}
		seen[fp] = true

		img := &domain.Image{
			URL: resp.URL, Alt: slot.Alt, Description: slot.Description, Title: slot.Title,
			Fingerprint: fp,
		}
		return img, resp.URL, nil
	}
	return nil, referenceURL, lastErr
}

func fingerprint(seed int64, prompt, referenceURL string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s", seed, prompt, referenceURL)
	return hex.EncodeToString(h.Sum(nil))
}

// ArticleImageSlots builds the 7-slot plan for an article from its
// sections (spec §4.6: featured, hero, content_1..5).
func ArticleImageSlots(payload *domain.ArticlePayload) []ImageSlot {
	base := payload.Title
	slots := []ImageSlot{
		{Index: 0, Prompt: "Featured editorial image for: " + base, Aspect: "4:3", Alt: base, Title: base},
		{Index: 1, Prompt: "Hero banner image for: " + base, Aspect: "16:9", Alt: base, Title: base},
	}
	for i := 0; i < 5; i++ {
		prompt := "Supporting editorial image for: " + base
		if i < len(payload.Sections) {
			prompt = "Supporting image illustrating: " + payload.Sections[i].H2Title
		}
		slots = append(slots, ImageSlot{Index: 2 + i, Prompt: prompt, Aspect: "1:1", Alt: base, Title: base})
	}
	return slots
}

// CompanyImageSlots builds the 2-slot plan for a company profile (spec §6
// config ImageCountCompany=2: featured + hero only).
func CompanyImageSlots(payload *domain.ProfilePayload) []ImageSlot {
	base := payload.LegalName
	return []ImageSlot{
		{Index: 0, Prompt: "Featured brand image for: " + base, Aspect: "4:3", Alt: base, Title: base},
		{Index: 1, Prompt: "Hero banner image for: " + base, Aspect: "16:9", Alt: base, Title: base},
	}
}

// DominantSentiment picks the sentiment to bias image mood toward: the
// most frequent non-neutral sentiment across sections, or neutral if no
// section is positive, negative or mixed. A tie goes to the first of
// positive, negative, mixed in that order (spec §4.6
// "positive/negative/mixed" policy lookup).
func DominantSentiment(sections []domain.ArticleSection) domain.Sentiment {
	counts := map[domain.Sentiment]int{}
	for _, s := range sections {
		counts[s.Sentiment]++
	}
	best := domain.SentimentNeutral
	bestCount := 0
	for _, sentiment := range []domain.Sentiment{domain.SentimentPositive, domain.SentimentNegative, domain.SentimentMixed} {
		if counts[sentiment] > bestCount {
			best = sentiment
			bestCount = counts[sentiment]
		}
	}
	return best
}
