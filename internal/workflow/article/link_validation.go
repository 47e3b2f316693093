package article

import (
	"regexp"

	"github.com/Londondannyboy/quest-sub002/internal/activity"
	"github.com/Londondannyboy/quest-sub002/internal/activity/adapter"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

// NewPreSynthesisURLValidatePhase builds P4: validates every URL the
// research fan-out gathered before synthesis draws on them, dropping
// items whose check got no response or a status >= 400 (spec
// §4.1 P4 "soft-skip, list preserved as-is, flagged" — a validation
// failure leaves the bundle untouched rather than blocking synthesis).
func NewPreSynthesisURLValidatePhase(activities *activity.GuardedManager) *phases.URLValidatePhase {
	return phases.NewURLValidatePhase(
		"url_validate_pre",
		[]string{"graph_context"},
		activities,
		extractBundleURLs,
		applyBundleValidation,
	)
}

// NewLinkCleansePhase builds P7: validates the links the synthesizer
// wrote into the markdown body, recording which survive for downstream
// consumers (spec §4.1 P7, §4.9's outbound-link notion).
func NewLinkCleansePhase(activities *activity.GuardedManager) *phases.URLValidatePhase {
	return phases.NewURLValidatePhase(
		"link_cleanse",
		[]string{"section_sentiment"},
		activities,
		extractBodyLinks,
		applyValidatedLinks,
	)
}

func extractBundleURLs(state *engine.ExecutionState) []string {
	bundleAny, ok := state.GetContext(phases.KeyResearchBundle)
	if !ok {
		return nil
	}
	bundle, ok := bundleAny.(*domain.ResearchBundle)
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	var urls []string
	for _, entry := range bundle.AllItems() {
		if entry.Item.URL == "" || entry.Item.Synthetic || seen[entry.Item.URL] {
			continue
		}
		seen[entry.Item.URL] = true
		urls = append(urls, entry.Item.URL)
	}
	return urls
}

// applyBundleValidation drops items whose URL came back unreachable
// (status 0) or a hard client/server failure (>=400), leaving the
// record's provenance and failure note otherwise untouched.
func applyBundleValidation(state *engine.ExecutionState, results []adapter.URLStatus) {
	if len(results) == 0 {
		return // soft-skip: bundle stays exactly as P2 produced it
	}
	bundleAny, ok := state.GetContext(phases.KeyResearchBundle)
	if !ok {
		return
	}
	bundle, ok := bundleAny.(*domain.ResearchBundle)
	if !ok {
		return
	}

	dead := make(map[string]bool)
	for _, r := range results {
		if r.Status == 0 || r.Status >= 400 {
			dead[r.URL] = true
		}
	}
	if len(dead) == 0 {
		return
	}

	for kind, rec := range bundle.Records {
		kept := rec.Items[:0]
		for _, item := range rec.Items {
			if dead[item.URL] {
				continue
			}
			kept = append(kept, item)
		}
		rec.Items = kept
		bundle.Records[kind] = rec
	}
}

var markdownLinkURL = regexp.MustCompile(`\]\((https?://[^)\s]+)\)`)

func extractBodyLinks(state *engine.ExecutionState) []string {
	payload, err := getArticlePayload(state)
	if err != nil {
		return nil
	}
	matches := markdownLinkURL.FindAllStringSubmatch(payload.MarkdownBody, -1)
	seen := make(map[string]bool)
	var urls []string
	for _, m := range matches {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		urls = append(urls, m[1])
	}
	return urls
}

func applyValidatedLinks(state *engine.ExecutionState, results []adapter.URLStatus) {
	state.SetContext(phases.KeyValidatedLinks, results)
}
