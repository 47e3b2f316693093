package company

import (
	"context"
	"strings"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/config"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/synth"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

// AmbiguityScoringPhase scores the just-synthesized profile's identity
// confidence (spec §4.4) and, when it falls below
// domain.ConfidenceReresearchThreshold, performs one bounded inline
// re-research followed by re-synthesis. The re-research re-runs the
// same fan-out with the unchanged topic; the query is not refined. At
// most once per run, tracked via phases.KeyReresearchCount rather than a
// second DAG wave, since the DAG has no back-edge for "redo P2".
type AmbiguityScoringPhase struct {
	synthesizer *synth.Synthesizer
	fanout      *phases.ResearchFanoutPhase
	maxAttempts int
}

// NewAmbiguityScoringPhase builds the phase. fanout is reused to perform
// the widened re-research with the same adapters P2 used.
func NewAmbiguityScoringPhase(synthesizer *synth.Synthesizer, fanout *phases.ResearchFanoutPhase, cfg config.PipelineConfig) *AmbiguityScoringPhase {
	return &AmbiguityScoringPhase{synthesizer: synthesizer, fanout: fanout, maxAttempts: cfg.MaxReresearchAttempts}
}

func (p *AmbiguityScoringPhase) Name() string          { return "ambiguity_scoring" }
func (p *AmbiguityScoringPhase) DependsOn() []string    { return []string{"content_synthesis"} }
func (p *AmbiguityScoringPhase) Timeout() time.Duration { return 180 * time.Second }
func (p *AmbiguityScoringPhase) SkipIf() string         { return "" }
func (p *AmbiguityScoringPhase) RetryPolicy() *engine.RetryPolicy {
	return engine.NoRetryPolicy()
}

func (p *AmbiguityScoringPhase) Run(ctx context.Context, state *engine.ExecutionState) error {
	payload, err := getProfilePayload(state)
	if err != nil {
		return err
	}
	input, bundle, err := loadSynthesisInputs(state)
	if err != nil {
		return err
	}

	signals := scoreAmbiguity(input, payload, bundle)
	payload.AmbiguitySignals = signals
	payload.ConfidenceScore = signals.Confidence()
	state.SetContext(phases.KeyAmbiguity, signals)

	if !signals.NeedsReresearch() || p.maxAttempts <= 0 {
		return nil
	}
	attempt := state.IncrementAttempt("reresearch")
	if attempt > p.maxAttempts {
		return nil
	}
	state.SetContext(phases.KeyReresearchCount, attempt)
	state.AddEvent("reresearch_triggered")

	if err := p.fanout.Run(ctx, state); err != nil {
		return nil // widened research failed; keep the first-pass profile
	}
	_, widenedBundle, err := loadSynthesisInputs(state)
	if err != nil {
		return nil
	}
	retried, err := p.synthesizer.SynthesizeProfile(ctx, input, widenedBundle)
	if err != nil {
		return nil
	}

	retriedSignals := scoreAmbiguity(input, retried, widenedBundle)
	retried.AmbiguitySignals = retriedSignals
	retried.ConfidenceScore = retriedSignals.Confidence()
	if retriedSignals.Confidence() > signals.Confidence() {
		state.SetContext(phases.KeyProfilePayload, retried)
		state.SetContext(phases.KeyAmbiguity, retriedSignals)
	}
	return nil
}

// scoreAmbiguity computes the five spec §4.4 signals heuristically from
// what the synthesis pass actually produced, since there is no separate
// identity-verification adapter in the activity registry.
func scoreAmbiguity(input *domain.CompanyInput, payload *domain.ProfilePayload, bundle *domain.ResearchBundle) domain.AmbiguitySignals {
	host, _ := input.Host()

	nameURLMatch := 0.0
	if host != "" && payload.Domain != "" {
		if strings.Contains(strings.ToLower(payload.Domain), strings.ToLower(host)) ||
			strings.Contains(strings.ToLower(host), strings.ToLower(payload.Domain)) {
			nameURLMatch = 1.0
		} else if payload.LegalName != "" && strings.Contains(strings.ToLower(host), firstWord(payload.LegalName)) {
			nameURLMatch = 0.5
		}
	}

	categoryCoverage := 0.0
	if input.Category != "" {
		needle := strings.ToLower(input.Category)
		for _, sec := range payload.OrderedSections() {
			if strings.Contains(strings.ToLower(sec.MarkdownContent), needle) {
				categoryCoverage = 1.0
				break
			}
		}
	}

	crossConsistency := sourceCrossConsistency(payload.LegalName, bundle)

	return domain.AmbiguitySignals{
		NameURLMatch:            nameURLMatch,
		CategoryKeywordCoverage: categoryCoverage,
		SourceCrossConsistency:  crossConsistency,
		NoHomonymWarnings:       1.0, // no dedicated homonym-detection adapter; assume clean absent evidence otherwise
		CoreFieldCompleteness:   float64(domain.CompanyCompleteness(payload)) / 100.0,
	}
}

// sourceCrossConsistency reports the fraction of non-empty source
// records whose items mention the legal name, as a proxy for spec
// §4.4's "same legal name across >=2 sources".
func sourceCrossConsistency(legalName string, bundle *domain.ResearchBundle) float64 {
	if legalName == "" || bundle == nil {
		return 0
	}
	needle := strings.ToLower(legalName)
	hits := 0
	total := 0
	for _, rec := range bundle.Records {
		if !rec.NonEmpty() {
			continue
		}
		total++
		for _, item := range rec.Items {
			if strings.Contains(strings.ToLower(item.Title), needle) || strings.Contains(strings.ToLower(item.Snippet), needle) {
				hits++
				break
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func firstWord(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if idx := strings.IndexByte(s, ' '); idx >= 0 {
		return s[:idx]
	}
	return s
}
