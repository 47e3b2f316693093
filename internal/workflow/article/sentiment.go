package article

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Londondannyboy/quest-sub002/internal/activity/adapter"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/phases"
)

// SectionSentimentPhase is P6: classifies each section's tone so the
// image sequencer can bias mood (spec §4.1 P6, §4.6). Failure soft-skips
// to neutral for every section rather than blocking the pipeline.
type SectionSentimentPhase struct {
	llm adapter.LLMClient
}

// NewSectionSentimentPhase builds the P6 phase over llm.
func NewSectionSentimentPhase(llm adapter.LLMClient) *SectionSentimentPhase {
	return &SectionSentimentPhase{llm: llm}
}

func (p *SectionSentimentPhase) Name() string          { return "section_sentiment" }
func (p *SectionSentimentPhase) DependsOn() []string    { return []string{"content_synthesis"} }
func (p *SectionSentimentPhase) Timeout() time.Duration { return 30 * time.Second }
func (p *SectionSentimentPhase) SkipIf() string         { return "" }
func (p *SectionSentimentPhase) RetryPolicy() *engine.RetryPolicy {
	return engine.NoRetryPolicy()
}

var sentimentSchemaHint = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"sentiments": map[string]any{"type": "array"},
	},
	"required": []string{"sentiments"},
}

type sentimentWireResponse struct {
	Sentiments []string `json:"sentiments"`
}

func (p *SectionSentimentPhase) Run(ctx context.Context, state *engine.ExecutionState) error {
	payload, err := getArticlePayload(state)
	if err != nil {
		return err
	}
	if len(payload.Sections) == 0 {
		return nil
	}

	prompt := sentimentPrompt(payload.Sections)
	resp, err := p.llm.Complete(ctx, adapter.LLMRequest{Prompt: prompt, Schema: sentimentSchemaHint, MaxTokens: 500})
	if err != nil {
		applyDefaultSentiment(payload)
		state.SetContext(phases.KeySentiments, payload.Sections)
		state.AddEvent("sentiment_classification_failed")
		return nil // soft-skip, spec §4.1 P6
	}

	raw, merr := json.Marshal(resp.Structured)
	var wire sentimentWireResponse
	if merr == nil {
		_ = json.Unmarshal(raw, &wire)
	}
	applySentiments(payload, wire.Sentiments)
	state.SetContext(phases.KeySentiments, payload.Sections)
	return nil
}

func applyDefaultSentiment(payload *domain.ArticlePayload) {
	for i := range payload.Sections {
		if payload.Sections[i].Sentiment == "" {
			payload.Sections[i].Sentiment = domain.SentimentNeutral
		}
	}
}

func applySentiments(payload *domain.ArticlePayload, values []string) {
	for i := range payload.Sections {
		if i >= len(values) {
			payload.Sections[i].Sentiment = domain.SentimentNeutral
			continue
		}
		s := domain.Sentiment(strings.ToLower(strings.TrimSpace(values[i])))
		switch s {
		case domain.SentimentPositive, domain.SentimentNegative, domain.SentimentNeutral, domain.SentimentMixed:
			payload.Sections[i].Sentiment = s
		default:
			payload.Sections[i].Sentiment = domain.SentimentNeutral
		}
	}
}

func sentimentPrompt(sections []domain.ArticleSection) string {
	var b strings.Builder
	b.WriteString("Classify the tone of each section below as exactly one of: positive, negative, neutral, mixed.\n")
	b.WriteString("Respond as JSON: {\"sentiments\": [\"...\"]} with one entry per section in order.\n\n")
	for i, s := range sections {
		fmt.Fprintf(&b, "%d. %s\n%s\n\n", i+1, s.H2Title, truncateForPrompt(s.Body, 500))
	}
	return b.String()
}

func truncateForPrompt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func getArticlePayload(state *engine.ExecutionState) (*domain.ArticlePayload, error) {
	payloadAny, ok := state.GetContext(phases.KeyArticlePayload)
	if !ok {
		return nil, domain.Data(domain.CodeEmpty, "no article payload in context", nil)
	}
	payload, ok := payloadAny.(*domain.ArticlePayload)
	if !ok {
		return nil, domain.Data(domain.CodeEmpty, "article payload has wrong type", nil)
	}
	return payload, nil
}
