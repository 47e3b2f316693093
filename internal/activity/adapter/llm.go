package adapter

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
)

// LLMClient is the provider-agnostic backend behind the llm_complete
// adapter, mirroring the teacher's LLMProvider interface
// (pkg/executor/builtin/llm.go) generalized to this spec's narrower
// {prompt, schema?, max_tokens} -> {text} | {structured} contract (spec
// §6). The teacher declares models.LLMProviderAnthropic but never ships
// an implementation; this fills that gap with a real binding.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

// OpenAILLMClient is the llm_complete backend selected with
// LLM_PROVIDER=openai.
type OpenAILLMClient struct {
	client *openai.Client
	model  string
}

// NewOpenAILLMClient builds an OpenAILLMClient for model using apiKey.
func NewOpenAILLMClient(apiKey, model string) *OpenAILLMClient {
	return &OpenAILLMClient{client: openai.NewClient(apiKey), model: model}
}

// Complete implements LLMClient.
func (c *OpenAILLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens: req.MaxTokens,
	}

	if req.Schema != nil {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return LLMResponse{}, classifyLLMError(err)
	}
	if len(resp.Choices) == 0 {
		return LLMResponse{}, domain.Data(domain.CodeSchemaInvalid, "llm returned no choices", nil)
	}

	content := resp.Choices[0].Message.Content
	if req.Schema == nil {
		return LLMResponse{Text: content}, nil
	}

	var structured map[string]any
	if err := json.Unmarshal([]byte(content), &structured); err != nil {
		return LLMResponse{}, domain.Data(domain.CodeSchemaInvalid, "llm response did not match schema: "+err.Error(), err)
	}
	return LLMResponse{Structured: structured}, nil
}

// AnthropicLLMClient is the default llm_complete backend, used unless
// LLM_PROVIDER selects OpenAI (spec's synthesizer is provider-agnostic
// by design).
type AnthropicLLMClient struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicLLMClient builds an AnthropicLLMClient for model using apiKey.
func NewAnthropicLLMClient(apiKey, model string) *AnthropicLLMClient {
	return &AnthropicLLMClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}
}

// Complete implements LLMClient.
func (c *AnthropicLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	maxTokens := int64(req.MaxTokens)
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return LLMResponse{}, classifyLLMError(err)
	}
	if len(resp.Content) == 0 {
		return LLMResponse{}, domain.Data(domain.CodeSchemaInvalid, "llm returned no content blocks", nil)
	}

	text := resp.Content[0].Text
	if req.Schema == nil {
		return LLMResponse{Text: text}, nil
	}

	var structured map[string]any
	if err := json.Unmarshal([]byte(text), &structured); err != nil {
		return LLMResponse{}, domain.Data(domain.CodeSchemaInvalid, "llm response did not match schema: "+err.Error(), err)
	}
	return LLMResponse{Structured: structured}, nil
}

func classifyLLMError(err error) error {
	retryAfter := 2
	return domain.Transient(domain.CodeRateLimited, "llm call failed: "+err.Error(), err, &retryAfter)
}

// LLMCompleteAdapter wraps an LLMClient as the llm_complete activity.
type LLMCompleteAdapter struct {
	client LLMClient
}

// NewLLMCompleteAdapter builds an LLMCompleteAdapter over client.
func NewLLMCompleteAdapter(client LLMClient) *LLMCompleteAdapter {
	return &LLMCompleteAdapter{client: client}
}

// Complete executes one llm_complete call.
func (a *LLMCompleteAdapter) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	return a.client.Complete(ctx, req)
}
