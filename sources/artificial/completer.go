package artificial

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coinsage/sources/metrics"
	"coinsage/sources/texting"
	"coinsage/sources/tracing"

	openrouter "github.com/revrost/go-openrouter"
	"github.com/revrost/go-openrouter/jsonschema"
	"github.com/shopspring/decimal"
)

var (
	ErrNotConfigured   = errors.New("text generation is not configured")
	ErrEmptyCompletion = errors.New("completion returned no content")
)

// ProviderError is the single normalized error for any transport or provider
// failure; Message carries the provider's own wording when one was returned.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("text generation provider error: %s", e.Message)
}

type CompletionOptions struct {
	Task           string
	Model          string
	FallbackModels []string
	MaxTokens      int
	Temperature    float32
	SchemaName     string
	Schema         *jsonschema.Definition
	JSONMode       bool
}

type Completion struct {
	Text   string
	Model  string
	Tokens int
	Cost   decimal.Decimal
}

type Completer struct {
	ai      *openrouter.Client
	config  *AdvisorConfig
	metrics *metrics.MetricsService
}

func NewCompleter(config *AdvisorConfig, ai *openrouter.Client, metrics *metrics.MetricsService) *Completer {
	return &Completer{ai: ai, config: config, metrics: metrics}
}

// Complete issues one chat completion round trip. Fallback models are tried
// server-side in order; there is no same-model retry at this layer.
func (x *Completer) Complete(ctx context.Context, log *tracing.Logger, messages []openrouter.ChatCompletionMessage, opts CompletionOptions) (*Completion, error) {
	if x.config.OpenRouterToken == "" {
		log.I("No text generation credential configured, skipping completion", tracing.AiTask, opts.Task)
		return nil, ErrNotConfigured
	}

	models := BuildModelList(opts.Model, opts.FallbackModels)
	if len(models) == 0 {
		return nil, ErrNotConfigured
	}

	request := openrouter.ChatCompletionRequest{
		Model:       models[0],
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Usage:       &openrouter.IncludeUsage{Include: true},
	}
	if len(models) > 1 {
		request.Models = models
	}

	if opts.Schema != nil {
		request.ResponseFormat = &openrouter.ChatCompletionResponseFormat{
			Type: openrouter.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openrouter.ChatCompletionResponseFormatJSONSchema{
				Name:   opts.SchemaName,
				Schema: opts.Schema,
				Strict: true,
			},
		}
	} else if opts.JSONMode {
		request.ResponseFormat = &openrouter.ChatCompletionResponseFormat{
			Type: openrouter.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	log = log.With(tracing.AiKind, "openrouter/advisor", tracing.AiModel, request.Model, tracing.AiTask, opts.Task)

	started := time.Now()
	response, err := x.ai.CreateChatCompletion(ctx, request)
	if err != nil {
		x.metrics.RecordAIRequest(opts.Task, "error")
		log.E("ai request failed", tracing.InnerError, err)

		var apiErr *openrouter.APIError
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{Message: fmt.Sprintf("%v", apiErr.Message)}
		}
		return nil, &ProviderError{Message: "text generation service error"}
	}

	x.metrics.RecordAIRequestDuration(time.Since(started), response.Model)

	if len(response.Choices) == 0 {
		x.metrics.RecordAIRequest(opts.Task, "empty")
		return nil, ErrEmptyCompletion
	}

	text := response.Choices[0].Message.Content.Text
	if text == "" {
		x.metrics.RecordAIRequest(opts.Task, "empty")
		return nil, ErrEmptyCompletion
	}

	var tokens int
	var spent float64
	if response.Usage != nil {
		tokens = response.Usage.TotalTokens
		spent = response.Usage.Cost
	}
	if tokens == 0 {
		tokens = texting.TokensInfer(log, promptText(messages), text)
	}
	cost := decimal.NewFromFloat(spent)

	x.metrics.RecordAIRequest(opts.Task, "ok")
	x.metrics.RecordUsage(tokens, spent, response.Model, opts.Task)
	log.I("ai completed", tracing.AiModel, response.Model, tracing.AiCost, cost.String(), tracing.AiTokens, tokens)

	return &Completion{
		Text:   text,
		Model:  response.Model,
		Tokens: tokens,
		Cost:   cost,
	}, nil
}

func promptText(messages []openrouter.ChatCompletionMessage) string {
	var sb strings.Builder
	for _, message := range messages {
		sb.WriteString(message.Content.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}
