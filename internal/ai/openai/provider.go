// Package openai implements ai.Model using the OpenAI chat completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/firstaid/internal/ai"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// DefaultModel is the OpenAI model used when none is configured
const DefaultModel = "gpt-4o-mini"

// Config contains configuration for the OpenAI provider
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string // Overrides the API endpoint (used in tests)
	ProviderConfig ai.ProviderConfig
}

// Provider implements ai.Model using openai-go
type Provider struct {
	client *openai.Client
	config Config
	logger *slog.Logger
}

// New creates an OpenAI provider. The SDK's built-in retries are disabled.
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.ProviderConfig.RequestTimeout == 0 {
		config.ProviderConfig.RequestTimeout = ai.DefaultRequestTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	client := openai.NewClient(opts...)
	return &Provider{
		client: &client,
		config: config,
		logger: logger,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "openai"
}

// Generate sends the prompt as a chat completion and returns the reply text
func (p *Provider) Generate(ctx context.Context, params ai.GenerateParams) (*ai.GenerateResult, error) {
	start := time.Now()

	ctx, cancel := ai.WithTimeout(ctx, p.config.ProviderConfig)
	defer cancel()

	var messages []openai.ChatCompletionMessageParamUnion
	if params.System != "" {
		messages = append(messages, openai.SystemMessage(params.System))
	}
	if params.JSONMode {
		messages = append(messages, openai.SystemMessage("You must respond with valid JSON only. Do not include any text outside the JSON object."))
	}
	messages = append(messages, openai.UserMessage(params.Prompt))

	req := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.config.Model),
		Messages: messages,
	}
	if params.JSONMode {
		req.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return nil, ai.WrapError("openai generate", mapError(ctx, err))
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ai.WrapError("openai generate", ai.EAIEmptyResponse)
	}

	text := resp.Choices[0].Message.Content
	p.logger.Debug("openai response received",
		"prompt", params.Label,
		"length", len(text),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	return &ai.GenerateResult{
		Text: text,
		Usage: ai.UsageInfo{
			Model:        p.config.Model,
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
			Duration:     time.Since(start),
		},
	}, nil
}

// mapError converts openai-go errors into provider sentinels
func mapError(ctx context.Context, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ai.EAIUnauthorized, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ai.EAIRateLimit, err)
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %v", ai.EAIBadRequest, err)
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return fmt.Errorf("%w: %v", ai.EAITimeout, err)
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return fmt.Errorf("%w: %v", ai.EAIUnavailable, err)
		}
		return err
	}
	if mapped := ai.FromContext(ctx, err); mapped != err {
		return mapped
	}
	return fmt.Errorf("%w: %v", ai.EAIUnavailable, err)
}
