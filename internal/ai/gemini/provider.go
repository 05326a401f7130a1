// Package gemini implements ai.Model on top of the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DukeRupert/firstaid/internal/ai"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured
const DefaultModel = "gemini-2.0-flash"

// Config contains configuration for the Gemini provider
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string // Overrides the API endpoint (used in tests)
	Temperature    float32
	ProviderConfig ai.ProviderConfig
}

// Provider implements ai.Model using a genai client
type Provider struct {
	client *genai.Client
	config Config
	logger *slog.Logger
}

// New creates a Gemini provider backed by the Gemini API
func New(ctx context.Context, config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Temperature == 0 {
		config.Temperature = 0.2
	}
	if config.ProviderConfig.RequestTimeout == 0 {
		config.ProviderConfig.RequestTimeout = ai.DefaultRequestTimeout
	}

	cc := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Provider{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "gemini"
}

// Generate sends the prompt to Gemini and returns the text reply
func (p *Provider) Generate(ctx context.Context, params ai.GenerateParams) (*ai.GenerateResult, error) {
	start := time.Now()

	ctx, cancel := ai.WithTimeout(ctx, p.config.ProviderConfig)
	defer cancel()

	temperature := p.config.Temperature
	genConfig := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if params.JSONMode {
		genConfig.ResponseMIMEType = "application/json"
	}
	if params.System != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(params.System, genai.RoleUser)
	}

	p.logger.Debug("generating with Gemini",
		"model", p.config.Model,
		"prompt", params.Label,
		"json_mode", params.JSONMode,
	)

	resp, err := p.client.Models.GenerateContent(ctx, p.config.Model, []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: params.Prompt}},
		},
	}, genConfig)
	if err != nil {
		return nil, ai.WrapError("gemini generate", mapError(ctx, err))
	}

	text := extractText(resp)
	if text == "" {
		return nil, ai.WrapError("gemini generate", ai.EAIEmptyResponse)
	}

	usage := ai.UsageInfo{
		Model:    p.config.Model,
		Duration: time.Since(start),
	}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &ai.GenerateResult{Text: text, Usage: usage}, nil
}

// mapError converts genai errors into provider sentinels
func mapError(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", ai.EAIUnauthorized, apiErr.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ai.EAIRateLimit, apiErr.Message)
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %s", ai.EAIBadRequest, apiErr.Message)
		case http.StatusGatewayTimeout, http.StatusRequestTimeout:
			return fmt.Errorf("%w: %s", ai.EAITimeout, apiErr.Message)
		case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusInternalServerError:
			return fmt.Errorf("%w: %s", ai.EAIUnavailable, apiErr.Message)
		}
		return err
	}
	if mapped := ai.FromContext(ctx, err); mapped != err {
		return mapped
	}
	return fmt.Errorf("%w: %v", ai.EAIUnavailable, err)
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}

	return strings.Join(texts, "")
}
