package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Model defines the interface for a hosted generative language model.
// Implementations send a single prompt and return the raw text reply.
type Model interface {
	// Name returns the provider name used in logs and metrics (e.g. "gemini")
	Name() string

	// Generate sends one prompt to the hosted model. It never retries.
	Generate(ctx context.Context, params GenerateParams) (*GenerateResult, error)
}

// GenerateParams contains parameters for a single generation call
type GenerateParams struct {
	Prompt   string // Rendered prompt text
	System   string // Optional system instruction
	JSONMode bool   // Ask the provider for a JSON-only response
	Label    string // Prompt name for logging and metrics
}

// GenerateResult contains the raw model output
type GenerateResult struct {
	Text  string    // Raw text returned by the model
	Usage UsageInfo // Token usage information
}

// UsageInfo tracks API usage for monitoring
type UsageInfo struct {
	Model        string        // AI model used
	InputTokens  int           // Tokens in the request
	OutputTokens int           // Tokens in the response
	Duration     time.Duration // Request duration
}

// ProviderConfig contains common configuration for AI providers
type ProviderConfig struct {
	RequestTimeout time.Duration // Timeout for individual requests
}

// DefaultRequestTimeout bounds a single model call when no timeout is configured.
const DefaultRequestTimeout = 60 * time.Second

// Error codes for AI provider operations
var (
	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the AI service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")

	// EAIEmptyResponse indicates the model returned no text
	EAIEmptyResponse = errors.New("ai provider returned an empty response")

	// EAIBadRequest indicates the provider rejected the request
	EAIBadRequest = errors.New("ai provider rejected the request")
)

// IsTransient returns true if the error is a transient provider error.
// Callers surface these to the user; nothing in this module retries them.
func IsTransient(err error) bool {
	return errors.Is(err, EAIRateLimit) ||
		errors.Is(err, EAITimeout) ||
		errors.Is(err, EAIUnavailable)
}

// WrapError wraps an error with context about the AI operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}

// FromContext maps context errors onto provider sentinels.
func FromContext(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", EAITimeout, err)
	}
	return err
}

// WithTimeout applies the provider request timeout to ctx.
func WithTimeout(ctx context.Context, cfg ProviderConfig) (context.Context, context.CancelFunc) {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
