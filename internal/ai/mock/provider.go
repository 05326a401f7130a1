package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/DukeRupert/firstaid/internal/ai"
)

// Prompt labels the mock recognises for its canned responses.
const (
	LabelAnalyze   = "analyze_emergency_risk"
	LabelTranslate = "translate_emergency_advice"
)

// HandlerFunc produces a raw model reply for a call
type HandlerFunc func(ctx context.Context, params ai.GenerateParams) (string, error)

// Provider is a mock AI provider for testing and development.
// It is safe for concurrent use.
type Provider struct {
	logger *slog.Logger
	delay  time.Duration

	mu sync.Mutex

	// Configurable responses for testing, keyed by GenerateParams.Label
	Responses map[string]string
	Errors    map[string]error
	Handler   HandlerFunc

	// Call tracking for testing
	calls []ai.GenerateParams
}

// New creates a new mock AI provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger:    logger,
		Responses: make(map[string]string),
		Errors:    make(map[string]error),
	}
}

// WithDelay makes every call take at least d, honouring ctx cancellation.
func (p *Provider) WithDelay(d time.Duration) *Provider {
	p.delay = d
	return p
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "mock"
}

// Generate records the call and returns the configured or canned reply
func (p *Provider) Generate(ctx context.Context, params ai.GenerateParams) (*ai.GenerateResult, error) {
	p.mu.Lock()
	p.calls = append(p.calls, params)
	handler := p.Handler
	resp, hasResp := p.Responses[params.Label]
	err := p.Errors[params.Label]
	p.mu.Unlock()

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ai.FromContext(ctx, ctx.Err())
		}
	}

	if err != nil {
		return nil, err
	}

	var text string
	switch {
	case handler != nil:
		text, err = handler(ctx, params)
		if err != nil {
			return nil, err
		}
	case hasResp:
		text = resp
	default:
		text = canned(params)
	}

	if p.logger != nil {
		p.logger.Debug("mock AI call", "prompt", params.Label, "length", len(text))
	}

	return &ai.GenerateResult{
		Text: text,
		Usage: ai.UsageInfo{
			Model:        "mock-ai-v1",
			InputTokens:  len(params.Prompt) / 4,
			OutputTokens: len(text) / 4,
			Duration:     p.delay,
		},
	}, nil
}

// Calls returns a copy of the recorded calls
func (p *Provider) Calls() []ai.GenerateParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ai.GenerateParams, len(p.calls))
	copy(out, p.calls)
	return out
}

// CallCount returns the number of calls made with the given label.
// An empty label counts every call.
func (p *Provider) CallCount(label string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if label == "" {
		return len(p.calls)
	}
	n := 0
	for _, c := range p.calls {
		if c.Label == label {
			n++
		}
	}
	return n
}

// Reset clears call counters and custom responses for testing
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
	p.Handler = nil
	p.Responses = make(map[string]string)
	p.Errors = make(map[string]error)
}

// canned returns a default reply for development use
func canned(params ai.GenerateParams) string {
	switch params.Label {
	case LabelAnalyze:
		return `{
  "riskLevel": "high",
  "suggestedSolutions": [
    "Call your local emergency number immediately.",
    "Keep the person still and monitor their breathing.",
    "Do not give them anything to eat or drink."
  ],
  "reason": "The description suggests a potentially life-threatening situation that needs professional care."
}`
	case LabelTranslate:
		b, _ := json.Marshal(map[string]string{
			"translatedText": fmt.Sprintf("[translated] %s", QuotedBlock(params.Prompt)),
		})
		return string(b)
	default:
		return `{}`
	}
}

// QuotedBlock returns the text between the first pair of triple-quote
// delimiters in prompt, or the whole prompt when none are present.
func QuotedBlock(prompt string) string {
	const delim = `"""`
	start := strings.Index(prompt, delim)
	if start < 0 {
		return strings.TrimSpace(prompt)
	}
	rest := prompt[start+len(delim):]
	end := strings.Index(rest, delim)
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}
