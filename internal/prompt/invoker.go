package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DukeRupert/firstaid/internal/ai"
	"github.com/DukeRupert/firstaid/internal/metrics"
)

// Prompt is a named template with typed, schema-checked input and output.
type Prompt[In, Out any] struct {
	Name     string  // Identifier used in logs, metrics and errors
	System   string  // Optional system instruction
	Template string  // Text with {{field}} placeholders
	Input    *Schema // Shape In must satisfy before rendering
	Output   *Schema // Shape the model reply must satisfy
}

// Invoker sends rendered prompts to a model. One Invoke is one model call;
// there is no retry and no caching.
type Invoker struct {
	model  ai.Model
	logger *slog.Logger
}

// NewInvoker creates an invoker for the given model
func NewInvoker(model ai.Model, logger *slog.Logger) *Invoker {
	return &Invoker{model: model, logger: logger}
}

// Model returns the underlying model
func (inv *Invoker) Model() ai.Model {
	return inv.model
}

// Render validates in against the input schema and returns the prompt text,
// including the output-format instruction.
func (p *Prompt[In, Out]) Render(in In) (string, error) {
	fields, err := toMap(in)
	if err != nil {
		return "", fmt.Errorf("prompt %s: encode input: %w", p.Name, err)
	}
	if err := p.Input.Validate(fields); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(Render(p.Template, fields)))
	b.WriteString("\n\nRespond ONLY with a valid JSON object matching this schema. Do not include any conversational text, markdown or code fences.\n")
	b.WriteString(p.Output.Describe())
	return b.String(), nil
}

// Invoke renders in, calls the model once and decodes the validated reply.
func (p *Prompt[In, Out]) Invoke(ctx context.Context, inv *Invoker, in In) (Out, error) {
	var zero Out

	text, err := p.Render(in)
	if err != nil {
		return zero, err
	}

	start := time.Now()
	res, err := inv.model.Generate(ctx, ai.GenerateParams{
		Prompt:   text,
		System:   p.System,
		JSONMode: true,
		Label:    p.Name,
	})
	duration := time.Since(start)
	if err != nil {
		metrics.AICallFailed(p.Name, inv.model.Name(), duration)
		inv.logger.Warn("model call failed",
			"prompt", p.Name,
			"provider", inv.model.Name(),
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return zero, &CallError{Prompt: p.Name, Err: err}
	}

	out, err := p.decode(res.Text)
	if err != nil {
		metrics.AIOutputRejected(p.Name, inv.model.Name(), duration)
		inv.logger.Warn("model output rejected",
			"prompt", p.Name,
			"provider", inv.model.Name(),
			"error", err,
			"raw", truncate(res.Text, 500),
		)
		return zero, err
	}

	metrics.AICallSucceeded(p.Name, inv.model.Name(), duration, res.Usage.InputTokens, res.Usage.OutputTokens)
	inv.logger.Debug("model call completed",
		"prompt", p.Name,
		"provider", inv.model.Name(),
		"model", res.Usage.Model,
		"duration_ms", duration.Milliseconds(),
	)

	return out, nil
}

// decode parses raw model text, checks it against the output schema and
// unmarshals it into Out.
func (p *Prompt[In, Out]) decode(raw string) (Out, error) {
	var out Out

	cleaned := stripFences(raw)

	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return out, &OutputFormatError{Prompt: p.Name, Raw: raw, Err: fmt.Errorf("parse JSON: %w", err)}
	}
	if err := p.Output.Validate(fields); err != nil {
		return out, &OutputFormatError{Prompt: p.Name, Raw: raw, Err: err}
	}
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return out, &OutputFormatError{Prompt: p.Name, Raw: raw, Err: fmt.Errorf("decode: %w", err)}
	}

	return out, nil
}

var (
	openingFence = regexp.MustCompile("^```[a-zA-Z]*[ \t]*\n?")
	closingFence = regexp.MustCompile("\n?```$")
)

// stripFences removes a markdown code fence wrapping the reply, such as
// ```json ... ```, so JSON can be parsed. Backticks inside the JSON are kept.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !openingFence.MatchString(text) {
		return text
	}
	text = openingFence.ReplaceAllString(text, "")
	text = closingFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func toMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
