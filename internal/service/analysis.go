// Package service contains the business logic layer.
//
// This file implements the emergency risk analysis service, a thin typed
// wrapper around the analysis prompt.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/DukeRupert/firstaid/internal/domain"
	"github.com/DukeRupert/firstaid/internal/prompt"
)

// Prompt names, also used as model call labels.
const (
	AnalyzePromptName   = "analyze_emergency_risk"
	TranslatePromptName = "translate_emergency_advice"
)

// =============================================================================
// Interface Definition
// =============================================================================

// AnalysisService classifies an emergency description.
type AnalysisService interface {
	// Analyze returns a risk assessment for the description.
	// Returns domain.EINVALID (as *domain.ValidationError) when the input
	// fails the prompt's input schema; no model call is made.
	// Returns domain.EAIFAILED when the model call fails or its reply does
	// not match the output schema.
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error)
}

// analysisPrompt asks for a JSON risk assessment.
var analysisPrompt = &prompt.Prompt[domain.AnalysisRequest, domain.AnalysisResult]{
	Name:   AnalyzePromptName,
	System: "You are an AI medical assistant that analyzes medical emergencies and provides potential solutions.",
	Template: `Analyze the following medical emergency description and provide a risk level (low, medium, high) and suggested solutions.
Respond in the specified language, if provided.

Emergency Description: {{description}}
Language: {{language}}

Respond with the risk level, suggested solutions, and reasoning behind your assessment.
Ensure the suggested solutions are clear and actionable.`,
	Input: prompt.Object("AnalysisRequest",
		prompt.String("description", "A description of the medical emergency.", true).Min(domain.MinDescriptionLength),
		prompt.String("language", "The language to respond in. Defaults to English.", false),
	),
	Output: prompt.Object("AnalysisResult",
		prompt.String("riskLevel", "The risk level of the emergency (e.g., low, medium, high).", true),
		prompt.StringArray("suggestedSolutions", "An array of suggested solutions to the emergency.", true),
		prompt.String("reason", "The reasoning behind the risk assessment and suggested solutions.", true),
	),
}

// =============================================================================
// Implementation
// =============================================================================

type analysisService struct {
	invoker *prompt.Invoker
	logger  *slog.Logger
}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService(invoker *prompt.Invoker, logger *slog.Logger) AnalysisService {
	return &analysisService{
		invoker: invoker,
		logger:  logger,
	}
}

// Analyze runs the analysis prompt once.
func (s *analysisService) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	const op = "analysis.analyze"

	req.Description = strings.TrimSpace(req.Description)
	req.Language = strings.TrimSpace(req.Language)
	if req.Language == "" {
		req.Language = domain.DefaultLanguage
	}

	out, err := analysisPrompt.Invoke(ctx, s.invoker, req)
	if err != nil {
		return nil, classifyPromptError(err, op)
	}

	s.logger.Info("emergency analyzed",
		"risk_level", out.RiskLevel,
		"solutions", len(out.SuggestedSolutions),
		"language", req.Language,
	)

	return &out, nil
}

// classifyPromptError maps invoker errors onto domain errors.
func classifyPromptError(err error, op string) error {
	var ve *prompt.ValidationError
	if prompt.IsValidation(err) && errors.As(err, &ve) {
		return domain.NewValidationError(op, ve.Field, validationMessage(ve))
	}
	if prompt.IsModelFailure(err) {
		return domain.AIFailed(err, op)
	}
	return domain.Internal(err, op, "prompt invocation failed")
}

// validationMessage returns the user-facing text for an input violation.
func validationMessage(ve *prompt.ValidationError) string {
	switch ve.Field {
	case "description":
		return "Please describe the emergency in at least 10 characters."
	case "targetLanguage":
		return "Please choose a language."
	}
	return ve.Message
}
