// Package domain contains core business types and interfaces.
//
// This file defines the chat transcript types and the turn lifecycle used
// by the assistant.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultLanguage is used when a request names no language.
const DefaultLanguage = "en"

// MinDescriptionLength is the minimum number of characters in an
// emergency description, counted after trimming.
const MinDescriptionLength = 10

// =============================================================================
// Analysis and Translation
// =============================================================================

// AnalysisRequest is the input to the risk analysis prompt.
type AnalysisRequest struct {
	Description string `json:"description"`
	Language    string `json:"language,omitempty"`
}

// AnalysisResult is a structured risk assessment.
// RiskLevel is free text; the model is asked for low, medium or high.
type AnalysisResult struct {
	RiskLevel          string   `json:"riskLevel"`
	SuggestedSolutions []string `json:"suggestedSolutions"`
	Reason             string   `json:"reason"`
}

// Risk returns the risk level normalised for display styling:
// "high", "medium" or "other".
func (r *AnalysisResult) Risk() string {
	switch normalizeRisk(r.RiskLevel) {
	case "high":
		return "high"
	case "medium":
		return "medium"
	}
	return "other"
}

func normalizeRisk(level string) string {
	return strings.ToLower(strings.TrimSpace(level))
}

// TranslationRequest is the input to the translation prompt.
type TranslationRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
}

// TranslationResult holds translated text.
type TranslationResult struct {
	TranslatedText string `json:"translatedText"`
}

// =============================================================================
// Chat Messages
// =============================================================================

// MessageKind tags a ChatMessage variant.
type MessageKind string

const (
	MessageKindUser      MessageKind = "user"
	MessageKindAssistant MessageKind = "assistant"
	MessageKindError     MessageKind = "error"
)

// ChatMessage is one transcript entry. User and error messages carry Text;
// assistant messages carry Result. Messages are never changed after they are
// appended to a transcript.
type ChatMessage struct {
	ID        uuid.UUID       `json:"id"`
	TurnID    uuid.UUID       `json:"turnId"`
	Kind      MessageKind     `json:"kind"`
	Text      string          `json:"text,omitempty"`
	Result    *AnalysisResult `json:"result,omitempty"`
	Language  string          `json:"language"`
	CreatedAt time.Time       `json:"createdAt"`
}

// IsUser reports whether m was written by the user.
func (m ChatMessage) IsUser() bool { return m.Kind == MessageKindUser }

// IsAssistant reports whether m is an analysis result.
func (m ChatMessage) IsAssistant() bool { return m.Kind == MessageKindAssistant }

// IsError reports whether m records a failed turn.
func (m ChatMessage) IsError() bool { return m.Kind == MessageKindError }

// Translated reports whether the assistant result was translated.
func (m ChatMessage) Translated() bool {
	return m.Kind == MessageKindAssistant && m.Language != "" && m.Language != DefaultLanguage
}

// =============================================================================
// Turn Status
// =============================================================================

// TurnStatus represents the lifecycle state of one chat turn.
type TurnStatus string

const (
	TurnStatusIdle                 TurnStatus = "idle"
	TurnStatusSubmitting           TurnStatus = "submitting"
	TurnStatusAwaitingAnalysis     TurnStatus = "awaiting_analysis"
	TurnStatusAwaitingTranslations TurnStatus = "awaiting_translations"
	TurnStatusRendered             TurnStatus = "rendered"
	TurnStatusFailed               TurnStatus = "failed"
)

// String returns the string representation of the status.
func (s TurnStatus) String() string {
	return string(s)
}

// IsTerminal returns true once the turn has produced a transcript entry.
func (s TurnStatus) IsTerminal() bool {
	return s == TurnStatusRendered || s == TurnStatusFailed
}

// CanTransitionTo checks if a turn can move to the target status.
//
// Valid transitions:
// - idle -> submitting
// - submitting -> awaiting_analysis | failed (validation)
// - awaiting_analysis -> awaiting_translations | rendered | failed
// - awaiting_translations -> rendered | failed
func (s TurnStatus) CanTransitionTo(target TurnStatus) bool {
	switch s {
	case TurnStatusIdle:
		return target == TurnStatusSubmitting
	case TurnStatusSubmitting:
		return target == TurnStatusAwaitingAnalysis || target == TurnStatusFailed
	case TurnStatusAwaitingAnalysis:
		return target == TurnStatusAwaitingTranslations ||
			target == TurnStatusRendered ||
			target == TurnStatusFailed
	case TurnStatusAwaitingTranslations:
		return target == TurnStatusRendered || target == TurnStatusFailed
	}
	return false
}

// Turn is one user submission and its outcome.
type Turn struct {
	ID          uuid.UUID
	SessionID   string
	Description string
	Language    string
	Status      TurnStatus
	Result      *AnalysisResult // Set when Status is rendered
	Messages    []ChatMessage   // Entries appended to the transcript
	StartedAt   time.Time
	FinishedAt  time.Time
}

// NewTurn creates an idle turn.
func NewTurn(sessionID, description, language string) *Turn {
	if language == "" {
		language = DefaultLanguage
	}
	return &Turn{
		ID:          uuid.New(),
		SessionID:   sessionID,
		Description: description,
		Language:    language,
		Status:      TurnStatusIdle,
		StartedAt:   time.Now(),
	}
}

// TransitionTo moves the turn to target, rejecting invalid transitions.
func (t *Turn) TransitionTo(target TurnStatus) error {
	if !t.Status.CanTransitionTo(target) {
		return fmt.Errorf("turn %s: invalid transition %s -> %s", t.ID, t.Status, target)
	}
	t.Status = target
	if target.IsTerminal() {
		t.FinishedAt = time.Now()
	}
	return nil
}

// Duration returns how long the turn took, or zero while it is running.
func (t *Turn) Duration() time.Duration {
	if t.FinishedAt.IsZero() {
		return 0
	}
	return t.FinishedAt.Sub(t.StartedAt)
}

// NeedsTranslation reports whether results must be translated.
func (t *Turn) NeedsTranslation() bool {
	return t.Language != DefaultLanguage
}

// UserMessage builds the transcript entry for the submitted description.
func (t *Turn) UserMessage(at time.Time) ChatMessage {
	return ChatMessage{
		ID:        uuid.New(),
		TurnID:    t.ID,
		Kind:      MessageKindUser,
		Text:      t.Description,
		Language:  t.Language,
		CreatedAt: at,
	}
}

// AssistantMessage builds the transcript entry for a rendered result.
func (t *Turn) AssistantMessage(result *AnalysisResult, at time.Time) ChatMessage {
	return ChatMessage{
		ID:        uuid.New(),
		TurnID:    t.ID,
		Kind:      MessageKindAssistant,
		Result:    result,
		Language:  t.Language,
		CreatedAt: at,
	}
}

// ErrorMessage builds the transcript entry for a failed turn.
func (t *Turn) ErrorMessage(text string, at time.Time) ChatMessage {
	return ChatMessage{
		ID:        uuid.New(),
		TurnID:    t.ID,
		Kind:      MessageKindError,
		Text:      text,
		Language:  t.Language,
		CreatedAt: at,
	}
}
