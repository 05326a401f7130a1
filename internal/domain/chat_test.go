package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from TurnStatus
		to   TurnStatus
		want bool
	}{
		{"idle to submitting", TurnStatusIdle, TurnStatusSubmitting, true},
		{"submitting to analysis", TurnStatusSubmitting, TurnStatusAwaitingAnalysis, true},
		{"submitting to failed", TurnStatusSubmitting, TurnStatusFailed, true},
		{"analysis to translations", TurnStatusAwaitingAnalysis, TurnStatusAwaitingTranslations, true},
		{"analysis to rendered", TurnStatusAwaitingAnalysis, TurnStatusRendered, true},
		{"analysis to failed", TurnStatusAwaitingAnalysis, TurnStatusFailed, true},
		{"translations to rendered", TurnStatusAwaitingTranslations, TurnStatusRendered, true},
		{"translations to failed", TurnStatusAwaitingTranslations, TurnStatusFailed, true},

		{"idle to rendered", TurnStatusIdle, TurnStatusRendered, false},
		{"submitting to rendered", TurnStatusSubmitting, TurnStatusRendered, false},
		{"translations to analysis", TurnStatusAwaitingTranslations, TurnStatusAwaitingAnalysis, false},
		{"rendered to failed", TurnStatusRendered, TurnStatusFailed, false},
		{"failed to submitting", TurnStatusFailed, TurnStatusSubmitting, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTurn_TransitionTo(t *testing.T) {
	turn := NewTurn("s1", "Someone is choking", "")
	assert.Equal(t, DefaultLanguage, turn.Language)
	assert.False(t, turn.NeedsTranslation())

	require.NoError(t, turn.TransitionTo(TurnStatusSubmitting))
	require.NoError(t, turn.TransitionTo(TurnStatusAwaitingAnalysis))
	assert.Zero(t, turn.Duration())

	require.NoError(t, turn.TransitionTo(TurnStatusRendered))
	assert.False(t, turn.FinishedAt.IsZero())

	err := turn.TransitionTo(TurnStatusFailed)
	assert.Error(t, err)
	assert.Equal(t, TurnStatusRendered, turn.Status)
}

func TestTurn_Messages(t *testing.T) {
	turn := NewTurn("s1", "Someone is choking", "es")
	now := time.Now()
	result := &AnalysisResult{RiskLevel: "high"}

	user := turn.UserMessage(now)
	assistant := turn.AssistantMessage(result, now)
	failed := turn.ErrorMessage(GenericAIFailureMessage, now)

	assert.True(t, user.IsUser())
	assert.Equal(t, "Someone is choking", user.Text)
	assert.True(t, assistant.IsAssistant())
	assert.True(t, assistant.Translated())
	assert.Same(t, result, assistant.Result)
	assert.True(t, failed.IsError())
	assert.False(t, failed.Translated())

	for _, m := range []ChatMessage{user, assistant, failed} {
		assert.Equal(t, turn.ID, m.TurnID)
		assert.Equal(t, "es", m.Language)
	}
}

func TestAnalysisResult_Risk(t *testing.T) {
	tests := map[string]string{
		"high":     "high",
		" HIGH ":   "high",
		"Medium":   "medium",
		"low":      "other",
		"critical": "other",
		"":         "other",
	}
	for level, want := range tests {
		r := &AnalysisResult{RiskLevel: level}
		assert.Equal(t, want, r.Risk(), "level %q", level)
	}
}

func TestLanguageLabel(t *testing.T) {
	assert.Equal(t, "English", LanguageLabel("en"))
	assert.Equal(t, "Español (Spanish)", LanguageLabel("es"))
	assert.Equal(t, "Spanish", LanguageName("es"))
	assert.Equal(t, "??", LanguageLabel("??"))

	langs := SupportedLanguages()
	require.Len(t, langs, 6)
	assert.Equal(t, "en", langs[0].Code)
	assert.Equal(t, "zh", langs[5].Code)
	assert.True(t, IsSupportedLanguage("ja"))
	assert.False(t, IsSupportedLanguage("pt"))
}

func TestLocation(t *testing.T) {
	loc := Location{Latitude: 40.7128, Longitude: -74.006}
	assert.Equal(t, "My current location is: https://www.google.com/maps?q=40.7128,-74.006", loc.Describe())
	assert.True(t, loc.Valid())
	assert.False(t, Location{Latitude: 91}.Valid())
}
