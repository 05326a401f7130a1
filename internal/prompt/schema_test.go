package prompt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOutput = Object("Result",
	String("riskLevel", "risk label", true),
	StringArray("suggestedSolutions", "actions", true),
	String("reason", "", true),
	String("note", "", false),
)

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name      string
		value     map[string]any
		wantField string
	}{
		{
			name:  "valid",
			value: map[string]any{"riskLevel": "high", "suggestedSolutions": []any{"a", "b"}, "reason": "r"},
		},
		{
			name:  "optional field absent and extras ignored",
			value: map[string]any{"riskLevel": "low", "suggestedSolutions": []any{}, "reason": "r", "extra": 1.0},
		},
		{
			name:      "missing required",
			value:     map[string]any{"riskLevel": "high", "reason": "r"},
			wantField: "suggestedSolutions",
		},
		{
			name:      "null required",
			value:     map[string]any{"riskLevel": nil, "suggestedSolutions": []any{}, "reason": "r"},
			wantField: "riskLevel",
		},
		{
			name:      "wrong type",
			value:     map[string]any{"riskLevel": 3.0, "suggestedSolutions": []any{}, "reason": "r"},
			wantField: "riskLevel",
		},
		{
			name:      "array item wrong type",
			value:     map[string]any{"riskLevel": "high", "suggestedSolutions": []any{"a", 2.0}, "reason": "r"},
			wantField: "suggestedSolutions[1]",
		},
		{
			name:      "array given as string",
			value:     map[string]any{"riskLevel": "high", "suggestedSolutions": "call 911", "reason": "r"},
			wantField: "suggestedSolutions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testOutput.Validate(tt.value)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.Equal(t, "Result", ve.Schema)
		})
	}
}

func TestSchemaValidate_MinLengthCountsRunes(t *testing.T) {
	s := Object("In", String("description", "", true).Min(10))

	assert.Error(t, s.Validate(map[string]any{"description": "too short"}))
	assert.Error(t, s.Validate(map[string]any{"description": "   padded   "}))
	assert.NoError(t, s.Validate(map[string]any{"description": "アナフィラキシーの症状です"}))
}

func TestSchemaDescribe(t *testing.T) {
	desc := testOutput.Describe()

	assert.Contains(t, desc, `"riskLevel": "string", // required; risk label`)
	assert.Contains(t, desc, `"suggestedSolutions": ["string"]`)
	assert.Contains(t, desc, `"note": "string"`)
	assert.NotContains(t, desc, `"note": "string", //`)
}

func TestRender(t *testing.T) {
	got := Render("Describe: {{description}}\nLang: {{language}}\nKeep {{unknown}}", map[string]any{
		"description": "Someone fainted",
		"language":    "fr",
	})
	assert.Equal(t, "Describe: Someone fainted\nLang: fr\nKeep {{unknown}}", got)

	assert.Equal(t, "a\nb", Render("{{items}}", map[string]any{"items": []any{"a", "b"}}))
}
