package prompt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"unicode/utf8"

	"github.com/DukeRupert/firstaid/internal/ai"
	"github.com/DukeRupert/firstaid/internal/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoIn struct {
	Description string `json:"description"`
	Language    string `json:"language,omitempty"`
}

type echoOut struct {
	RiskLevel          string   `json:"riskLevel"`
	SuggestedSolutions []string `json:"suggestedSolutions"`
	Reason             string   `json:"reason"`
}

var echoPrompt = &Prompt[echoIn, echoOut]{
	Name:     "echo",
	Template: "Emergency: {{description}}\nLanguage: {{language}}",
	Input: Object("EchoInput",
		String("description", "", true).Min(10),
		String("language", "", false),
	),
	Output: testOutput,
}

func newInvoker(p *mock.Provider) *Invoker {
	return NewInvoker(p, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestInvoke_DecodesValidOutput(t *testing.T) {
	m := mock.New(nil)
	m.Responses["echo"] = `{"riskLevel":"medium","suggestedSolutions":["Apply pressure","Elevate"],"reason":"Bleeding"}`

	out, err := echoPrompt.Invoke(context.Background(), newInvoker(m), echoIn{Description: "Deep cut on the arm", Language: "en"})
	require.NoError(t, err)

	assert.Equal(t, echoOut{
		RiskLevel:          "medium",
		SuggestedSolutions: []string{"Apply pressure", "Elevate"},
		Reason:             "Bleeding",
	}, out)

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].JSONMode)
	assert.Equal(t, "echo", calls[0].Label)
	assert.Contains(t, calls[0].Prompt, "Emergency: Deep cut on the arm\nLanguage: en")
	assert.Contains(t, calls[0].Prompt, "Respond ONLY with a valid JSON object")
	assert.Contains(t, calls[0].Prompt, `"suggestedSolutions": ["string"]`)
}

func TestInvoke_AcceptsFencedJSON(t *testing.T) {
	m := mock.New(nil)
	m.Responses["echo"] = "```json\n{\"riskLevel\":\"low\",\"suggestedSolutions\":[],\"reason\":\"minor\"}\n```"

	out, err := echoPrompt.Invoke(context.Background(), newInvoker(m), echoIn{Description: "Small scrape on knee"})
	require.NoError(t, err)
	assert.Equal(t, "low", out.RiskLevel)
	assert.Empty(t, out.SuggestedSolutions)
}

func TestInvoke_InputValidationSkipsModel(t *testing.T) {
	m := mock.New(nil)

	_, err := echoPrompt.Invoke(context.Background(), newInvoker(m), echoIn{Description: "help"})

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "description", ve.Field)
	assert.True(t, IsValidation(err))
	assert.False(t, IsModelFailure(err))
	assert.Zero(t, m.CallCount(""))
}

func TestInvoke_OutputFormatErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "The risk is high. Call an ambulance."},
		{"missing field", `{"riskLevel":"high","reason":"x"}`},
		{"wrong type", `{"riskLevel":"high","suggestedSolutions":"call","reason":"x"}`},
		{"array instead of object", `["high"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mock.New(nil)
			m.Responses["echo"] = tt.raw

			_, err := echoPrompt.Invoke(context.Background(), newInvoker(m), echoIn{Description: "Chest pain and sweating"})

			var ofe *OutputFormatError
			require.True(t, errors.As(err, &ofe), "expected OutputFormatError, got %v", err)
			assert.Equal(t, tt.raw, ofe.Raw)
			assert.Equal(t, "echo", ofe.Prompt)
			assert.True(t, IsModelFailure(err))
			assert.False(t, IsValidation(err))
			assert.Equal(t, 1, m.CallCount("echo"))
		})
	}
}

func TestInvoke_CallError(t *testing.T) {
	m := mock.New(nil)
	m.Errors["echo"] = ai.EAIUnavailable

	_, err := echoPrompt.Invoke(context.Background(), newInvoker(m), echoIn{Description: "Chest pain and sweating"})

	var ce *CallError
	require.True(t, errors.As(err, &ce))
	assert.ErrorIs(t, err, ai.EAIUnavailable)
	assert.True(t, IsModelFailure(err))
	assert.Equal(t, 1, m.CallCount(""), "invoker must not retry")
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripFences(`  {"a":1} `))
	assert.Equal(t, "{\"a\":\"use ```code``` here\"}", stripFences("```json\n{\"a\":\"use ```code``` here\"}\n```"))
	assert.Equal(t, "{\"a\":\"x ```\"}", stripFences("{\"a\":\"x ```\"}"), "unfenced reply is left alone")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ab...", truncate("abcdef", 2))

	got := truncate("ñandú ñandú", 3)
	assert.Equal(t, "ñan...", got)
	assert.True(t, utf8.ValidString(got))
}
