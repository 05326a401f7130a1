package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/DukeRupert/firstaid/internal/ai"
	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"rate limit", genai.APIError{Code: http.StatusTooManyRequests, Message: "quota"}, ai.EAIRateLimit},
		{"unauthorized", genai.APIError{Code: http.StatusForbidden, Message: "key"}, ai.EAIUnauthorized},
		{"unavailable", genai.APIError{Code: http.StatusServiceUnavailable, Message: "busy"}, ai.EAIUnavailable},
		{"bad request", genai.APIError{Code: http.StatusBadRequest, Message: "schema"}, ai.EAIBadRequest},
		{"network", errors.New("dial tcp: connection refused"), ai.EAIUnavailable},
		{"deadline", context.DeadlineExceeded, ai.EAITimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(context.Background(), tt.err), tt.want)
		})
	}
}

func TestExtractText(t *testing.T) {
	assert.Equal(t, "", extractText(nil))
	assert.Equal(t, "", extractText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: `{"a":`}, {Text: `1}`}}}},
		},
	}
	assert.Equal(t, `{"a":1}`, extractText(resp))
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	assert.Error(t, err)
}
