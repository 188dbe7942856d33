package llm

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRouterBuildRequest(t *testing.T) {
	t.Parallel()

	p := NewOpenRouterProvider("", "sk-or-abc", "", DefaultGenerationParams())
	req, err := p.BuildRequest("classify me")
	require.NoError(t, err)

	assert.Equal(t, DefaultOpenRouterEndpoint, req.URL)
	assert.Equal(t, "Bearer sk-or-abc", req.Header.Get("Authorization"))
	assert.Empty(t, req.Query)

	var body chatRequest
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, DefaultOpenRouterModel, body.Model)
	assert.Equal(t, []chatMessage{{Role: "user", Content: "classify me"}}, body.Messages)
	assert.Equal(t, 2048, body.MaxTokens)
}

func TestOpenRouterUsesStoredModel(t *testing.T) {
	t.Parallel()

	p := NewOpenRouterProvider("", "k", "meta-llama/llama-3-8b", DefaultGenerationParams())
	req, err := p.BuildRequest("x")
	require.NoError(t, err)

	var body chatRequest
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, "meta-llama/llama-3-8b", body.Model)
}

func TestOpenRouterMissingKey(t *testing.T) {
	t.Parallel()

	err := NewOpenRouterProvider("", "", "", DefaultGenerationParams()).CheckCredential()
	assert.Equal(t, KindMissingCredential, KindOf(err))
	assert.Contains(t, err.Error(), "OpenRouter API key not set")
}

func TestOpenRouterParseText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		want     string
		wantKind Kind
	}{
		{
			name: "message content",
			body: `{"choices":[{"message":{"role":"assistant","content":"[{\"id\":0,\"classification\":\"genuine_value\"}]"}}]}`,
			want: `[{"id":0,"classification":"genuine_value"}]`,
		},
		{
			name:     "numeric rate limit",
			body:     `{"error":{"code":429,"message":"too many"}}`,
			wantKind: KindRateLimited,
		},
		{
			name:     "string status",
			body:     `{"error":{"status":"429","message":"too many"}}`,
			wantKind: KindRateLimited,
		},
		{
			name:     "rate limit wording",
			body:     `{"error":{"code":"busy","message":"Rate Limit reached for model"}}`,
			wantKind: KindRateLimited,
		},
		{
			name:     "embedded service error",
			body:     `{"error":{"code":402,"message":"Insufficient credits"}}`,
			wantKind: KindServiceError,
		},
		{
			name:     "no choices",
			body:     `{"choices":[]}`,
			wantKind: KindMalformedResponse,
		},
	}

	p := NewOpenRouterProvider("", "k", "", DefaultGenerationParams())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseText(&WireResponse{Status: http.StatusOK, Body: []byte(tt.body)})
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServiceErrorMessage(t *testing.T) {
	t.Parallel()

	p := NewOpenRouterProvider("", "k", "", DefaultGenerationParams())
	_, err := p.ParseText(&WireResponse{Status: http.StatusOK, Body: []byte(`{"error":{"code":402,"message":"Insufficient credits"}}`)})
	require.Error(t, err)
	assert.Equal(t, "OpenRouter API error: 402 Insufficient credits", err.Error())
	assert.ErrorIs(t, err, &Error{Kind: KindServiceError, Status: 402})
}
