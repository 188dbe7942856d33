package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const (
	// DefaultOpenRouterEndpoint is the chat-completions endpoint.
	DefaultOpenRouterEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	// DefaultOpenRouterModel is used when no model is stored.
	DefaultOpenRouterModel = "anthropic/claude-3-haiku"
)

// OpenRouterProvider implements Provider backed by OpenAI-compatible chat completions.
type OpenRouterProvider struct {
	endpoint string
	model    string
	apiKey   string
	params   GenerationParams
}

var _ Provider = (*OpenRouterProvider)(nil)

// NewOpenRouterProvider builds a provider from settings; blank values take defaults.
func NewOpenRouterProvider(endpoint, apiKey, model string, params GenerationParams) *OpenRouterProvider {
	if endpoint == "" {
		endpoint = DefaultOpenRouterEndpoint
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultOpenRouterModel
	}
	return &OpenRouterProvider{
		endpoint: endpoint,
		model:    model,
		apiKey:   strings.TrimSpace(apiKey),
		params:   params,
	}
}

// Name returns the provider identifier.
func (o *OpenRouterProvider) Name() string {
	return "openrouter"
}

// CheckCredential requires a bearer token.
func (o *OpenRouterProvider) CheckCredential() error {
	if o.apiKey == "" {
		return missingCredential(o.Name(), "OpenRouter API key not set. Please add your key in the extension settings.")
	}
	return nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// BuildRequest posts the prompt as a single user message.
func (o *OpenRouterProvider) BuildRequest(prompt string) (*WireRequest, error) {
	body, err := json.Marshal(chatRequest{
		Model:       o.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: o.params.Temperature,
		MaxTokens:   o.params.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal openrouter payload: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+o.apiKey)
	header.Set("Content-Type", "application/json")

	return &WireRequest{
		Method: http.MethodPost,
		URL:    o.endpoint,
		Header: header,
		Body:   body,
	}, nil
}

// OK accepts any 2xx status.
func (o *OpenRouterProvider) OK(resp *WireResponse) bool {
	return resp != nil && resp.Status >= 200 && resp.Status < 300
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    json.RawMessage `json:"code"`
		Status  json.RawMessage `json:"status"`
		Message string          `json:"message"`
	} `json:"error"`
}

// ParseText reads choices[0].message.content.
func (o *OpenRouterProvider) ParseText(resp *WireResponse) (string, error) {
	var parsed chatResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return "", malformed(o.Name(), fmt.Errorf("decode response: %w", err))
	}

	if e := parsed.Error; e != nil {
		code := looseInt(e.Code)
		if code == http.StatusTooManyRequests || looseInt(e.Status) == http.StatusTooManyRequests {
			return "", rateLimited(o.Name(), "Rate limit exceeded. Please wait and try again.")
		}
		if strings.Contains(strings.ToLower(e.Message), "rate limit") {
			return "", rateLimited(o.Name(), "Rate limit exceeded. Please try again in a few moments.")
		}
		if code >= http.StatusBadRequest {
			return "", serviceError(o.Name(), code, e.Message)
		}
	}

	if len(parsed.Choices) == 0 {
		return "", malformed(o.Name(), fmt.Errorf("response has no choices"))
	}
	return parsed.Choices[0].Message.Content, nil
}

// looseInt reads a numeric field that some gateways send as a string.
func looseInt(raw json.RawMessage) int {
	n, err := strconv.Atoi(strings.Trim(string(raw), `"`))
	if err != nil {
		return 0
	}
	return n
}
