package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultGeminiEndpoint is the generateContent endpoint of gemini-2.0-flash.
const DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

// GenerationParams are shared sampling settings.
type GenerationParams struct {
	Temperature float64
	MaxTokens   int
}

// DefaultGenerationParams keeps replies short and close to deterministic.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{Temperature: 0.3, MaxTokens: 2048}
}

// GeminiProvider talks to the generative-content API with the key in the query string.
type GeminiProvider struct {
	endpoint string
	apiKey   string
	params   GenerationParams
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider falls back to DefaultGeminiEndpoint when endpoint is empty.
func NewGeminiProvider(endpoint, apiKey string, params GenerationParams) *GeminiProvider {
	if endpoint == "" {
		endpoint = DefaultGeminiEndpoint
	}
	return &GeminiProvider{endpoint: endpoint, apiKey: strings.TrimSpace(apiKey), params: params}
}

// Name returns the provider identifier.
func (g *GeminiProvider) Name() string {
	return "gemini"
}

// CheckCredential requires an API key.
func (g *GeminiProvider) CheckCredential() error {
	if g.apiKey == "" {
		return missingCredential(g.Name(), "Gemini API key not set. Please add your key in the extension settings.")
	}
	return nil
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// BuildRequest creates a single user-role content part.
func (g *GeminiProvider) BuildRequest(prompt string) (*WireRequest, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     g.params.Temperature,
			TopK:            1,
			TopP:            1,
			MaxOutputTokens: g.params.MaxTokens,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal gemini payload: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	return &WireRequest{
		Method: http.MethodPost,
		URL:    g.endpoint,
		Query:  url.Values{"key": []string{g.apiKey}},
		Header: header,
		Body:   body,
	}, nil
}

// OK accepts any 2xx status.
func (g *GeminiProvider) OK(resp *WireResponse) bool {
	return resp != nil && resp.Status >= 200 && resp.Status < 300
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ParseText reads candidates[0].content.parts[0].text.
func (g *GeminiProvider) ParseText(resp *WireResponse) (string, error) {
	var parsed geminiResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return "", malformed(g.Name(), fmt.Errorf("decode response: %w", err))
	}

	if e := parsed.Error; e != nil {
		if e.Code == http.StatusTooManyRequests {
			return "", rateLimited(g.Name(), "Rate limit exceeded. Please wait and try again.")
		}
		if strings.Contains(e.Message, "RESOURCE_EXHAUSTED") || e.Status == "RESOURCE_EXHAUSTED" {
			return "", rateLimited(g.Name(), "API quota exceeded. Please try again later.")
		}
		if e.Code >= http.StatusBadRequest {
			return "", serviceError(g.Name(), e.Code, e.Message)
		}
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", malformed(g.Name(), fmt.Errorf("response has no candidates"))
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
