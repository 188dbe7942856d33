package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LinkedLens/internal/domain"
)

type staticSettings struct {
	settings domain.ProviderSettings
	err      error
}

func (s staticSettings) ProviderSettings(context.Context) (domain.ProviderSettings, error) {
	return s.settings, s.err
}

type callRecorder struct {
	calls []int
}

func (r *callRecorder) RunFinished(string, time.Duration) {}
func (r *callRecorder) PostsClassified(domain.Stats)      {}
func (r *callRecorder) ProviderCall(_ string, status int, _ error) {
	r.calls = append(r.calls, status)
}

// testRegistry routes both providers to the given test server.
func testRegistry(endpoint string) *Registry {
	reg := NewRegistry(domain.ProviderGemini)
	reg.Register(domain.ProviderGemini, func(s domain.ProviderSettings) Provider {
		return NewGeminiProvider(endpoint, s.GeminiAPIKey, DefaultGenerationParams())
	})
	reg.Register(domain.ProviderOpenRouter, func(s domain.ProviderSettings) Provider {
		return NewOpenRouterProvider(endpoint, s.OpenRouterAPIKey, s.OpenRouterModel, DefaultGenerationParams())
	})
	return reg
}

func noSleepRetrier() *Retrier {
	r := NewRetrier(DefaultRetryConfig(), quietLogger())
	r.sleep = func(context.Context, time.Duration) error { return nil }
	return r
}

func newTestClient(srv *httptest.Server, settings domain.ProviderSettings, opts ...ClientOption) *Client {
	opts = append([]ClientOption{
		WithHTTPClient(srv.Client()),
		WithRetrier(noSleepRetrier()),
		WithLogger(quietLogger()),
	}, opts...)
	return NewClient(staticSettings{settings: settings}, testRegistry(srv.URL), opts...)
}

func samplePosts() []domain.Post {
	return []domain.Post{
		{ID: 0, Author: "Ada", Text: "Agree? Comment below!"},
		{ID: 1, Author: "Grace", Text: "How we cut build times in half"},
	}
}

func geminiReply(text string) string {
	payload, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
		}},
	})
	return string(payload)
}

func TestClassifyGemini(t *testing.T) {
	t.Parallel()

	type seen struct{ key, body string }
	requests := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		requests <- seen{key: r.URL.Query().Get("key"), body: string(b)}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, geminiReply("```json\n[{\"id\":0,\"classification\":\"engagement_bait\"},{\"id\":1,\"classification\":\"genuine_value\"}]\n```"))
	}))
	defer srv.Close()

	metrics := &callRecorder{}
	client := newTestClient(srv, domain.ProviderSettings{Provider: domain.ProviderGemini, GeminiAPIKey: "g-key"}, WithMetrics(metrics))

	results, err := client.Classify(context.Background(), samplePosts())
	require.NoError(t, err)
	assert.Equal(t, []domain.ClassificationResult{
		{ID: 0, Classification: domain.ClassificationEngagementBait},
		{ID: 1, Classification: domain.ClassificationGenuineValue},
	}, results)

	got := <-requests
	assert.Equal(t, "g-key", got.key)
	assert.Contains(t, got.body, "Agree? Comment below!")
	assert.Equal(t, []int{http.StatusOK}, metrics.calls)
}

func TestClassifyOpenRouter(t *testing.T) {
	t.Parallel()

	auth := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth <- r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"[{\"id\":1,\"classification\":\"genuine_value\"}]"}}]}`)
	}))
	defer srv.Close()

	client := newTestClient(srv, domain.ProviderSettings{Provider: domain.ProviderOpenRouter, OpenRouterAPIKey: "or-key"})

	results, err := client.Classify(context.Background(), samplePosts())
	require.NoError(t, err)
	assert.Equal(t, []domain.ClassificationResult{{ID: 1, Classification: domain.ClassificationGenuineValue}}, results)
	assert.Equal(t, "Bearer or-key", <-auth)
}

func TestClassifyMissingKeyMakesNoRequest(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	client := newTestClient(srv, domain.ProviderSettings{Provider: domain.ProviderGemini})

	_, err := client.Classify(context.Background(), samplePosts())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredential))
	assert.Zero(t, hits.Load())
}

func TestClassifyUnknownProvider(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client := newTestClient(srv, domain.ProviderSettings{Provider: "anthropic", GeminiAPIKey: "k"})

	_, err := client.Classify(context.Background(), samplePosts())
	assert.Equal(t, KindMissingCredential, KindOf(err))
	assert.Contains(t, err.Error(), `"anthropic"`)
}

func TestClassifyBlankProviderFallsBackToGemini(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, geminiReply(`[]`))
	}))
	defer srv.Close()

	client := newTestClient(srv, domain.ProviderSettings{GeminiAPIKey: "k"})

	results, err := client.Classify(context.Background(), samplePosts())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClassifyRateLimitedIsNotRetried(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(srv, domain.ProviderSettings{Provider: domain.ProviderGemini, GeminiAPIKey: "k"})

	_, err := client.Classify(context.Background(), samplePosts())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, "Rate limit exceeded. Please wait a moment and try again.", err.Error())
	assert.EqualValues(t, 1, hits.Load())
}

func TestClassifyServerErrorRetriedOnce(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	metrics := &callRecorder{}
	client := newTestClient(srv, domain.ProviderSettings{Provider: domain.ProviderGemini, GeminiAPIKey: "k"}, WithMetrics(metrics))

	_, err := client.Classify(context.Background(), samplePosts())
	require.Error(t, err)
	assert.Equal(t, KindServiceError, KindOf(err))
	assert.Equal(t, "Gemini API error: 500 Internal Server Error", err.Error())
	assert.EqualValues(t, 2, hits.Load())
	assert.Equal(t, []int{500, 500}, metrics.calls)
}

func TestClassifyRateLimitInsideSuccessBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":{"code":200,"status":"RESOURCE_EXHAUSTED","message":"quota"}}`)
	}))
	defer srv.Close()

	client := newTestClient(srv, domain.ProviderSettings{Provider: domain.ProviderGemini, GeminiAPIKey: "k"})

	_, err := client.Classify(context.Background(), samplePosts())
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestClassifyMalformedReply(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, geminiReply("I think post 0 is bait."))
	}))
	defer srv.Close()

	client := newTestClient(srv, domain.ProviderSettings{Provider: domain.ProviderGemini, GeminiAPIKey: "k"})

	_, err := client.Classify(context.Background(), samplePosts())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestClassifyTransportErrorHidesKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	reg := testRegistry(endpoint)
	client := NewClient(
		staticSettings{settings: domain.ProviderSettings{Provider: domain.ProviderGemini, GeminiAPIKey: "secret-key"}},
		reg,
		WithRetrier(noSleepRetrier()),
		WithLogger(quietLogger()),
	)

	_, err := client.Classify(context.Background(), samplePosts())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransportError)
	assert.False(t, strings.Contains(err.Error(), "secret-key"), "error leaks credential: %v", err)
}

func TestClassifySettingsFailure(t *testing.T) {
	t.Parallel()

	client := NewClient(staticSettings{err: fmt.Errorf("store offline")}, testRegistry("http://unused"), WithLogger(quietLogger()))

	_, err := client.Classify(context.Background(), samplePosts())
	assert.ErrorIs(t, err, ErrMissingCredential)
}
