// Package llm classifies feed posts through interchangeable AI providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"LinkedLens/internal/domain"
	"LinkedLens/internal/ports"
)

// Client implements ports.Classifier. The provider is resolved once per call
// from the settings read at that moment.
type Client struct {
	settings ports.ProviderSettingsReader
	registry *Registry
	http     *resty.Client
	retrier  *Retrier
	metrics  ports.Metrics
	logger   *slog.Logger
}

var _ ports.Classifier = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient swaps the underlying transport, mostly for tests.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.http = resty.NewWithClient(c)
	}
}

// WithRetrier replaces the default retry policy.
func WithRetrier(r *Retrier) ClientOption {
	return func(client *Client) {
		client.retrier = r
	}
}

// WithMetrics records provider calls.
func WithMetrics(m ports.Metrics) ClientOption {
	return func(client *Client) {
		client.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewClient creates a classification client. No request timeout is imposed
// beyond the transport's own behavior.
func NewClient(settings ports.ProviderSettingsReader, registry *Registry, opts ...ClientOption) *Client {
	c := &Client{
		settings: settings,
		registry: registry,
		http:     resty.New(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retrier == nil {
		c.retrier = NewRetrier(DefaultRetryConfig(), c.logger)
	}
	return c
}

// Classify sends one prompt for the whole batch and returns the parsed labels.
// Every failure is an *Error.
func (c *Client) Classify(ctx context.Context, posts []domain.Post) ([]domain.ClassificationResult, error) {
	settings, err := c.settings.ProviderSettings(ctx)
	if err != nil {
		return nil, &Error{Kind: KindMissingCredential, Message: "Could not read AI provider settings.", Err: err}
	}

	provider, err := c.registry.Resolve(settings)
	if err != nil {
		return nil, err
	}
	if err := provider.CheckCredential(); err != nil {
		return nil, err
	}

	prompt, err := BuildPrompt(posts)
	if err != nil {
		return nil, malformed(provider.Name(), err)
	}
	wire, err := provider.BuildRequest(prompt)
	if err != nil {
		return nil, malformed(provider.Name(), err)
	}

	c.logger.Debug("calling classification service", "provider", provider.Name(), "posts", len(posts))

	resp, err := c.retrier.Do(ctx, func(ctx context.Context) (*WireResponse, error) {
		resp, err := c.send(ctx, wire)
		c.observe(provider.Name(), resp, err)
		return resp, err
	})
	if err != nil {
		return nil, transportError(provider.Name(), err)
	}

	if !provider.OK(resp) {
		if resp.Status == http.StatusTooManyRequests {
			return nil, rateLimited(provider.Name(), "")
		}
		return nil, serviceError(provider.Name(), resp.Status, resp.StatusText)
	}

	text, err := provider.ParseText(resp)
	if err != nil {
		return nil, err
	}

	results, skipped, err := ParseClassifications(text)
	if err != nil {
		return nil, malformed(provider.Name(), err)
	}
	if skipped > 0 {
		c.logger.Warn("ignored unusable classification entries", "provider", provider.Name(), "skipped", skipped)
	}

	c.logger.Debug("classification service replied", "provider", provider.Name(), "results", len(results))
	return results, nil
}

func (c *Client) send(ctx context.Context, wire *WireRequest) (*WireResponse, error) {
	req := c.http.R().
		SetContext(ctx).
		SetBody(wire.Body)
	for key, values := range wire.Header {
		for _, v := range values {
			req.SetHeader(key, v)
		}
	}
	if len(wire.Query) > 0 {
		req.SetQueryParamsFromValues(wire.Query)
	}

	resp, err := req.Execute(wire.Method, wire.URL)
	if err != nil {
		// url.Error repeats the full URL, query-string credentials included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("%s %s: %w", wire.Method, redact(wire.URL), err)
	}

	return &WireResponse{
		Status:     resp.StatusCode(),
		StatusText: http.StatusText(resp.StatusCode()),
		Body:       resp.Body(),
	}, nil
}

func (c *Client) observe(provider string, resp *WireResponse, err error) {
	if c.metrics == nil {
		return
	}
	status := 0
	if resp != nil {
		status = resp.Status
	}
	c.metrics.ProviderCall(provider, status, err)
}

func redact(rawURL string) string {
	base, _, _ := strings.Cut(rawURL, "?")
	return base
}
