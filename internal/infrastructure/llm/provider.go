package llm

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"LinkedLens/internal/domain"
)

// WireRequest is a provider-built HTTP request, independent of the transport.
type WireRequest struct {
	Method string
	URL    string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// WireResponse is what the transport hands back to a provider.
type WireResponse struct {
	Status     int
	StatusText string
	Body       []byte
}

// Provider owns one AI service's endpoint, auth shape and response unwrapping.
// No response schema is shared between providers.
type Provider interface {
	// Name returns the provider identifier used in settings ("gemini", "openrouter").
	Name() string

	// CheckCredential fails fast, before any network call, when configuration is missing.
	CheckCredential() error

	// BuildRequest wraps the prompt in the provider's wire format.
	BuildRequest(prompt string) (*WireRequest, error)

	// OK reports whether the response status is a success for this provider.
	OK(resp *WireResponse) bool

	// ParseText unwraps the generated text from a successful response. It also
	// recognizes error payloads carried inside a 2xx body.
	ParseText(resp *WireResponse) (string, error)
}

// Factory builds a provider from the settings read at call time.
type Factory func(settings domain.ProviderSettings) Provider

// Registry keeps a mapping from provider names to their factories.
type Registry struct {
	factories map[string]Factory
	fallback  string
}

// NewRegistry builds an empty registry; fallback names the provider used when settings leave it blank.
func NewRegistry(fallback string) *Registry {
	return &Registry{factories: map[string]Factory{}, fallback: fallback}
}

// Register adds or replaces a provider factory.
func (r *Registry) Register(name string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[name] = factory
}

// Resolve selects exactly one provider for the given settings.
func (r *Registry) Resolve(settings domain.ProviderSettings) (Provider, error) {
	name := settings.Provider
	if name == "" {
		name = r.fallback
	}
	if factory, ok := r.factories[name]; ok {
		return factory(settings), nil
	}
	return nil, missingCredential(name, fmt.Sprintf("Unknown AI provider %q. Choose one of %v in the extension settings.", name, r.Names()))
}

// Names lists the registered providers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
