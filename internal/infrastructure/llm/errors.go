package llm

import (
	"errors"
	"fmt"
)

// Kind classifies classification-client failures.
type Kind string

const (
	KindMissingCredential Kind = "missing_credential"
	KindRateLimited       Kind = "rate_limited"
	KindServiceError      Kind = "service_error"
	KindMalformedResponse Kind = "malformed_response"
	KindTransportError    Kind = "transport_error"
)

// Error is returned by Client.Classify. Error() is phrased for end users.
type Error struct {
	Kind     Kind
	Provider string
	Status   int
	Message  string
	Err      error
}

// Sentinels for errors.Is; they match any Error of the same kind.
var (
	ErrMissingCredential = &Error{Kind: KindMissingCredential}
	ErrRateLimited       = &Error{Kind: KindRateLimited}
	ErrServiceError      = &Error{Kind: KindServiceError}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrTransportError    = &Error{Kind: KindTransportError}
)

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Kind, and on Status when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Status == 0 || t.Status == e.Status
}

// KindOf extracts the failure kind, or "" for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func missingCredential(provider, msg string) error {
	return &Error{Kind: KindMissingCredential, Provider: provider, Message: msg}
}

func rateLimited(provider, msg string) error {
	if msg == "" {
		msg = "Rate limit exceeded. Please wait a moment and try again."
	}
	return &Error{Kind: KindRateLimited, Provider: provider, Status: 429, Message: msg}
}

func serviceError(provider string, status int, statusText string) error {
	return &Error{
		Kind:     KindServiceError,
		Provider: provider,
		Status:   status,
		Message:  fmt.Sprintf("%s API error: %d %s", displayName(provider), status, statusText),
	}
}

func malformed(provider string, err error) error {
	return &Error{
		Kind:     KindMalformedResponse,
		Provider: provider,
		Message:  fmt.Sprintf("%s returned an unreadable classification: %v", displayName(provider), err),
		Err:      err,
	}
}

func transportError(provider string, err error) error {
	return &Error{
		Kind:     KindTransportError,
		Provider: provider,
		Message:  fmt.Sprintf("Network error contacting %s: %v", displayName(provider), err),
		Err:      err,
	}
}

func displayName(provider string) string {
	switch provider {
	case "gemini":
		return "Gemini"
	case "openrouter":
		return "OpenRouter"
	case "":
		return "AI service"
	default:
		return provider
	}
}
