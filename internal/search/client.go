package search

import (
	"context"
	"errors"
	"fmt"
)

// Request carries one parameterized query to a search provider
type Request struct {
	Query      string
	Language   string
	Region     string
	Location   string
	SafeSearch bool
	ResultType string // web, news, images
	TimeRange  string // day, week, month, year
	Filter     string // free-form provider filter string
	MaxResults int
}

// Result is one ranked hit returned by a provider
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Client defines the interface for search providers
type Client interface {
	// Name returns the provider identifier
	Name() string

	// Search sends the request and returns results in provider rank order
	Search(ctx context.Context, req Request) ([]Result, error)
}

// ErrMissingCredential means the provider's API key is not configured.
// Surfaced to the caller as-is so the UI can prompt for configuration;
// never retried automatically.
var ErrMissingCredential = errors.New("search credential not configured")

// ErrEmptyResponse means the provider answered but carried no results
var ErrEmptyResponse = errors.New("search provider returned no results")

// RequestError means the provider request could not be constructed
type RequestError struct {
	Provider string
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: bad request: %v", e.Provider, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// TransportError wraps a network-level failure talking to the provider
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError wraps an unparseable provider response
type DecodeError struct {
	Provider string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode: %v", e.Provider, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
