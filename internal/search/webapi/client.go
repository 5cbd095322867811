package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/searchvault/internal/config"
	"github.com/searchvault/internal/search"
	"github.com/searchvault/pkg/logger"
	"github.com/searchvault/pkg/ratelimit"
)

const providerName = "webapi"

// searchRequest is the JSON request body sent to the provider
type searchRequest struct {
	Query      string `json:"q"`
	Language   string `json:"hl,omitempty"`
	Region     string `json:"gl,omitempty"`
	Location   string `json:"location,omitempty"`
	SafeSearch string `json:"safe,omitempty"`
	Type       string `json:"type,omitempty"`
	TimeRange  string `json:"tbs,omitempty"`
	Filter     string `json:"filter,omitempty"`
	Num        int    `json:"num,omitempty"`
}

// organicResult is one hit in the provider response
type organicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// searchResponse is the provider response envelope
type searchResponse struct {
	Organic []organicResult `json:"organic"`
	News    []organicResult `json:"news"`
}

// Client talks to a JSON web-search API authenticated by a static key
type Client struct {
	endpoint       string
	credentialName string
	maxResults     int
	credentials    config.CredentialResolver
	httpClient     *http.Client
	limiter        *ratelimit.MultiLimiter
	log            *logger.Logger
}

// New creates a new web-search API client
func New(cfg config.WebAPIConfig, credentials config.CredentialResolver, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Client {
	return &Client{
		endpoint:       cfg.Endpoint,
		credentialName: cfg.CredentialName,
		maxResults:     cfg.MaxResults,
		credentials:    credentials,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: limiter,
		log:     log.WithProvider(providerName),
	}
}

// Name returns the provider identifier
func (c *Client) Name() string {
	return providerName
}

// Search sends the query and returns results in provider rank order
func (c *Client) Search(ctx context.Context, req search.Request) ([]search.Result, error) {
	apiKey, ok := c.credentials(c.credentialName)
	if !ok {
		return nil, search.ErrMissingCredential
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, ratelimit.LimiterSearch); err != nil {
			return nil, &search.TransportError{Provider: providerName, Err: err}
		}
	}

	body := searchRequest{
		Query:     req.Query,
		Language:  req.Language,
		Region:    req.Region,
		Location:  req.Location,
		Type:      req.ResultType,
		TimeRange: req.TimeRange,
		Filter:    req.Filter,
		Num:       req.MaxResults,
	}
	if body.Num <= 0 {
		body.Num = c.maxResults
	}
	if req.SafeSearch {
		body.SafeSearch = "active"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &search.RequestError{Provider: providerName, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &search.RequestError{Provider: providerName, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", apiKey)

	c.log.Debug().Str("query", req.Query).Msg("Sending search request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &search.TransportError{Provider: providerName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &search.TransportError{
			Provider: providerName,
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, raw),
		}
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &search.DecodeError{Provider: providerName, Err: err}
	}

	hits := decoded.Organic
	if len(hits) == 0 {
		hits = decoded.News
	}
	if len(hits) == 0 {
		return nil, search.ErrEmptyResponse
	}

	results := make([]search.Result, 0, len(hits))
	for _, hit := range hits {
		if hit.Link == "" {
			continue
		}
		results = append(results, search.Result{
			Title:   hit.Title,
			URL:     hit.Link,
			Snippet: hit.Snippet,
		})
	}

	c.log.Debug().Int("results", len(results)).Msg("Search completed")

	return results, nil
}

// Ensure Client implements search.Client
var _ search.Client = (*Client)(nil)
