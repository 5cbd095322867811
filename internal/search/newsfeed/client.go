package newsfeed

import (
	"context"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/searchvault/internal/config"
	"github.com/searchvault/internal/search"
	"github.com/searchvault/pkg/logger"
	"github.com/searchvault/pkg/ratelimit"
)

const providerName = "newsfeed"

// Client searches via an RSS search endpoint (Google News style: the query
// goes in the q parameter and results come back as feed items). No credential
// is required, which makes it a useful fallback provider.
type Client struct {
	endpoint string
	parser   *gofeed.Parser
	limiter  *ratelimit.MultiLimiter
	log      *logger.Logger
}

// New creates a new feed-search client
func New(cfg config.NewsFeedConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		parser:   gofeed.NewParser(),
		limiter:  limiter,
		log:      log.WithProvider(providerName),
	}
}

// Name returns the provider identifier
func (c *Client) Name() string {
	return providerName
}

// Search builds the feed-search URL, parses the feed and maps items to results
func (c *Client) Search(ctx context.Context, req search.Request) ([]search.Result, error) {
	feedURL, err := c.buildURL(req)
	if err != nil {
		return nil, &search.RequestError{Provider: providerName, Err: err}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, ratelimit.LimiterSearch); err != nil {
			return nil, &search.TransportError{Provider: providerName, Err: err}
		}
	}

	c.log.Debug().Str("url", feedURL).Msg("Fetching search feed")

	feed, err := c.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		if strings.Contains(err.Error(), "Failed to detect feed type") {
			return nil, &search.DecodeError{Provider: providerName, Err: err}
		}
		return nil, &search.TransportError{Provider: providerName, Err: err}
	}

	if len(feed.Items) == 0 {
		return nil, search.ErrEmptyResponse
	}

	max := req.MaxResults
	if max <= 0 || max > len(feed.Items) {
		max = len(feed.Items)
	}

	results := make([]search.Result, 0, max)
	for _, item := range feed.Items[:max] {
		if item.Link == "" {
			continue
		}
		results = append(results, search.Result{
			Title:   cleanText(item.Title),
			URL:     item.Link,
			Snippet: cleanText(item.Description),
		})
	}

	if len(results) == 0 {
		return nil, search.ErrEmptyResponse
	}

	c.log.Debug().Int("results", len(results)).Msg("Feed search completed")

	return results, nil
}

// buildURL assembles the feed-search query URL
func (c *Client) buildURL(req search.Request) (string, error) {
	base, err := url.Parse(c.endpoint)
	if err != nil {
		return "", err
	}

	query := req.Query
	if req.Filter != "" {
		query += " " + req.Filter
	}
	if window := timeWindow(req.TimeRange); window != "" {
		query += " when:" + window
	}

	params := base.Query()
	params.Set("q", query)
	if req.Language != "" {
		params.Set("hl", req.Language)
	}
	if req.Region != "" {
		params.Set("gl", req.Region)
	}
	base.RawQuery = params.Encode()

	return base.String(), nil
}

// timeWindow maps a time-range filter to the feed endpoint's when: operator
func timeWindow(timeRange string) string {
	switch timeRange {
	case "day":
		return "1d"
	case "week":
		return "7d"
	case "month":
		return "1m"
	case "year":
		return "1y"
	default:
		return ""
	}
}

// cleanText removes HTML tags and extra whitespace from feed fields
func cleanText(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
		} else if r == '>' {
			inTag = false
		} else if !inTag {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(strings.Join(strings.Fields(result.String()), " "))
}

// Ensure Client implements search.Client
var _ search.Client = (*Client)(nil)
