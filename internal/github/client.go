package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// SearchPageSize is the page size used when walking search results.
	SearchPageSize = 100

	// SearchCeiling is the maximum number of results the search API
	// returns for any single query, regardless of the true match count.
	SearchCeiling = 1000

	// maxSearchPages is the deepest page reachable under the ceiling.
	maxSearchPages = SearchCeiling / SearchPageSize
)

// Client wraps the go-github client with the calls a scan needs:
// repository search, single-repository lookup, and file-presence probes.
// Search and core endpoints draw from separate rate limit pools, so the
// client paces them independently.
type Client struct {
	gh            *gh.Client
	searchLimiter *RateLimiter
	coreLimiter   *RateLimiter
}

// NewClient creates a GitHub API client. An empty token yields an
// unauthenticated client, which the search API limits to 10 requests
// per minute; callers should warn when running without credentials.
func NewClient(ctx context.Context, token string) *Client {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
	} else {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = DefaultTimeout

	return &Client{
		gh:            gh.NewClient(httpClient),
		searchLimiter: NewRateLimiter(SearchRate),
		coreLimiter:   NewRateLimiter(CoreRate),
	}
}

// NewClientWithHTTPClient creates a client around a prepared
// http.Client. Useful for tests pointing at a stub server.
func NewClientWithHTTPClient(httpClient *http.Client) *Client {
	return &Client{
		gh:            gh.NewClient(httpClient),
		searchLimiter: NewRateLimiter(SearchRate),
		coreLimiter:   NewRateLimiter(CoreRate),
	}
}

// GitHub returns the underlying go-github client.
func (c *Client) GitHub() *gh.Client {
	return c.gh
}

// SearchRepositories walks every result page for the given query and
// returns the records together with the reported total match count.
//
// Pagination stops at page exhaustion or at the 1,000-result ceiling.
// When the platform rejects a page with its "first 1000 results" error,
// the records collected so far are returned alongside [ErrSearchCapped]
// so the caller can subdivide the query instead of failing.
func (c *Client) SearchRepositories(ctx context.Context, query string) ([]*gh.Repository, int, error) {
	opts := &gh.SearchOptions{
		Sort:        "created",
		Order:       "desc",
		ListOptions: gh.ListOptions{PerPage: SearchPageSize},
	}

	var all []*gh.Repository
	total := 0

	for page := 1; page <= maxSearchPages; page++ {
		select {
		case <-ctx.Done():
			return all, total, ctx.Err()
		default:
		}

		if err := c.searchLimiter.Wait(ctx); err != nil {
			return all, total, fmt.Errorf("rate limit wait: %w", err)
		}

		opts.Page = page
		result, resp, err := c.gh.Search.Repositories(ctx, query, opts)
		if err != nil {
			wrapped := c.wrapError(err, "search repositories")
			if IsSearchCapped(wrapped) {
				return all, total, ErrSearchCapped
			}
			return nil, 0, wrapped
		}

		c.searchLimiter.UpdateFromResponse(underlying(resp))
		total = result.GetTotal()
		all = append(all, result.Repositories...)

		if len(result.Repositories) < SearchPageSize || resp.NextPage == 0 {
			break
		}
	}

	return all, total, nil
}

// GetRepository fetches a single repository. The response includes the
// parent link when the repository is a fork.
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*gh.Repository, error) {
	if err := c.coreLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	repository, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, c.wrapError(err, "get repo")
	}

	c.coreLimiter.UpdateFromResponse(underlying(resp))
	return repository, nil
}

// FileExists probes for a file at the given path on the given ref.
// A 404 is a definitive negative, not an error.
func (c *Client) FileExists(ctx context.Context, owner, repo, path, ref string) (bool, error) {
	if err := c.coreLimiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	fileContent, dirContent, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		wrapped := c.wrapError(err, "get contents")
		if IsNotFound(wrapped) {
			return false, nil
		}
		return false, wrapped
	}

	c.coreLimiter.UpdateFromResponse(underlying(resp))
	return fileContent != nil || dirContent != nil, nil
}

// ValidateCredentials checks the token by fetching the authenticated user.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	if err := c.coreLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	_, resp, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return c.wrapError(err, "validate credentials")
	}

	c.coreLimiter.UpdateFromResponse(underlying(resp))
	return nil
}

// SearchRemaining reports the remaining search quota seen in headers.
func (c *Client) SearchRemaining() int {
	return c.searchLimiter.Remaining()
}

// underlying extracts the raw http.Response for header inspection.
func underlying(resp *gh.Response) *http.Response {
	if resp == nil {
		return nil
	}
	return resp.Response
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		apiErr := &APIError{Message: ghErr.Message}
		if ghErr.Response != nil {
			apiErr.StatusCode = ghErr.Response.StatusCode
			if ghErr.Response.Request != nil && ghErr.Response.Request.URL != nil {
				apiErr.URL = ghErr.Response.Request.URL.String()
			}
		}
		return apiErr
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   rateLimitErr.Rate.Reset.Time,
			Remaining: rateLimitErr.Rate.Remaining,
			Limit:     rateLimitErr.Rate.Limit,
		}
	}

	return fmt.Errorf("%s: %w", operation, err)
}
