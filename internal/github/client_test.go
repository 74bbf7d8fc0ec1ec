package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	gh "github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient returns a client pointed at the stub server with pacing
// effectively disabled so tests run instantly.
func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	client := NewClientWithHTTPClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	client.gh.BaseURL = baseURL

	client.searchLimiter = NewRateLimiter(10000)
	client.coreLimiter = NewRateLimiter(10000)
	return client
}

type searchPage struct {
	TotalCount        int              `json:"total_count"`
	IncompleteResults bool             `json:"incomplete_results"`
	Items             []*gh.Repository `json:"items"`
}

func repoItem(fullName string) *gh.Repository {
	return &gh.Repository{FullName: gh.Ptr(fullName)}
}

func TestSearchRepositories(t *testing.T) {
	t.Run("single short page", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/search/repositories", r.URL.Path)
			_ = json.NewEncoder(w).Encode(searchPage{
				TotalCount: 2,
				Items:      []*gh.Repository{repoItem("a/iobroker.a"), repoItem("b/iobroker.b")},
			})
		}))
		defer server.Close()

		client := newTestClient(t, server)
		repos, total, err := client.SearchRepositories(context.Background(), "iobroker")

		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, repos, 2)
		assert.Equal(t, "a/iobroker.a", repos[0].GetFullName())
	})

	t.Run("walks successive pages until a short one", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			if page == 0 {
				page = 1
			}

			var items []*gh.Repository
			count := SearchPageSize
			if page == 3 {
				count = 50 // short page ends the walk
			}
			for i := 0; i < count; i++ {
				items = append(items, repoItem(fmt.Sprintf("o/iobroker.p%d-%d", page, i)))
			}

			if page < 3 {
				w.Header().Set("Link",
					fmt.Sprintf(`<%s/search/repositories?page=%d>; rel="next"`, server.URL, page+1))
			}
			_ = json.NewEncoder(w).Encode(searchPage{TotalCount: 250, Items: items})
		}))
		defer server.Close()

		client := newTestClient(t, server)
		repos, total, err := client.SearchRepositories(context.Background(), "iobroker")

		require.NoError(t, err)
		assert.Equal(t, 250, total)
		assert.Len(t, repos, 250)
	})

	t.Run("maps the first-1000 rejection to ErrSearchCapped", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			if page > 1 {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"message": "Only the first 1000 search results are available",
				})
				return
			}

			var items []*gh.Repository
			for i := 0; i < SearchPageSize; i++ {
				items = append(items, repoItem(fmt.Sprintf("o/iobroker.x%d", i)))
			}
			w.Header().Set("Link",
				fmt.Sprintf(`<%s/search/repositories?page=2>; rel="next"`, server.URL))
			_ = json.NewEncoder(w).Encode(searchPage{TotalCount: 4321, Items: items})
		}))
		defer server.Close()

		client := newTestClient(t, server)
		repos, total, err := client.SearchRepositories(context.Background(), "iobroker")

		require.ErrorIs(t, err, ErrSearchCapped)
		// Partial results come back so the caller can decide what to keep.
		assert.Len(t, repos, SearchPageSize)
		assert.Equal(t, 4321, total)
	})

	t.Run("propagates unexpected errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Bad credentials"})
		}))
		defer server.Close()

		client := newTestClient(t, server)
		_, _, err := client.SearchRepositories(context.Background(), "iobroker")

		require.Error(t, err)
		assert.True(t, IsUnauthorized(err))
		assert.False(t, IsSearchCapped(err))
	})

	t.Run("honours context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(searchPage{})
		}))
		defer server.Close()

		client := newTestClient(t, server)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := client.SearchRepositories(ctx, "iobroker")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestFileExists(t *testing.T) {
	t.Run("present file", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/repos/owner/iobroker.hue/contents/io-package.json", r.URL.Path)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"type": "file", "name": "io-package.json", "content": "e30=", "encoding": "base64",
			})
		}))
		defer server.Close()

		client := newTestClient(t, server)
		exists, err := client.FileExists(context.Background(), "owner", "iobroker.hue", "io-package.json", "main")

		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("404 is a definitive negative", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Not Found"})
		}))
		defer server.Close()

		client := newTestClient(t, server)
		exists, err := client.FileExists(context.Background(), "owner", "repo", "io-package.json", "")

		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("other failures surface as errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "upstream broke"})
		}))
		defer server.Close()

		client := newTestClient(t, server)
		_, err := client.FileExists(context.Background(), "owner", "repo", "io-package.json", "")

		require.Error(t, err)
	})
}

func TestGetRepository(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/fred/iobroker.hue", r.URL.Path)
		_ = json.NewEncoder(w).Encode(&gh.Repository{
			FullName: gh.Ptr("fred/iobroker.hue"),
			Fork:     gh.Ptr(true),
			Parent:   &gh.Repository{FullName: gh.Ptr("upstream/iobroker.hue")},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server)
	repo, err := client.GetRepository(context.Background(), "fred", "iobroker.hue")

	require.NoError(t, err)
	assert.Equal(t, "fred/iobroker.hue", repo.GetFullName())
	assert.Equal(t, "upstream/iobroker.hue", repo.GetParent().GetFullName())
}
