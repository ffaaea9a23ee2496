package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/retry"
)

const page1 = `[
  {"number": 1, "title": "Bug: crash on launch", "body": "Steps: open app", "user": {"login": "alice"},
   "comments": 2, "labels": [], "created_at": "2024-01-01T00:00:00Z", "state": "open"},
  {"number": 2, "title": "Docs", "body": null, "user": {"login": "bob"},
   "comments": 0, "labels": [{"name": "docs", "color": "0075ca"}], "created_at": "2024-01-02T00:00:00Z", "state": "open"}
]`

const page2 = `[
  {"number": 3, "body": "no title here", "user": {"login": "carol"}, "comments": 1, "labels": [], "created_at": "2024-01-03T00:00:00Z"}
]`

func fastRetry() retry.Policy {
	return retry.Policy{MaxRetries: 2, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func newTestClient(t *testing.T, srv *httptest.Server, token string) *Client {
	t.Helper()
	c, err := NewClient(Options{
		Token:     token,
		BaseURL:   srv.URL,
		UserAgent: "issue-agent-test",
		Timeout:   2 * time.Second,
		Retry:     fastRetry(),
	})
	require.NoError(t, err)
	return c
}

func TestFetchIssues_Paginates(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/hello/issues", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Contains(t, r.Header.Get("Accept"), "application/vnd.github")
		assert.Equal(t, "issue-agent-test", r.Header.Get("User-Agent"))

		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Remaining", "4998")
		w.Header().Set("X-RateLimit-Reset", "1893456000")
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/octo/hello/issues?page=2>; rel="next"`, srvURL))
			fmt.Fprint(w, page1)
		case "2":
			fmt.Fprint(w, page2)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	res, err := newTestClient(t, srv, "secret").FetchIssues(context.Background(), "octo", "hello")
	require.NoError(t, err)

	assert.Equal(t, 2, res.Pages)
	require.Len(t, res.Issues, 3)
	assert.Equal(t, 4998, res.RateLimit.Remaining)
	assert.Equal(t, 5000, res.RateLimit.Limit)

	first := res.Issues[0]
	assert.Equal(t, "Bug: crash on launch", first.Title)
	assert.Equal(t, "Steps: open app", first.BodyText())
	assert.Equal(t, "alice", first.User.Login)
	assert.Equal(t, 2, first.Comments)
	assert.Equal(t, "2024-01-01T00:00:00Z", first.CreatedAt)
	assert.Empty(t, first.Missing)

	second := res.Issues[1]
	assert.Nil(t, second.Body)
	require.Len(t, second.Labels, 1)
	assert.Equal(t, "docs", second.Labels[0].Name)

	assert.Equal(t, []string{"title"}, res.Issues[2].Missing)
}

func TestFetchIssues_MaxPages(t *testing.T) {
	var srvURL string
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/octo/hello/issues?page=9>; rel="next"`, srvURL))
		fmt.Fprint(w, page1)
	}))
	defer srv.Close()
	srvURL = srv.URL

	c, err := NewClient(Options{Token: "t", BaseURL: srv.URL, MaxPages: 1, Retry: fastRetry()})
	require.NoError(t, err)

	res, err := c.FetchIssues(context.Background(), "octo", "hello")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)
	assert.Len(t, res.Issues, 2)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchIssues_EmptyRepository(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv, "t").FetchIssues(context.Background(), "octo", "empty")
	require.NoError(t, err)
	assert.Empty(t, res.Issues)
	assert.Equal(t, 1, res.Pages)
}

func TestFetchIssues_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, `{"message": "bad gateway"}`)
			return
		}
		fmt.Fprint(w, page1)
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv, "t").FetchIssues(context.Background(), "octo", "hello")
	require.NoError(t, err)
	assert.Len(t, res.Issues, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchIssues_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, "t").FetchIssues(context.Background(), "octo", "missing")
	var re *apperr.RemoteError
	require.True(t, errors.As(err, &re), "got %v", err)
	assert.Equal(t, http.StatusNotFound, re.Status)
	assert.Equal(t, "Not Found", re.Body)
	assert.False(t, re.Retryable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchIssues_MissingToken(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv, "").FetchIssues(context.Background(), "octo", "hello")
	var ce *apperr.ConfigurationError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, "GITHUB_TOKEN", ce.Key)
	assert.Empty(t, res.Issues)
	assert.Equal(t, int32(0), calls.Load())
}

func TestFetchIssues_RequestsPagesInOrder(t *testing.T) {
	var (
		srvURL string
		mu     sync.Mutex
		pages  []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		mu.Lock()
		pages = append(pages, page)
		mu.Unlock()
		switch page {
		case "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/octo/hello/issues?page=2>; rel="next"`, srvURL))
			fmt.Fprint(w, page1)
		case "2":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/octo/hello/issues?page=3>; rel="next"`, srvURL))
			fmt.Fprint(w, page2)
		default:
			fmt.Fprint(w, `[]`)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	res, err := newTestClient(t, srv, "t").FetchIssues(context.Background(), "octo", "hello")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Pages)
	assert.Len(t, res.Issues, 3)
	assert.Equal(t, []string{"1", "2", "3"}, pages)
}

func TestFetchIssues_FailureKeepsEarlierPages(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/octo/hello/issues?page=2>; rel="next"`, srvURL))
		fmt.Fprint(w, page1)
	}))
	defer srv.Close()
	srvURL = srv.URL

	res, err := newTestClient(t, srv, "t").FetchIssues(context.Background(), "octo", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 2")
	assert.Len(t, res.Issues, 2)
	assert.Equal(t, 1, res.Pages)
}
