package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	gh "github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/metrics"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/models"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/retry"
)

// Options configures the GitHub client. Zero values fall back to sane defaults.
type Options struct {
	Token     string
	BaseURL   string // e.g. https://api.github.com/ ; empty for the public API
	UserAgent string
	State     string // "open" | "closed" | "all"
	PerPage   int    // 1–100
	MaxPages  int
	Timeout   time.Duration // per request
	Retry     retry.Policy
}

// RateLimit is the rate-limit window reported by the last response.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Reset     time.Time `json:"reset"`
}

// FetchResult is what FetchIssues returns on success, and whatever was
// fetched before a failure when err != nil. Zero Issues with a nil error
// means the repository has no issues.
type FetchResult struct {
	Issues    []models.RawIssue
	Pages     int
	RateLimit RateLimit
}

// Client lists repository issues through GitHub's REST API v3.
type Client struct {
	gh   *gh.Client
	opts Options
}

// NewClient returns a ready-to-use GitHub API client. An empty token is
// accepted here; FetchIssues reports it as a ConfigurationError.
func NewClient(opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.PerPage <= 0 || opts.PerPage > 100 {
		opts.PerPage = 100
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 10
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "issue-agent"
	}

	httpClient := &http.Client{Timeout: opts.Timeout}
	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
		httpClient.Timeout = opts.Timeout
	}

	client := gh.NewClient(httpClient)
	client.UserAgent = opts.UserAgent
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", opts.BaseURL, err)
		}
		client.BaseURL = u
	}

	return &Client{gh: client, opts: opts}, nil
}

type page struct {
	issues []*gh.Issue
	resp   *gh.Response
}

// FetchIssues lists the issues of owner/repo, following pagination until the
// last page or MaxPages. Transient failures (timeouts, 5xx, 429, rate
// limits) are retried with backoff per page.
func (c *Client) FetchIssues(ctx context.Context, owner, repo string) (FetchResult, error) {
	log := clog.FromContext(ctx).With("owner", owner).With("repo", repo)

	var result FetchResult
	if c.opts.Token == "" {
		return result, &apperr.ConfigurationError{Key: "GITHUB_TOKEN", Component: "github"}
	}

	opt := &gh.IssueListByRepoOptions{
		State:       c.opts.State,
		ListOptions: gh.ListOptions{PerPage: c.opts.PerPage, Page: 1},
	}

	for {
		log.With("page", opt.ListOptions.Page).Info("[GitHub] Listing issues")

		p, err := retry.WithBackoff(ctx, c.opts.Retry, "github.list_issues", apperr.IsRetryable, func(ctx context.Context) (page, error) {
			ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
			defer cancel()

			issues, resp, err := c.gh.Issues.ListByRepo(ctx, owner, repo, opt)
			if err != nil {
				metrics.GitHubRequests.WithLabelValues("error").Inc()
				return page{resp: resp}, classify(err, resp)
			}
			metrics.GitHubRequests.WithLabelValues("ok").Inc()
			return page{issues: issues, resp: resp}, nil
		})
		if p.resp != nil {
			result.RateLimit = rateLimit(p.resp)
		}
		if err != nil {
			log.With("error", err).Error("[GitHub] Listing issues failed")
			return result, fmt.Errorf("list issues %s/%s page %d: %w", owner, repo, opt.ListOptions.Page, err)
		}

		result.Pages++
		for _, is := range p.issues {
			result.Issues = append(result.Issues, toRaw(is))
		}
		metrics.IssuesFetched.Add(float64(len(p.issues)))

		if p.resp.NextPage == 0 {
			break
		}
		if result.Pages >= c.opts.MaxPages {
			log.With("max_pages", c.opts.MaxPages).Warn("[GitHub] Page limit reached, remaining issues omitted")
			break
		}
		opt.ListOptions.Page = p.resp.NextPage
	}

	log.With("issues", len(result.Issues)).
		With("pages", result.Pages).
		With("rate_remaining", result.RateLimit.Remaining).
		With("rate_reset", result.RateLimit.Reset).
		Info("[GitHub] Fetched issues")
	return result, nil
}

// classify maps go-github errors onto RemoteError.
func classify(err error, resp *gh.Response) error {
	var rle *gh.RateLimitError
	if errors.As(err, &rle) {
		return &apperr.RemoteError{Service: "github", Status: statusOf(rle.Response), Body: rle.Message, Retryable: true, Err: err}
	}
	var arle *gh.AbuseRateLimitError
	if errors.As(err, &arle) {
		return &apperr.RemoteError{Service: "github", Status: statusOf(arle.Response), Body: arle.Message, Retryable: true, Err: err}
	}
	var er *gh.ErrorResponse
	if errors.As(err, &er) {
		re := apperr.RemoteStatus("github", statusOf(er.Response), er.Message)
		re.Err = err
		return re
	}
	if resp != nil && resp.Response != nil && resp.StatusCode >= 300 {
		re := apperr.RemoteStatus("github", resp.StatusCode, "")
		re.Err = err
		return re
	}
	return apperr.Remote("github", err)
}

func statusOf(r *http.Response) int {
	if r == nil {
		return 0
	}
	return r.StatusCode
}

func rateLimit(resp *gh.Response) RateLimit {
	return RateLimit{
		Limit:     resp.Rate.Limit,
		Remaining: resp.Rate.Remaining,
		Reset:     resp.Rate.Reset.Time,
	}
}

// toRaw converts a go-github issue into the wire-shaped RawIssue, recording
// which required fields GitHub left out.
func toRaw(is *gh.Issue) models.RawIssue {
	raw := models.RawIssue{
		Number:        is.GetNumber(),
		Title:         is.GetTitle(),
		Body:          is.Body,
		Comments:      is.GetComments(),
		HTMLURL:       is.GetHTMLURL(),
		State:         is.GetState(),
		IsPullRequest: is.IsPullRequest(),
	}
	if is.Title == nil {
		raw.Missing = append(raw.Missing, "title")
	}
	if is.User == nil || is.User.Login == nil {
		raw.Missing = append(raw.Missing, "user.login")
	} else {
		raw.User.Login = is.User.GetLogin()
	}
	if is.CreatedAt != nil {
		raw.CreatedAt = is.CreatedAt.Time.UTC().Format(time.RFC3339)
	}
	for _, l := range is.Labels {
		raw.Labels = append(raw.Labels, models.Label{
			Name:        l.GetName(),
			Color:       l.GetColor(),
			Description: l.GetDescription(),
		})
	}
	return raw
}
