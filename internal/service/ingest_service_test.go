package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/embedding"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/github"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/models"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/vectorstore"
)

type fakeFetcher struct {
	res github.FetchResult
	err error
}

func (f fakeFetcher) FetchIssues(context.Context, string, string) (github.FetchResult, error) {
	return f.res, f.err
}

// recordingStore wraps a real store and counts destructive calls.
type recordingStore struct {
	vectorstore.Store
	resets int
}

func (r *recordingStore) Reset(ctx context.Context) error {
	r.resets++
	return r.Store.Reset(ctx)
}

func (r *recordingStore) Replace(ctx context.Context, docs []models.IssueDocument) ([]string, error) {
	r.resets++
	return r.Store.Replace(ctx, docs)
}

func newStore(t *testing.T) *recordingStore {
	t.Helper()
	return newStoreWith(t, embedding.NewHashEmbedder(128))
}

func newStoreWith(t *testing.T, e embedding.Embedder) *recordingStore {
	t.Helper()
	s, err := vectorstore.NewBoltStore(filepath.Join(t.TempDir(), "issues.db"), "github", e)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return &recordingStore{Store: s}
}

func seed(t *testing.T, s vectorstore.Store) {
	t.Helper()
	_, err := s.Upsert(context.Background(), []models.IssueDocument{{Content: "existing issue", Metadata: models.IssueMetadata{Author: "old"}}})
	require.NoError(t, err)
}

func count(t *testing.T, s vectorstore.Store) int {
	t.Helper()
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestIngest_ReplacesCollection(t *testing.T) {
	store := newStore(t)
	seed(t, store)

	bad := crashIssue()
	bad.Number = 2
	bad.User.Login = ""
	f := fakeFetcher{res: github.FetchResult{Issues: []models.RawIssue{crashIssue(), bad}, Pages: 1}}

	report, err := NewIngestService(f, store).Ingest(context.Background(), "octo", "hello")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 1, report.Indexed)
	assert.True(t, report.Reset)
	require.Len(t, report.Skipped, 1)
	assert.Contains(t, report.Skipped[0], "user.login")
	assert.Equal(t, 1, count(t, store))

	hits, err := store.Query(context.Background(), "crash on launch", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "alice", hits[0].Document.Metadata.Author)
}

func TestIngest_EmptyRepositoryKeepsStore(t *testing.T) {
	store := newStore(t)
	seed(t, store)

	report, err := NewIngestService(fakeFetcher{res: github.FetchResult{Pages: 1}}, store).Ingest(context.Background(), "octo", "empty")
	require.NoError(t, err)
	assert.Zero(t, report.Fetched)
	assert.False(t, report.Reset)
	assert.Zero(t, store.resets)
	assert.Equal(t, 1, count(t, store))
}

func TestIngest_ConfigurationErrorKeepsStore(t *testing.T) {
	store := newStore(t)
	seed(t, store)

	f := fakeFetcher{err: &apperr.ConfigurationError{Key: "GITHUB_TOKEN", Component: "github"}}
	_, err := NewIngestService(f, store).Ingest(context.Background(), "octo", "hello")

	var ce *apperr.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Zero(t, store.resets)
	assert.Equal(t, 1, count(t, store))
}

func TestIngest_RemoteErrorWithoutIssuesKeepsStore(t *testing.T) {
	store := newStore(t)
	seed(t, store)

	f := fakeFetcher{err: apperr.RemoteStatus("github", 404, "Not Found")}
	_, err := NewIngestService(f, store).Ingest(context.Background(), "octo", "missing")

	var re *apperr.RemoteError
	require.True(t, errors.As(err, &re))
	assert.Zero(t, store.resets)
	assert.Equal(t, 1, count(t, store))
}

func TestIngest_PartialFetchIndexesWhatArrived(t *testing.T) {
	store := newStore(t)
	fetchErr := apperr.RemoteStatus("github", 502, "bad gateway")
	f := fakeFetcher{res: github.FetchResult{Issues: []models.RawIssue{crashIssue()}, Pages: 1}, err: fetchErr}

	report, err := NewIngestService(f, store).Ingest(context.Background(), "octo", "hello")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)
	assert.ErrorIs(t, report.FetchErr, fetchErr)
	assert.Equal(t, 1, count(t, store))
}

func TestIngest_AllMalformedKeepsStore(t *testing.T) {
	store := newStore(t)
	seed(t, store)

	bad := crashIssue()
	bad.Title = ""
	f := fakeFetcher{res: github.FetchResult{Issues: []models.RawIssue{bad}, Pages: 1}}

	report, err := NewIngestService(f, store).Ingest(context.Background(), "octo", "hello")
	require.NoError(t, err)
	assert.Len(t, report.Skipped, 1)
	assert.Zero(t, store.resets)
	assert.Equal(t, 1, count(t, store))
}

// flakyEmbedder fails for any text containing marker.
type flakyEmbedder struct {
	marker string
	next   embedding.Embedder
}

func (f flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.Contains(text, f.marker) {
		return nil, errors.New("embedding provider down")
	}
	return f.next.Embed(ctx, text)
}

func TestIngest_EmbeddingFailureKeepsStore(t *testing.T) {
	store := newStoreWith(t, flakyEmbedder{marker: "crash", next: embedding.NewHashEmbedder(128)})
	seed(t, store)

	f := fakeFetcher{res: github.FetchResult{Issues: []models.RawIssue{crashIssue()}, Pages: 1}}
	report, err := NewIngestService(f, store).Ingest(context.Background(), "octo", "hello")

	require.ErrorContains(t, err, "embedding provider down")
	assert.False(t, report.Reset)
	assert.Zero(t, report.Indexed)
	assert.Equal(t, 1, count(t, store))

	hits, err := store.Query(context.Background(), "existing issue", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "old", hits[0].Document.Metadata.Author)
}
