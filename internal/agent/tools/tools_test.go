package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/models"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/notes"
)

type fakeSearcher struct {
	gotQuery string
	gotK     int
	hits     []models.SearchResult
}

func (f *fakeSearcher) Query(_ context.Context, text string, k int) ([]models.SearchResult, error) {
	f.gotQuery, f.gotK = text, k
	return f.hits, nil
}

func TestRetrieval_Definition(t *testing.T) {
	def := NewRetrieval(&fakeSearcher{}).Definition()
	assert.Equal(t, "github_search", def.Name)
	assert.Equal(t, "Search for information about github issues. For any questions about github issues, you must use this tool!", def.Description)
	require.Len(t, def.Parameters, 1)
	assert.Equal(t, "query", def.Parameters[0].Name)
	assert.True(t, def.Parameters[0].Required)
}

func TestRetrieval_InvokeFormatsSnippets(t *testing.T) {
	long := strings.Repeat("é", 250)
	s := &fakeSearcher{hits: []models.SearchResult{
		{Rank: 1, Score: 0.91, Document: models.IssueDocument{
			Content:  "Bug: crash on launchSteps: open app",
			Metadata: models.IssueMetadata{Author: "alice", CommentCount: 2, Labels: []string{"bug", "p1"}, CreatedAt: "2024-01-01T00:00:00Z", Number: 1},
		}},
		{Rank: 2, Score: 0.5, Document: models.IssueDocument{
			Content:  long,
			Metadata: models.IssueMetadata{Author: "bob"},
		}},
	}}

	out, err := NewRetrieval(s).Invoke(context.Background(), map[string]any{"query": "crash"})
	require.NoError(t, err)

	assert.Equal(t, "crash", s.gotQuery)
	assert.Equal(t, RetrievalK, s.gotK)
	assert.Contains(t, out, "--- Result 1 (score 0.910) ---")
	assert.Contains(t, out, "author=alice comments=2 labels=[bug, p1] created_at=2024-01-01T00:00:00Z number=1")
	assert.Contains(t, out, "Content: "+strings.Repeat("é", SnippetRunes)+"...")
	assert.NotContains(t, out, strings.Repeat("é", SnippetRunes+1))
}

func TestRetrieval_NoHits(t *testing.T) {
	out, err := NewRetrieval(&fakeSearcher{}).Invoke(context.Background(), map[string]any{"query": "nothing"})
	require.NoError(t, err)
	assert.Equal(t, "No matching issues found.", out)
}

func TestRetrieval_BadArgs(t *testing.T) {
	r := NewRetrieval(&fakeSearcher{})
	_, err := r.Invoke(context.Background(), map[string]any{})
	assert.ErrorContains(t, err, "missing query parameter")
	_, err = r.Invoke(context.Background(), map[string]any{"query": 3})
	assert.ErrorContains(t, err, "must be a string")
}

func TestNote_Invoke(t *testing.T) {
	store := notes.NewMemoryStore()
	n := NewNote(store)

	def := n.Definition()
	assert.Equal(t, "note_tool", def.Name)
	assert.Equal(t, "Saves a note to a local file", def.Description)

	out, err := n.Invoke(context.Background(), map[string]any{"note": "alice owns the launch crash"})
	require.NoError(t, err)
	assert.Equal(t, "Note saved (#1).", out)

	saved, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "alice owns the launch crash", saved[0].Text)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab...", Truncate("abc", 2))
}
