// Package tools holds the tools the agent can call: issue retrieval from the
// vector store and note taking.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/agent"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/models"
)

const (
	RetrievalName        = "github_search"
	RetrievalDescription = "Search for information about github issues. For any questions about github issues, you must use this tool!"

	// RetrievalK is the number of issues returned per search.
	RetrievalK = 3
	// SnippetRunes caps the issue content shown per hit.
	SnippetRunes = 200
)

// Searcher is the part of the vector store the retrieval tool needs.
type Searcher interface {
	Query(ctx context.Context, text string, k int) ([]models.SearchResult, error)
}

type retrieval struct {
	store Searcher
}

// NewRetrieval returns the github_search tool backed by store.
func NewRetrieval(store Searcher) agent.Tool {
	return retrieval{store: store}
}

func (retrieval) Definition() agent.Definition {
	return agent.Definition{
		Name:        RetrievalName,
		Description: RetrievalDescription,
		Parameters: []agent.Parameter{{
			Name:        "query",
			Type:        "string",
			Description: "query to look up in the indexed GitHub issues",
			Required:    true,
		}},
	}
}

func (r retrieval) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query, err := agent.StringArg(args, "query")
	if err != nil {
		return "", err
	}
	hits, err := r.store.Query(ctx, query, RetrievalK)
	if err != nil {
		return "", fmt.Errorf("search issues: %w", err)
	}
	if len(hits) == 0 {
		return "No matching issues found.", nil
	}

	snippets := make([]string, len(hits))
	for i, h := range hits {
		snippets[i] = Snippet(h)
	}
	return strings.Join(snippets, "\n\n"), nil
}

// Snippet renders one hit as truncated content followed by its metadata.
func Snippet(h models.SearchResult) string {
	md := h.Document.Metadata
	var b strings.Builder
	fmt.Fprintf(&b, "--- Result %d (score %.3f) ---\n", h.Rank, h.Score)
	fmt.Fprintf(&b, "Content: %s\n", Truncate(h.Document.Content, SnippetRunes))
	fmt.Fprintf(&b, "Metadata: author=%s comments=%d labels=[%s] created_at=%s",
		md.Author, md.CommentCount, strings.Join(md.Labels, ", "), md.CreatedAt)
	if md.Number > 0 {
		fmt.Fprintf(&b, " number=%d", md.Number)
	}
	if md.URL != "" {
		fmt.Fprintf(&b, " url=%s", md.URL)
	}
	return b.String()
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
