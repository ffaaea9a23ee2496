package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/models"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/vectorstore"
)

// ErrEmptyQuery is returned for a blank search query.
var ErrEmptyQuery = errors.New("query is empty")

// SearchService runs similarity searches over the indexed issues.
type SearchService interface {
	Search(ctx context.Context, query string, k int) ([]models.SearchResult, error)
	// Count reports how many issues are indexed.
	Count(ctx context.Context) (int, error)
}

type searchService struct {
	store vectorstore.Store
}

// NewSearchService wires the vector store.
func NewSearchService(store vectorstore.Store) SearchService {
	return &searchService{store: store}
}

// Search embeds the query and returns the k closest issues. k is clamped to
// [1, vectorstore.MaxK].
func (s *searchService) Search(ctx context.Context, query string, k int) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	log := clog.FromContext(ctx).With("query", query).With("k", k)

	results, err := s.store.Query(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	log.With("results", len(results)).Info("[Search] Vector search completed")

	if results == nil {
		results = []models.SearchResult{}
	}
	return results, nil
}

func (s *searchService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}
