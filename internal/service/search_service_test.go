package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/agent"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/models"
)

func TestSearch(t *testing.T) {
	store := newStore(t)
	_, err := store.Upsert(context.Background(), []models.IssueDocument{
		{Content: "Flash messages vanish", Metadata: models.IssueMetadata{Author: "carol"}},
		{Content: "Crash on launch", Metadata: models.IssueMetadata{Author: "alice"}},
	})
	require.NoError(t, err)

	svc := NewSearchService(store)
	results, err := svc.Search(context.Background(), "flash messages", 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "carol", results[0].Document.Metadata.Author)

	n, err := svc.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSearch_EmptyStoreAndQuery(t *testing.T) {
	svc := NewSearchService(newStore(t))

	results, err := svc.Search(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	_, err = svc.Search(context.Background(), "  ", 3)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

type runnerFunc func(ctx context.Context, q string, h []models.Exchange) (agent.Answer, error)

func (f runnerFunc) Run(ctx context.Context, q string, h []models.Exchange) (agent.Answer, error) {
	return f(ctx, q, h)
}

func TestChatService_Ask(t *testing.T) {
	svc := NewChatService(runnerFunc(func(_ context.Context, q string, h []models.Exchange) (agent.Answer, error) {
		return agent.Answer{Text: "answer to " + q, Iterations: 2}, nil
	}))
	ans, err := svc.Ask(context.Background(), "why?", nil)
	require.NoError(t, err)
	assert.Equal(t, "answer to why?", ans.Text)
}

func TestChatService_PropagatesLoopLimit(t *testing.T) {
	svc := NewChatService(runnerFunc(func(context.Context, string, []models.Exchange) (agent.Answer, error) {
		return agent.Answer{Iterations: 8}, &apperr.LoopLimitExceeded{Limit: 8}
	}))
	ans, err := svc.Ask(context.Background(), "spin", nil)
	var lle *apperr.LoopLimitExceeded
	require.True(t, errors.As(err, &lle))
	assert.Equal(t, 8, ans.Iterations)
}
