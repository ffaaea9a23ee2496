package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/retry"
)

const embeddingResponse = `{
  "object": "list",
  "data": [{"object": "embedding", "index": 0, "embedding": [0.25, -0.5, 1]}],
  "model": "text-embedding-3-small",
  "usage": {"prompt_tokens": 3, "total_tokens": 3}
}`

func TestOpenAIEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "crash on launch", body["input"])
		assert.Equal(t, "text-embedding-3-small", body["model"])
		assert.EqualValues(t, 3, body["dimensions"])

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, embeddingResponse)
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(OpenAIOptions{APIKey: "sk-test", BaseURL: srv.URL, Dimensions: 3})
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "crash on launch")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5, 1}, vec)
}

func TestOpenAIEmbedder_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error": {"message": "slow down", "type": "rate_limit"}}`)
			return
		}
		fmt.Fprint(w, embeddingResponse)
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(OpenAIOptions{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
		Retry:   retry.Policy{MaxRetries: 2, BaseBackoff: time.Millisecond},
	})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIEmbedder_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "bad key", "type": "invalid_request_error"}}`)
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(OpenAIOptions{APIKey: "sk-bad", BaseURL: srv.URL, Retry: retry.Policy{MaxRetries: 3}})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "x")
	var re *apperr.RemoteError
	require.True(t, errors.As(err, &re), "got %v", err)
	assert.Equal(t, http.StatusUnauthorized, re.Status)
	assert.False(t, re.Retryable)
}

func TestNewOpenAIEmbedder_MissingKey(t *testing.T) {
	_, err := NewOpenAIEmbedder(OpenAIOptions{})
	var ce *apperr.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "OPENAI_API_KEY", ce.Key)
}
