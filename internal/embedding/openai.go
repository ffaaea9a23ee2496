package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	oaioption "github.com/openai/openai-go/option"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/retry"
)

// OpenAIOptions configures the OpenAI embedder.
type OpenAIOptions struct {
	APIKey     string
	BaseURL    string // optional; tests point it at httptest
	Model      string // defaults to text-embedding-3-small
	Dimensions int    // 0 keeps the model's native size
	Timeout    time.Duration
	Retry      retry.Policy
}

type openAIEmbedder struct {
	client  openai.Client
	model   openai.EmbeddingModel
	dims    int
	timeout time.Duration
	retry   retry.Policy
}

// NewOpenAIEmbedder returns an Embedder backed by the OpenAI embeddings API.
func NewOpenAIEmbedder(opts OpenAIOptions) (Embedder, error) {
	if opts.APIKey == "" {
		return nil, &apperr.ConfigurationError{Key: "OPENAI_API_KEY", Component: "openai embedder"}
	}
	if opts.Model == "" {
		opts.Model = string(openai.EmbeddingModelTextEmbedding3Small)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	clientOpts := []oaioption.RequestOption{
		oaioption.WithAPIKey(opts.APIKey),
		oaioption.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, oaioption.WithBaseURL(opts.BaseURL))
	}

	return &openAIEmbedder{
		client:  openai.NewClient(clientOpts...),
		model:   openai.EmbeddingModel(opts.Model),
		dims:    opts.Dimensions,
		timeout: opts.Timeout,
		retry:   opts.Retry,
	}, nil
}

func (o *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: o.model,
	}
	if o.dims > 0 {
		params.Dimensions = openai.Int(int64(o.dims))
	}

	resp, err := retry.WithBackoff(ctx, o.retry, "openai.embeddings", apperr.IsRetryable, func(ctx context.Context) (*openai.CreateEmbeddingResponse, error) {
		ctx, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()
		resp, err := o.client.Embeddings.New(ctx, params)
		if err != nil {
			return nil, OpenAIError(err)
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding returned")
	}

	values := resp.Data[0].Embedding
	result := make([]float32, len(values))
	for i, v := range values {
		result[i] = float32(v)
	}
	return result, nil
}

// OpenAIError converts an openai-go error into a RemoteError. 429 and 5xx
// are retryable, as are transport timeouts.
func OpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		re := apperr.RemoteStatus("openai", apiErr.StatusCode, apiErr.Message)
		re.Err = err
		return re
	}
	return apperr.Remote("openai", err)
}
