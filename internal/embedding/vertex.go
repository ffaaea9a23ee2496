package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/retry"
)

// VertexOptions configures the Vertex AI embedder.
type VertexOptions struct {
	ProjectID       string
	Location        string
	Model           string // defaults to text-embedding-005
	CredentialsFile string
	Timeout         time.Duration
	Retry           retry.Policy
}

// VertexEmbedder uses Google's text-embedding models on Vertex AI.
type VertexEmbedder struct {
	client   *aiplatform.PredictionClient
	endpoint string
	timeout  time.Duration
	retry    retry.Policy
}

// NewVertexEmbedder creates a new embedder using the service account credentials.
func NewVertexEmbedder(ctx context.Context, opts VertexOptions) (*VertexEmbedder, error) {
	if opts.ProjectID == "" {
		return nil, &apperr.ConfigurationError{Key: "GCP_PROJECT_ID", Component: "vertex embedder"}
	}
	if opts.Location == "" {
		opts.Location = "us-central1"
	}
	if opts.Model == "" {
		opts.Model = "text-embedding-005"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	clientOpts = append(clientOpts, option.WithEndpoint(opts.Location+"-aiplatform.googleapis.com:443"))

	client, err := aiplatform.NewPredictionClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	return &VertexEmbedder{
		client:   client,
		endpoint: fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/%s", opts.ProjectID, opts.Location, opts.Model),
		timeout:  opts.Timeout,
		retry:    opts.Retry,
	}, nil
}

// Embed generates an embedding vector for the input text using
// task_type = "RETRIEVAL_QUERY" so queries and documents share a space.
func (v *VertexEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	instance, err := vertexInstance(text)
	if err != nil {
		return nil, err
	}

	req := &aiplatformpb.PredictRequest{
		Endpoint:  v.endpoint,
		Instances: []*structpb.Value{instance},
	}

	resp, err := retry.WithBackoff(ctx, v.retry, "vertex.predict", apperr.IsRetryable, func(ctx context.Context) (*aiplatformpb.PredictResponse, error) {
		ctx, cancel := context.WithTimeout(ctx, v.timeout)
		defer cancel()
		resp, err := v.client.Predict(ctx, req)
		if err != nil {
			return nil, vertexError(err)
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return decodeEmbedding(resp)
}

func vertexInstance(text string) (*structpb.Value, error) {
	instance, err := structpb.NewStruct(map[string]interface{}{
		"content":   text,
		"task_type": "RETRIEVAL_QUERY",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create instance: %w", err)
	}
	return structpb.NewStructValue(instance), nil
}

// decodeEmbedding reads predictions[0].embeddings.values.
func decodeEmbedding(resp *aiplatformpb.PredictResponse) ([]float32, error) {
	if len(resp.GetPredictions()) == 0 {
		return nil, errors.New("no predictions returned")
	}

	prediction := resp.Predictions[0].GetStructValue()
	embeddings := prediction.GetFields()["embeddings"].GetStructValue()
	values := embeddings.GetFields()["values"].GetListValue().GetValues()
	if len(values) == 0 {
		return nil, errors.New("prediction has no embedding values")
	}

	result := make([]float32, len(values))
	for i, v := range values {
		result[i] = float32(v.GetNumberValue())
	}
	return result, nil
}

// Close releases the Vertex AI client resources.
func (v *VertexEmbedder) Close() error {
	return v.client.Close()
}

// vertexError wraps a gRPC error from Vertex as a RemoteError, marking quota
// and availability failures retryable.
func vertexError(err error) error {
	re := apperr.Remote("vertex", err)
	if !re.Retryable {
		re.Retryable = isRetryableVertexError(err)
	}
	return re
}

func isRetryableVertexError(err error) bool {
	s := err.Error()
	return strings.Contains(s, "RESOURCE_EXHAUSTED") ||
		strings.Contains(s, "ResourceExhausted") ||
		strings.Contains(s, "Unavailable") ||
		strings.Contains(s, "UNAVAILABLE") ||
		strings.Contains(s, "DeadlineExceeded") ||
		strings.Contains(s, "429") ||
		strings.Contains(s, "503") ||
		strings.Contains(s, "quota exceeded")
}
