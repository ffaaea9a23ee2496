package embedding

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
)

func TestVertexInstance(t *testing.T) {
	v, err := vertexInstance("crash on launch")
	require.NoError(t, err)

	fields := v.GetStructValue().GetFields()
	require.Len(t, fields, 2)
	assert.Equal(t, "crash on launch", fields["content"].GetStringValue())
	assert.Equal(t, "RETRIEVAL_QUERY", fields["task_type"].GetStringValue())
}

func prediction(t *testing.T, body map[string]any) *aiplatformpb.PredictResponse {
	t.Helper()
	v, err := structpb.NewValue(body)
	require.NoError(t, err)
	return &aiplatformpb.PredictResponse{Predictions: []*structpb.Value{v}}
}

func TestDecodeEmbedding(t *testing.T) {
	resp := prediction(t, map[string]any{
		"embeddings": map[string]any{
			"values":     []any{0.25, -0.5, 1.0},
			"statistics": map[string]any{"token_count": 3.0, "truncated": false},
		},
	})

	got, err := decodeEmbedding(resp)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5, 1}, got)
}

func TestDecodeEmbedding_Malformed(t *testing.T) {
	tests := []struct {
		name string
		resp *aiplatformpb.PredictResponse
		want string
	}{
		{name: "no predictions", resp: &aiplatformpb.PredictResponse{}, want: "no predictions"},
		{name: "missing embeddings", resp: prediction(t, map[string]any{"other": "x"}), want: "no embedding values"},
		{name: "empty values", resp: prediction(t, map[string]any{"embeddings": map[string]any{"values": []any{}}}), want: "no embedding values"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeEmbedding(tt.resp)
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestVertexEmbedderError(t *testing.T) {
	tests := []struct {
		msg       string
		retryable bool
	}{
		{"rpc error: code = ResourceExhausted desc = Quota exceeded", true},
		{"rpc error: code = Unavailable desc = connection reset", true},
		{"rpc error: code = PermissionDenied desc = caller lacks permission", false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			var re *apperr.RemoteError
			require.True(t, errors.As(vertexError(errors.New(tt.msg)), &re))
			assert.Equal(t, "vertex", re.Service)
			assert.Equal(t, tt.retryable, re.Retryable)
		})
	}
}

func TestNewVertexEmbedder_MissingProject(t *testing.T) {
	_, err := NewVertexEmbedder(context.Background(), VertexOptions{})
	var ce *apperr.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "GCP_PROJECT_ID", ce.Key)
}
