package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/agent"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/retry"
)

// VertexOptions configures the Gemini reasoner.
type VertexOptions struct {
	ProjectID       string
	Location        string
	Model           string // defaults to gemini-2.0-flash-lite-001
	CredentialsFile string
	Timeout         time.Duration
	Retry           retry.Policy
}

// Vertex implements the reasoner using Gemini on Google's Vertex AI.
type Vertex struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	retry   retry.Policy
}

// NewVertex creates a new Vertex AI Gemini client.
func NewVertex(ctx context.Context, opts VertexOptions) (*Vertex, error) {
	if opts.ProjectID == "" {
		return nil, &apperr.ConfigurationError{Key: "GCP_PROJECT_ID", Component: "vertex reasoner"}
	}
	if opts.Location == "" {
		opts.Location = "us-central1"
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash-lite-001"
	}

	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, opts.ProjectID, opts.Location, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	return &Vertex{
		client:  client,
		model:   opts.Model,
		timeout: opts.Timeout,
		retry:   opts.Retry,
	}, nil
}

func (v *Vertex) Next(ctx context.Context, conv *agent.Conversation) (agent.Step, error) {
	model := v.client.GenerativeModel(v.model)
	model.SetTemperature(0)
	if conv.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(conv.System)}}
	}
	if len(conv.Tools) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: vertexDeclarations(conv.Tools)}}
	}

	contents := vertexContents(conv)
	last := contents[len(contents)-1]

	resp, err := retry.WithBackoff(ctx, v.retry, "vertex.generate", apperr.IsRetryable, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		if v.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, v.timeout)
			defer cancel()
		}
		cs := model.StartChat()
		cs.History = contents[:len(contents)-1]
		resp, err := cs.SendMessage(ctx, last.Parts...)
		if err != nil {
			return nil, vertexError(err)
		}
		return resp, nil
	})
	if err != nil {
		return agent.Step{}, fmt.Errorf("failed to generate response: %w", err)
	}
	return vertexStep(ctx, resp)
}

// vertexStep turns the first candidate into a tool call or a final answer.
// A candidate with neither is an error rather than an empty answer.
func vertexStep(ctx context.Context, resp *genai.GenerateContentResponse) (agent.Step, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return agent.Step{}, errors.New("no response generated")
	}

	var (
		calls []agent.ToolInvocation
		text  strings.Builder
	)
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			args := p.Args
			if args == nil {
				args = map[string]any{}
			}
			calls = append(calls, agent.ToolInvocation{Name: p.Name, Args: args})
		}
	}
	if len(calls) > 0 {
		return firstCall(ctx, "vertex", calls), nil
	}
	if strings.TrimSpace(text.String()) == "" {
		return agent.Step{}, errors.New("no content in Gemini's response")
	}
	return agent.Step{Answer: text.String()}, nil
}

// Close closes the Vertex AI client.
func (v *Vertex) Close() error {
	return v.client.Close()
}

func vertexContents(conv *agent.Conversation) []*genai.Content {
	var contents []*genai.Content
	for _, ex := range conv.History {
		contents = append(contents,
			&genai.Content{Role: "user", Parts: []genai.Part{genai.Text(ex.Question)}},
			&genai.Content{Role: "model", Parts: []genai.Part{genai.Text(ex.Answer)}},
		)
	}
	contents = append(contents, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(conv.Question)}})

	for _, entry := range conv.Scratchpad {
		response := map[string]any{"result": entry.Observation}
		if entry.IsError {
			response = map[string]any{"error": entry.Observation}
		}
		contents = append(contents,
			&genai.Content{Role: "model", Parts: []genai.Part{genai.FunctionCall{Name: entry.Invocation.Name, Args: entry.Invocation.Args}}},
			&genai.Content{Role: "user", Parts: []genai.Part{genai.FunctionResponse{Name: entry.Invocation.Name, Response: response}}},
		)
	}
	return contents
}

func vertexDeclarations(defs []agent.Definition) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, len(defs))
	for i, d := range defs {
		schema := &genai.Schema{Type: genai.TypeObject, Properties: map[string]*genai.Schema{}}
		for _, p := range d.Parameters {
			schema.Properties[p.Name] = &genai.Schema{Type: vertexType(p.Type), Description: p.Description}
			if p.Required {
				schema.Required = append(schema.Required, p.Name)
			}
		}
		decls[i] = &genai.FunctionDeclaration{Name: d.Name, Description: d.Description, Parameters: schema}
	}
	return decls
}

func vertexType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

// vertexError wraps a Vertex AI error, treating quota exhaustion and
// transient server errors as retryable.
func vertexError(err error) error {
	re := apperr.Remote("vertex", err)
	if re.Retryable {
		return re
	}
	s := err.Error()
	re.Retryable = strings.Contains(s, "Resource exhausted") ||
		strings.Contains(s, "RESOURCE_EXHAUSTED") ||
		strings.Contains(s, "429") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "Overloaded") ||
		strings.Contains(s, "503") ||
		strings.Contains(s, "quota exceeded") ||
		strings.Contains(s, "Internal error") ||
		strings.Contains(s, "server error")
	return re
}
