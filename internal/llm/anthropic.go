package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/agent"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/retry"
)

// AnthropicOptions configures the Claude reasoner.
type AnthropicOptions struct {
	APIKey    string
	BaseURL   string
	Model     string // defaults to claude-sonnet-4-0
	MaxTokens int64
	Timeout   time.Duration
	Retry     retry.Policy
}

// Anthropic drives the agent with the Claude Messages API.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	retry     retry.Policy
}

// NewAnthropic returns a Claude reasoner.
func NewAnthropic(opts AnthropicOptions) (*Anthropic, error) {
	if opts.APIKey == "" {
		return nil, &apperr.ConfigurationError{Key: "ANTHROPIC_API_KEY", Component: "anthropic reasoner"}
	}
	if opts.Model == "" {
		opts.Model = "claude-sonnet-4-0"
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}

	clientOpts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(opts.APIKey),
		anthropicoption.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, anthropicoption.WithBaseURL(opts.BaseURL))
	}

	return &Anthropic{
		client:    anthropic.NewClient(clientOpts...),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		timeout:   opts.Timeout,
		retry:     opts.Retry,
	}, nil
}

func (a *Anthropic) Next(ctx context.Context, conv *agent.Conversation) (agent.Step, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   a.maxTokens,
		Messages:    anthropicMessages(conv),
		Temperature: anthropic.Float(0),
	}
	if len(conv.Tools) > 0 {
		params.Tools = anthropicTools(conv.Tools)
	}
	if conv.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: conv.System}}
	}

	message, err := retry.WithBackoff(ctx, a.retry, "anthropic.messages", apperr.IsRetryable, func(ctx context.Context) (*anthropic.Message, error) {
		if a.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.timeout)
			defer cancel()
		}
		msg, err := a.client.Messages.New(ctx, params)
		if err != nil {
			return nil, anthropicError(err)
		}
		return msg, nil
	})
	if err != nil {
		return agent.Step{}, fmt.Errorf("claude message: %w", err)
	}

	var (
		calls []agent.ToolInvocation
		text  string
	)
	for _, content := range message.Content {
		switch content.Type {
		case "text":
			text += content.Text
		case "tool_use":
			args := map[string]any{}
			if len(content.Input) > 0 {
				if err := json.Unmarshal(content.Input, &args); err != nil {
					args = map[string]any{}
				}
			}
			calls = append(calls, agent.ToolInvocation{ID: content.ID, Name: content.Name, Args: args})
		}
	}
	if len(calls) > 0 {
		return firstCall(ctx, "anthropic", calls), nil
	}
	if text == "" {
		return agent.Step{}, errors.New("no content in Claude's response")
	}
	return agent.Step{Answer: text}, nil
}

func anthropicMessages(conv *agent.Conversation) []anthropic.MessageParam {
	var msgs []anthropic.MessageParam
	for _, ex := range conv.History {
		msgs = append(msgs,
			anthropic.NewUserMessage(anthropic.NewTextBlock(ex.Question)),
			anthropic.NewAssistantMessage(anthropic.NewTextBlock(ex.Answer)),
		)
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(conv.Question)))

	for i, entry := range conv.Scratchpad {
		id := callID(i, entry.Invocation)
		args := entry.Invocation.Args
		if args == nil {
			args = map[string]any{}
		}
		msgs = append(msgs,
			anthropic.NewAssistantMessage(anthropic.NewToolUseBlock(id, args, entry.Invocation.Name)),
			anthropic.NewUserMessage(anthropic.NewToolResultBlock(id, entry.Observation, entry.IsError)),
		)
	}
	return msgs
}

func anthropicTools(defs []agent.Definition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(defs))
	for i, d := range defs {
		props, required := jsonSchema(d)
		tools[i] = anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        d.Name,
			Description: anthropic.String(d.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: props,
				Required:   required,
			},
		}}
	}
	return tools
}

// anthropicError marks rate limit, overloaded and transient server errors
// retryable.
func anthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		re := &apperr.RemoteError{Service: "anthropic", Status: apiErr.StatusCode, Err: err}
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504, 529:
			re.Retryable = true
		}
		return re
	}
	return apperr.Remote("anthropic", err)
}
