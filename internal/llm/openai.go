package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	oaioption "github.com/openai/openai-go/option"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/agent"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/embedding"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/retry"
)

// OpenAIOptions configures the OpenAI chat reasoner.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string // defaults to gpt-4o-mini
	Timeout time.Duration
	Retry   retry.Policy
}

// OpenAI drives the agent with chat completions and function tools.
type OpenAI struct {
	client  openai.Client
	model   string
	timeout time.Duration
	retry   retry.Policy
}

// NewOpenAI returns an OpenAI reasoner.
func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if opts.APIKey == "" {
		return nil, &apperr.ConfigurationError{Key: "OPENAI_API_KEY", Component: "openai reasoner"}
	}
	if opts.Model == "" {
		opts.Model = string(openai.ChatModelGPT4oMini)
	}

	clientOpts := []oaioption.RequestOption{
		oaioption.WithAPIKey(opts.APIKey),
		oaioption.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, oaioption.WithBaseURL(opts.BaseURL))
	}

	return &OpenAI{
		client:  openai.NewClient(clientOpts...),
		model:   opts.Model,
		timeout: opts.Timeout,
		retry:   opts.Retry,
	}, nil
}

func (o *OpenAI) Next(ctx context.Context, conv *agent.Conversation) (agent.Step, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    openAIMessages(conv),
		Temperature: openai.Float(0),
	}
	if len(conv.Tools) > 0 {
		params.Tools = openAITools(conv.Tools)
	}

	resp, err := retry.WithBackoff(ctx, o.retry, "openai.chat", apperr.IsRetryable, func(ctx context.Context) (*openai.ChatCompletion, error) {
		if o.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, o.timeout)
			defer cancel()
		}
		resp, err := o.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, embedding.OpenAIError(err)
		}
		return resp, nil
	})
	if err != nil {
		return agent.Step{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return agent.Step{}, errors.New("openai returned no choices")
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		if strings.TrimSpace(msg.Content) == "" {
			return agent.Step{}, errors.New("openai returned an empty message")
		}
		return agent.Step{Answer: msg.Content}, nil
	}
	calls := make([]agent.ToolInvocation, len(msg.ToolCalls))
	for i, tc := range msg.ToolCalls {
		calls[i] = agent.ToolInvocation{ID: tc.ID, Name: tc.Function.Name, Args: parseArgs(tc.Function.Arguments)}
	}
	return firstCall(ctx, "openai", calls), nil
}

func openAIMessages(conv *agent.Conversation) []openai.ChatCompletionMessageParamUnion {
	msgs := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(conv.System)}
	for _, ex := range conv.History {
		msgs = append(msgs, openai.UserMessage(ex.Question), openai.AssistantMessage(ex.Answer))
	}
	msgs = append(msgs, openai.UserMessage(conv.Question))

	for i, entry := range conv.Scratchpad {
		id := callID(i, entry.Invocation)
		msgs = append(msgs,
			openai.ChatCompletionMessageParamUnion{OfAssistant: &openai.ChatCompletionAssistantMessageParam{
				ToolCalls: []openai.ChatCompletionMessageToolCallParam{{
					ID: id,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      entry.Invocation.Name,
						Arguments: argsJSON(entry.Invocation.Args),
					},
				}},
			}},
			openai.ChatCompletionMessageParamUnion{OfTool: &openai.ChatCompletionToolMessageParam{
				ToolCallID: id,
				Content:    openai.ChatCompletionToolMessageParamContentUnion{OfString: openai.String(entry.Observation)},
			}},
		)
	}
	return msgs
}

func openAITools(defs []agent.Definition) []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, len(defs))
	for i, d := range defs {
		props, required := jsonSchema(d)
		tools[i] = openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters: openai.FunctionParameters{
					"type":       "object",
					"properties": props,
					"required":   required,
				},
			},
		}
	}
	return tools
}
