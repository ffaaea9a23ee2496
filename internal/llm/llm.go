// Package llm adapts language-model providers to agent.Reasoner.
//
// Every provider rebuilds its native message list from the Conversation on
// each call: system prompt, prior exchanges, the question, then one
// assistant tool call plus one tool result per scratchpad entry.
package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/agent"
)

// callID returns the invocation id, synthesising one for providers that do
// not assign ids to function calls.
func callID(i int, inv agent.ToolInvocation) string {
	if inv.ID != "" {
		return inv.ID
	}
	return fmt.Sprintf("call_%d", i+1)
}

// argsJSON encodes tool arguments for providers that carry them as a string.
func argsJSON(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// parseArgs decodes a JSON argument payload; malformed payloads yield an
// empty map so the tool reports the missing parameter.
func parseArgs(raw string) map[string]any {
	args := map[string]any{}
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}
	}
	return args
}

// jsonSchema renders tool parameters as a JSON-schema object.
func jsonSchema(def agent.Definition) (map[string]any, []string) {
	props := make(map[string]any, len(def.Parameters))
	required := []string{}
	for _, p := range def.Parameters {
		props[p.Name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return props, required
}

// firstCall keeps only the first of several tool calls returned in one turn.
func firstCall(ctx context.Context, provider string, calls []agent.ToolInvocation) agent.Step {
	if len(calls) > 1 {
		dropped := make([]string, 0, len(calls)-1)
		for _, c := range calls[1:] {
			dropped = append(dropped, c.Name)
		}
		clog.FromContext(ctx).With("provider", provider).With("dropped", dropped).
			Warn("[LLM] Multiple tool calls returned, keeping the first")
	}
	inv := calls[0]
	return agent.Step{Invocation: &inv}
}

var (
	_ agent.Reasoner = (*OpenAI)(nil)
	_ agent.Reasoner = (*Anthropic)(nil)
	_ agent.Reasoner = (*Vertex)(nil)
	_ agent.Reasoner = (*Scripted)(nil)
)
