package llm

import (
	"context"
	"strings"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/agent"
)

// Scripted is a deterministic reasoner for offline runs and tests. It
// searches the issues with the question once and answers from the
// observation.
type Scripted struct {
	// SearchTool is the tool invoked on the first step.
	SearchTool string
}

// NewScripted returns a Scripted reasoner that calls searchTool.
func NewScripted(searchTool string) *Scripted {
	return &Scripted{SearchTool: searchTool}
}

func (s *Scripted) Next(ctx context.Context, conv *agent.Conversation) (agent.Step, error) {
	if err := ctx.Err(); err != nil {
		return agent.Step{}, err
	}
	if len(conv.Scratchpad) == 0 {
		return agent.Step{Invocation: &agent.ToolInvocation{
			ID:   "call_1",
			Name: s.SearchTool,
			Args: map[string]any{"query": conv.Question},
		}}, nil
	}

	obs := conv.Scratchpad[0]
	if obs.IsError {
		return agent.Step{Answer: "I could not search the issues: " + strings.TrimPrefix(obs.Observation, "error: ")}, nil
	}
	return agent.Step{Answer: "Here is what the indexed issues say about \"" + conv.Question + "\":\n\n" + obs.Observation}, nil
}
