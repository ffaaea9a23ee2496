package agent

import (
	"context"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/models"
)

// ToolInvocation is a provider-independent representation of a tool call.
type ToolInvocation struct {
	ID   string
	Name string
	Args map[string]any
}

// ScratchEntry is one tool invocation and what came back from it.
type ScratchEntry struct {
	Invocation  ToolInvocation
	Observation string
	IsError     bool
}

// Conversation is the reasoning state for a single question. It is created
// by Run and discarded once the question is answered.
type Conversation struct {
	System     string
	Tools      []Definition
	History    []models.Exchange
	Question   string
	Scratchpad []ScratchEntry
}

// Step is the outcome of one reasoning call: either a final answer or exactly
// one tool invocation.
type Step struct {
	Answer     string
	Invocation *ToolInvocation
}

// Final reports whether the step ends the loop.
func (s Step) Final() bool { return s.Invocation == nil }

// Reasoner decides the next step given the conversation so far. Providers
// translate the conversation into their own message format on every call.
type Reasoner interface {
	Next(ctx context.Context, conv *Conversation) (Step, error)
}
