// Package agent runs the bounded tool-calling loop that answers questions
// about the indexed GitHub issues.
//
// One question moves through Thinking → (ToolCall → Thinking)* → FinalAnswer.
// Each Thinking state is one Reasoner.Next call; the loop fails with
// apperr.LoopLimitExceeded once MaxIterations calls have been made without a
// final answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/metrics"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/models"
)

// DefaultMaxIterations bounds reasoning calls per question.
const DefaultMaxIterations = 8

// ErrEmptyQuestion is returned by Run for a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

// Answer is the result of one question.
type Answer struct {
	Text       string
	Steps      []ScratchEntry
	Iterations int
}

// Agent owns a reasoner and a fixed tool set.
type Agent struct {
	reasoner      Reasoner
	tools         map[string]Tool
	defs          []Definition
	system        string
	maxIterations int
	stepTimeout   time.Duration
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxIterations sets the iteration bound. Values below 1 are ignored.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithStepTimeout bounds every reasoner call.
func WithStepTimeout(d time.Duration) Option {
	return func(a *Agent) { a.stepTimeout = d }
}

// New creates an Agent. Tools keep the order given, which is the order they
// are presented to the reasoner.
func New(reasoner Reasoner, tools []Tool, opts ...Option) *Agent {
	a := &Agent{
		reasoner:      reasoner,
		tools:         make(map[string]Tool, len(tools)),
		maxIterations: DefaultMaxIterations,
	}
	for _, t := range tools {
		def := t.Definition()
		a.tools[def.Name] = t
		a.defs = append(a.defs, def)
	}
	a.system = SystemPrompt(a.defs)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Tools returns the definitions presented to the reasoner.
func (a *Agent) Tools() []Definition { return a.defs }

// Run answers question. Tool failures are recorded as error observations and
// never abort the loop; reasoner failures and cancellation fail the question.
func (a *Agent) Run(ctx context.Context, question string, history []models.Exchange) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuestion
	}

	log := clog.FromContext(ctx)
	conv := &Conversation{
		System:   a.system,
		Tools:    a.defs,
		History:  history,
		Question: question,
	}

	var ans Answer
	for ans.Iterations < a.maxIterations {
		if err := ctx.Err(); err != nil {
			ans.Steps = conv.Scratchpad
			return ans, err
		}

		ans.Iterations++
		step, err := a.next(ctx, conv)
		if err != nil {
			ans.Steps = conv.Scratchpad
			return ans, fmt.Errorf("reasoning step %d: %w", ans.Iterations, err)
		}

		if step.Final() {
			ans.Text = step.Answer
			ans.Steps = conv.Scratchpad
			metrics.AgentIterations.Observe(float64(ans.Iterations))
			log.With("iterations", ans.Iterations).With("tool_calls", len(conv.Scratchpad)).Info("[Agent] Final answer")
			return ans, nil
		}

		conv.Scratchpad = append(conv.Scratchpad, a.invoke(ctx, *step.Invocation))
	}

	metrics.LoopLimitHits.Inc()
	log.With("limit", a.maxIterations).Warn("[Agent] Iteration limit reached")
	ans.Steps = conv.Scratchpad
	return ans, &apperr.LoopLimitExceeded{Limit: a.maxIterations}
}

func (a *Agent) next(ctx context.Context, conv *Conversation) (Step, error) {
	if a.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.stepTimeout)
		defer cancel()
	}
	return a.reasoner.Next(ctx, conv)
}

// invoke runs one tool call and converts any failure into an observation.
func (a *Agent) invoke(ctx context.Context, inv ToolInvocation) ScratchEntry {
	log := clog.FromContext(ctx).With("tool", inv.Name).With("id", inv.ID)
	entry := ScratchEntry{Invocation: inv}

	tool, ok := a.tools[inv.Name]
	if !ok {
		log.Error("[Agent] Unknown tool requested")
		metrics.ToolInvocations.WithLabelValues("unknown", "error").Inc()
		entry.Observation = fmt.Sprintf("error: unknown tool %q", inv.Name)
		entry.IsError = true
		return entry
	}

	log.Info("[Agent] Executing tool call")
	out, err := tool.Invoke(ctx, inv.Args)
	if err != nil {
		log.With("error", err).Warn("[Agent] Tool call failed")
		metrics.ToolInvocations.WithLabelValues(inv.Name, "error").Inc()
		entry.Observation = "error: " + err.Error()
		entry.IsError = true
		return entry
	}

	metrics.ToolInvocations.WithLabelValues(inv.Name, "ok").Inc()
	entry.Observation = out
	return entry
}
