package service

import (
	"context"

	"github.com/chainguard-dev/clog"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/agent"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/models"
)

// ChatService answers natural-language questions about the indexed issues
// using the tool-calling agent.
type ChatService interface {
	// Ask resolves one question end to end. History is optional.
	Ask(ctx context.Context, question string, history []models.Exchange) (agent.Answer, error)
}

// Runner is the part of agent.Agent the chat service needs.
type Runner interface {
	Run(ctx context.Context, question string, history []models.Exchange) (agent.Answer, error)
}

type chatService struct {
	agent Runner
}

// NewChatService wires the agent and returns ChatService.
func NewChatService(a Runner) ChatService {
	return &chatService{agent: a}
}

func (s *chatService) Ask(ctx context.Context, question string, history []models.Exchange) (agent.Answer, error) {
	log := clog.FromContext(ctx).With("question", question)
	log.Info("[Chat] Question received")

	ans, err := s.agent.Run(ctx, question, history)
	if err != nil {
		log.With("error", err).With("iterations", ans.Iterations).Warn("[Chat] Question failed")
		return ans, err
	}
	log.With("iterations", ans.Iterations).Info("[Chat] Answer produced")
	return ans, nil
}

var _ Runner = (*agent.Agent)(nil)
