package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/app"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/models"
)

const (
	updatePrompt   = "Do you want to update the issues? (y/N): "
	questionPrompt = "Ask a question about github issues (q to quit): "
	quitCommand    = "q"
	smokeK         = 3
)

func newChatCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive session (default)",
		Long: `Offer to re-index the configured repository, run a smoke search, then
answer questions until "q" or end of input.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, c)
		},
	}
}

// runChat drives the interactive session. Failures of a single operation are
// printed and the session continues.
func runChat(cmd *cobra.Command, c *app.Container) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	p := NewPrompter(cmd.InOrStdin(), out)

	printStatus(ctx, out, c)

	answer, ok := p.Ask(updatePrompt)
	if !ok {
		return nil
	}
	if IsYes(answer) {
		if err := ingest(ctx, out, c, c.Config.GitHubOwner, c.Config.GitHubRepo); err != nil {
			_, _ = fmt.Fprintf(out, "Error: %v\n", err)
		}
	}

	if q := c.Config.SmokeQuery; q != "" {
		if err := search(ctx, out, c, q, smokeK); err != nil {
			_, _ = fmt.Fprintf(out, "Error: %v\n", err)
		}
	}

	var history []models.Exchange
	for {
		line, ok := p.Ask(questionPrompt)
		if !ok {
			return nil
		}
		question := strings.TrimSpace(line)
		if question == quitCommand {
			return nil
		}
		if question == "" {
			continue
		}

		ans, err := c.Chat.Ask(ctx, question, history)
		if err != nil {
			_, _ = fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		_, _ = fmt.Fprintln(out, ans.Text)
		history = append(history, models.Exchange{Question: question, Answer: ans.Text})
	}
}

func printStatus(ctx context.Context, out io.Writer, c *app.Container) {
	n, err := c.Search.Count(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(out, "Connected to %s vector store, but counting documents failed: %v\n", c.Config.VectorStore, err)
		return
	}
	_, _ = fmt.Fprintf(out, "Connected successfully! %s collection %q holds %d issues.\n",
		c.Config.VectorStore, c.Config.Collection, n)
}
