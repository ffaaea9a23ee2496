package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/agent/tools"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/app"
)

func newSearchCommand(c *app.Container) *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:     "search QUERY",
		Short:   "Similarity search over the indexed issues",
		Example: `  issuechat search "flash messages" -k 5`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return search(cmd.Context(), cmd.OutOrStdout(), c, strings.Join(args, " "), k)
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", smokeK, "Number of results")
	return cmd
}

func search(ctx context.Context, out io.Writer, c *app.Container, query string, k int) error {
	_, _ = fmt.Fprintf(out, "\nSearching for '%s'...\n", query)

	results, err := c.Search.Search(ctx, query, k)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if len(results) == 0 {
		_, _ = fmt.Fprintf(out, "No results found for '%s'\n", query)
		_, _ = fmt.Fprintln(out, "This is normal if:")
		_, _ = fmt.Fprintln(out, "- No issues were added to the vector store")
		_, _ = fmt.Fprintf(out, "- None of the issues contain content related to '%s'\n", query)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Found %d results:\n", len(results))
	for _, r := range results {
		_, _ = fmt.Fprintf(out, "\n%s\n", tools.Snippet(r))
	}
	return nil
}
