package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/app"
)

func newIngestCommand(c *app.Container) *cobra.Command {
	var owner, repo string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Re-index the issues of a repository",
		Long: `Fetch every issue of the repository, replace the collection's contents
and report what was indexed. The collection is left untouched when nothing
could be fetched.`,
		Example: `  issuechat ingest
  issuechat ingest --owner octo --repo hello`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ingest(cmd.Context(), cmd.OutOrStdout(), c, owner, repo)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", c.Config.GitHubOwner, "Repository owner")
	cmd.Flags().StringVar(&repo, "repo", c.Config.GitHubRepo, "Repository name")
	return cmd
}

func ingest(ctx context.Context, out io.Writer, c *app.Container, owner, repo string) error {
	_, _ = fmt.Fprintf(out, "Fetching issues from %s/%s...\n", owner, repo)

	report, err := c.Ingest.Ingest(ctx, owner, repo)
	if err != nil {
		return fmt.Errorf("ingest %s/%s: %w", owner, repo, err)
	}

	if report.Fetched == 0 {
		_, _ = fmt.Fprintln(out, "No issues found. This could be because:")
		_, _ = fmt.Fprintln(out, "- The repository has no issues")
		_, _ = fmt.Fprintln(out, "- Your GitHub token doesn't have permission to read issues")
		_, _ = fmt.Fprintln(out, "- The repository is private and your token lacks access")
		return nil
	}

	_, _ = fmt.Fprintf(out, "Found %d issues in %d pages.\n", report.Fetched, report.Pages)
	if len(report.Skipped) > 0 {
		_, _ = fmt.Fprintf(out, "Skipped %d malformed issues:\n", len(report.Skipped))
		for _, s := range report.Skipped {
			_, _ = fmt.Fprintf(out, "- %s\n", s)
		}
	}
	if report.FetchErr != nil {
		_, _ = fmt.Fprintf(out, "Warning: fetching stopped early: %v\n", report.FetchErr)
	}
	if report.Reset {
		_, _ = fmt.Fprintf(out, "Issues added successfully! %d indexed.\n", report.Indexed)
	} else {
		_, _ = fmt.Fprintln(out, "No valid issues to index; the collection was left unchanged.")
	}
	return nil
}
