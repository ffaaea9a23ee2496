// Package cli provides the command-line interface for issuechat.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/app"
)

// NewRootCommand creates the root command. Without a subcommand it starts
// the interactive chat session.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "issuechat",
		Short: "Ask questions about a repository's GitHub issues",
		Long: `issuechat indexes the issues of a GitHub repository into a vector store
and answers natural-language questions about them with a tool-calling agent.

Run without a command for the interactive session.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, c)
		},
	}

	root.AddCommand(newChatCommand(c))
	root.AddCommand(newIngestCommand(c))
	root.AddCommand(newSearchCommand(c))
	root.AddCommand(newAskCommand(c))
	root.AddCommand(newNotesCommand(c))
	return root
}
