package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/app"
)

func newAskCommand(c *app.Container) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Answer a single question",
		Example: `  issuechat ask "who reported the crash on launch?"
  issuechat ask -v "which issues mention flash messages?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ans, err := c.Chat.Ask(cmd.Context(), strings.Join(args, " "), nil)
			if verbose {
				for i, s := range ans.Steps {
					_, _ = fmt.Fprintf(out, "[step %d] %s %v\n%s\n\n", i+1, s.Invocation.Name, s.Invocation.Args, s.Observation)
				}
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, ans.Text)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print each tool call and its observation")
	return cmd
}
