package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/app"
)

func newNotesCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "notes",
		Short: "List the notes saved by the agent",
		Long:  `Notes outlive the process only when NOTES_DB points at a SQLite file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			list, err := c.Notes.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				_, _ = fmt.Fprintln(out, "No notes saved.")
				return nil
			}
			for _, n := range list {
				_, _ = fmt.Fprintf(out, "#%d  %s  %s\n", n.ID, n.CreatedAt.Format(time.RFC3339), n.Text)
			}
			return nil
		},
	}
}
