package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nothatDinger/qwen-code-trace/internal/logstore"
)

func newSessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List sessions with stored trace data",
		RunE: func(cmd *cobra.Command, args []string) error {
			co, _, err := openTrace(cmd)
			if err != nil {
				return err
			}
			defer co.Close() //nolint:errcheck

			ids, err := co.SessionIDs()
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}

			fmt.Fprintf(out, "%-40s %s\n", "Session", "Records")
			for _, id := range ids {
				records, err := co.GetRequests(logstore.Filter{SessionID: id})
				if err != nil {
					return fmt.Errorf("reading session %s: %w", id, err)
				}
				fmt.Fprintf(out, "%-40s %d\n", id, len(records))
			}
			return nil
		},
	}
	return cmd
}
