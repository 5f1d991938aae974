package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCommand() *cobra.Command {
	var session string
	var all bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete stored trace data",
		RunE: func(cmd *cobra.Command, args []string) error {
			if session == "" && !all {
				return fmt.Errorf("specify --session <id> or --all")
			}

			co, _, err := openTrace(cmd)
			if err != nil {
				return err
			}
			defer co.Close() //nolint:errcheck

			if all {
				if err := co.ClearAll(); err != nil {
					return fmt.Errorf("clearing trace data: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All trace data cleared.")
				return nil
			}

			if err := co.DeleteSessionData(session); err != nil {
				return fmt.Errorf("deleting session data: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session %s cleared.\n", session)
			return nil
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Session id to clear")
	cmd.Flags().BoolVar(&all, "all", false, "Clear every session")
	return cmd
}
