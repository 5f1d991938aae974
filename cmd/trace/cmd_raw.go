package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newRawCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "raw <session-id>",
		Short: "Show the most recent raw payload stored for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			co, _, err := openTrace(cmd)
			if err != nil {
				return err
			}
			defer co.Close() //nolint:errcheck

			p, err := co.RawPayload(args[0])
			if err != nil {
				return fmt.Errorf("reading raw payload: %w", err)
			}
			if p == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No raw payload stored.")
				return nil
			}

			data, err := json.MarshalIndent(p, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting raw payload: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	return cmd
}
