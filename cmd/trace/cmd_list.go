package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCommand() *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored trace records",
		RunE: func(cmd *cobra.Command, args []string) error {
			co, _, err := openTrace(cmd)
			if err != nil {
				return err
			}
			defer co.Close() //nolint:errcheck

			f, err := ff.build()
			if err != nil {
				return err
			}
			records, err := co.GetRequests(f)
			if err != nil {
				return fmt.Errorf("listing records: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No records found.")
				return nil
			}

			fmt.Fprintf(out, "%-26s %-10s %-10s %-20s %s\n", "ID", "Type", "Status", "Start", "Duration")
			for _, r := range records {
				dur := "-"
				if r.Done() {
					dur = formatDuration(r.Duration)
				}
				fmt.Fprintf(out, "%-26s %-10s %-10s %-20s %s\n",
					r.ID, r.Type, r.Status, r.StartTime.UTC().Format("2006-01-02 15:04:05"), dur)
			}
			return nil
		},
	}

	ff.register(cmd)
	return cmd
}
