package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCleanupCommand() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete records older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			co, settings, err := openTrace(cmd)
			if err != nil {
				return err
			}
			defer co.Close() //nolint:errcheck

			if days == 0 {
				days = settings.RetentionDays
			}
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}

			removed, err := co.DeleteOldData(days)
			if err != nil {
				return fmt.Errorf("cleaning up trace data: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d record(s) older than %d day(s).\n", removed, days)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Retention window in days (default: settings value)")
	return cmd
}
