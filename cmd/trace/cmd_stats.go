package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

func newStatsCommand() *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate statistics for stored trace records",
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
			stats, err := co.GetStats(f)
			if err != nil {
				return fmt.Errorf("computing stats: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total requests:   %d\n", stats.Total)
			fmt.Fprintf(out, "Average duration: %s\n", formatDuration(stats.AvgDuration))
			fmt.Fprintf(out, "Error rate:       %.1f%%\n", stats.ErrorRate*100)

			fmt.Fprintln(out, "\nBy type:")
			for _, k := range sortedKeys(stats.ByType) {
				fmt.Fprintf(out, "  %-12s %d\n", k, stats.ByType[k])
			}
			fmt.Fprintln(out, "\nBy status:")
			for _, k := range sortedKeys(stats.ByStatus) {
				fmt.Fprintf(out, "  %-12s %d\n", k, stats.ByStatus[k])
			}
			return nil
		},
	}

	ff.register(cmd)
	return cmd
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(10 * time.Millisecond).String()
}
