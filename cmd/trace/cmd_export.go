package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nothatDinger/qwen-code-trace/internal/coordinator"
)

func newExportCommand() *cobra.Command {
	var ff filterFlags
	var format string
	var outPath string
	var includeContent, includeMetadata bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored trace records",
		Long: `Export stored trace records as json, csv, or an HTML gantt chart.

Content and metadata fields are omitted unless requested, which keeps
exports small and free of prompt text by default.`,
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

			out, err := co.Export(cmd.Context(), coordinator.ExportOptions{
				Format:          coordinator.ExportFormat(format),
				IncludeContent:  includeContent,
				IncludeMetadata: includeMetadata,
				Filter:          f,
			})
			if err != nil {
				return err
			}

			if outPath == "" {
				cmd.Print(string(out))
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
			if err := os.WriteFile(outPath, out, 0o644); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().StringVar(&format, "format", "json", "Export format: json, csv, or gantt")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write output to a file instead of stdout")
	cmd.Flags().BoolVar(&includeContent, "content", false, "Include content fields")
	cmd.Flags().BoolVar(&includeMetadata, "metadata", false, "Include metadata fields")
	return cmd
}
