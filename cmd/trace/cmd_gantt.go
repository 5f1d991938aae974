package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nothatDinger/qwen-code-trace/internal/render"
)

func newGanttCommand() *cobra.Command {
	var ff filterFlags
	var format string
	var outPath string

	cmd := &cobra.Command{
		Use:   "gantt",
		Short: "Render stored records as a Gantt timeline",
		Long: `Render the deduplicated request timeline as a Gantt chart.

Overlapping retried calls are collapsed before rendering, so each logical
call appears as one bar. Supported formats: html, svg, png (png requires a
raster backend).`,
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

			out, err := co.Render(cmd.Context(), render.Format(format), f, outPath)
			if err != nil {
				if errors.Is(err, render.ErrRasterUnavailable) {
					return fmt.Errorf("%w; use --format html or svg", err)
				}
				return err
			}
			if outPath == "" {
				cmd.Print(string(out))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
			}
			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().StringVar(&format, "format", "html", "Output format: html, svg, or png")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write output to a file instead of stdout")
	return cmd
}
