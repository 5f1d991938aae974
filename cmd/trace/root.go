package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nothatDinger/qwen-code-trace/internal/config"
	"github.com/nothatDinger/qwen-code-trace/internal/coordinator"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect and visualize agent execution traces",
		Long: `Trace records model calls, tool invocations, and embedding calls made by
an agent runtime and stores them per session. Use the subcommands to query
stored records, render Gantt timelines, and manage the trace data.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().String("dir", "", "Trace data directory (default: ~/"+config.DefaultDirName+")")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			// slog.SetLogLoggerLevel requires Go 1.22; this is the closest
			// equivalent available on Go 1.21.
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
	}

	cmd.AddCommand(newStatsCommand())
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newGanttCommand())
	cmd.AddCommand(newExportCommand())
	cmd.AddCommand(newSessionsCommand())
	cmd.AddCommand(newClearCommand())
	cmd.AddCommand(newCleanupCommand())
	cmd.AddCommand(newEnableCommand())
	cmd.AddCommand(newDisableCommand())
	cmd.AddCommand(newRawCommand())

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}

// openTrace resolves the trace directory from the persistent --dir flag,
// loads settings from it, and builds a coordinator.
func openTrace(cmd *cobra.Command) (*coordinator.Coordinator, *config.Settings, error) {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return nil, nil, err
	}
	if dir == "" {
		dir = config.New().Dir
	}

	settings, err := config.Load(dir)
	if err != nil {
		return nil, nil, err
	}
	settings.Dir = dir

	return coordinator.New(coordinator.Options{Settings: settings}), settings, nil
}
