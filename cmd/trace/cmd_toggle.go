package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nothatDinger/qwen-code-trace/internal/config"
)

func newEnableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "enable",
		Short: "Enable trace collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return setEnabled(cmd, true)
		},
	}
}

func newDisableCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Disable trace collection",
		Long: `Disable trace collection.

While disabled, lifecycle calls from the agent runtime silently no-op;
already-stored data stays untouched and can still be queried.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setEnabled(cmd, false)
		},
	}
}

func setEnabled(cmd *cobra.Command, enabled bool) error {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	if dir == "" {
		dir = config.New().Dir
	}

	settings, err := config.Load(dir)
	if err != nil {
		return err
	}
	settings.SetEnabled(enabled)
	if err := config.Save(dir, settings); err != nil {
		return err
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Tracing %s.\n", state)
	return nil
}
