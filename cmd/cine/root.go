package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var (
		socketFlag string
		configFlag string
		jsonFlag   bool
	)
	ctx := newCommandContext(&socketFlag, &configFlag, &jsonFlag)

	rootCmd := &cobra.Command{
		Use:           "cine",
		Short:         "Frame navigation and cine playback for medical image series",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&socketFlag, "socket", "", "Path to the cine daemon socket")
	flags.StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	flags.BoolVar(&jsonFlag, "json", false, "Emit machine-readable JSON instead of tables")

	commands := newDaemonCommands(ctx)
	commands = append(commands,
		newServeCommand(ctx),
		newSeriesCommand(ctx),
		newSessionCommand(ctx),
	)
	commands = append(commands, newPlaybackCommands(ctx)...)
	commands = append(commands,
		newLogsCommand(ctx),
		newWatchCommand(ctx),
		newConfigCommand(ctx),
	)
	rootCmd.AddCommand(commands...)

	return rootCmd
}
