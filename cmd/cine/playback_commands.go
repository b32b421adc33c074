package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cine/internal/api"
	"cine/internal/ipc"
)

// newPlaybackCommands returns the top-level transport controls. Each resolves
// its target session the same way: the --session flag when given, the only
// open session otherwise.
func newPlaybackCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newPlainPlaybackCommand(ctx, "play", "Start cine playback", api.CommandPlay),
		newPlainPlaybackCommand(ctx, "pause", "Pause cine playback", api.CommandPause),
		newPlainPlaybackCommand(ctx, "toggle", "Toggle between playing and paused", api.CommandToggle),
		newStepPlaybackCommand(ctx, "next", "Advance one frame", api.CommandNext),
		newStepPlaybackCommand(ctx, "prev", "Step back one frame", api.CommandPrevious),
		newPlainPlaybackCommand(ctx, "first", "Jump to the first frame", api.CommandFirst),
		newPlainPlaybackCommand(ctx, "last", "Jump to the last frame", api.CommandLast),
		newGotoCommand(ctx),
		newRateCommand(ctx),
		newModeCommand(ctx),
		newDirectionCommand(ctx),
	}
}

func newPlainPlaybackCommand(ctx *commandContext, use, short, name string) *cobra.Command {
	var sessionFlag string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlaybackCommand(ctx, cmd, sessionFlag, ipc.PlaybackCommand{Name: name})
		},
	}
	addSessionFlag(cmd, &sessionFlag)
	return cmd
}

func newStepPlaybackCommand(ctx *commandContext, use, short, name string) *cobra.Command {
	var sessionFlag string
	var animate bool

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlaybackCommand(ctx, cmd, sessionFlag, ipc.PlaybackCommand{Name: name, Animate: animate})
		},
	}
	addSessionFlag(cmd, &sessionFlag)
	cmd.Flags().BoolVar(&animate, "animate", false, "Glide to the frame instead of cutting")
	return cmd
}

func newGotoCommand(ctx *commandContext) *cobra.Command {
	var sessionFlag string
	var animate bool

	cmd := &cobra.Command{
		Use:   "goto <frame>",
		Short: "Jump to a frame (numbered from 1)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil || frame < 1 {
				return fmt.Errorf("invalid frame %q", args[0])
			}
			command := ipc.PlaybackCommand{Name: api.CommandGoTo, Frame: frame - 1, Animate: animate}
			return runPlaybackCommand(ctx, cmd, sessionFlag, command)
		},
	}
	addSessionFlag(cmd, &sessionFlag)
	cmd.Flags().BoolVar(&animate, "animate", false, "Glide to the frame instead of cutting")
	return cmd
}

func newRateCommand(ctx *commandContext) *cobra.Command {
	var sessionFlag string

	cmd := &cobra.Command{
		Use:   "rate <fps>",
		Short: "Set the requested frame rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
			if err != nil || rate <= 0 {
				return fmt.Errorf("invalid frame rate %q", args[0])
			}
			return runPlaybackCommand(ctx, cmd, sessionFlag, ipc.PlaybackCommand{Name: api.CommandRate, Rate: rate})
		},
	}
	addSessionFlag(cmd, &sessionFlag)
	return cmd
}

func newModeCommand(ctx *commandContext) *cobra.Command {
	var sessionFlag string

	cmd := &cobra.Command{
		Use:   "mode <once|loop|bounce>",
		Short: "Set what playback does at the sequence boundary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlaybackCommand(ctx, cmd, sessionFlag, ipc.PlaybackCommand{Name: api.CommandMode, Mode: args[0]})
		},
	}
	addSessionFlag(cmd, &sessionFlag)
	return cmd
}

func newDirectionCommand(ctx *commandContext) *cobra.Command {
	var sessionFlag string

	cmd := &cobra.Command{
		Use:   "direction <forward|backward>",
		Short: "Set the playback direction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlaybackCommand(ctx, cmd, sessionFlag, ipc.PlaybackCommand{Name: api.CommandDirection, Direction: args[0]})
		},
	}
	addSessionFlag(cmd, &sessionFlag)
	return cmd
}

func addSessionFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "session", "s", "", "Target session id or unique prefix")
}

func runPlaybackCommand(ctx *commandContext, cmd *cobra.Command, sessionFlag string, command ipc.PlaybackCommand) error {
	return ctx.withClient(func(client *ipc.Client) error {
		id, err := resolveSessionID(client, sessionFlag)
		if err != nil {
			return err
		}
		resp, err := client.Command(id, command)
		if err != nil {
			return err
		}
		if ctx.jsonOutput() {
			return writeJSON(cmd, resp)
		}
		fmt.Fprintln(cmd.OutOrStdout(), summarizePlayback(resp.State))
		return nil
	})
}
