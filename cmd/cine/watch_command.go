package main

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cine/internal/api"
	"cine/internal/ipc"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var sessionFlag string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Drive a session interactively from the terminal",
		Long: "Watch puts the terminal in raw mode and forwards key presses to a " +
			"playback session: arrows step frames, space toggles play, Home and End " +
			"jump to the ends, q or Escape quits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdin.Fd()) {
				return errors.New("watch requires an interactive terminal")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				id, err := resolveSessionID(client, sessionFlag)
				if err != nil {
					return err
				}
				return runWatch(cmd, client, id)
			})
		},
	}
	addSessionFlag(cmd, &sessionFlag)
	return cmd
}

func runWatch(cmd *cobra.Command, client *ipc.Client, sessionID string) error {
	state, err := client.SessionState(sessionID)
	if err != nil {
		return err
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	out := cmd.OutOrStdout()
	var renderMu sync.Mutex
	render := func(state ipc.PlaybackState) {
		renderMu.Lock()
		defer renderMu.Unlock()
		fmt.Fprintf(out, "\r\x1b[2K%s", summarizePlayback(state))
	}

	fmt.Fprintf(out, "Watching session %s  (arrows step, space toggles, Home/End jump, q quits)\r\n", shortSessionID(sessionID))
	render(state.State)

	done := make(chan struct{})
	defer close(done)
	go pollSessionEvents(client, sessionID, done, render)

	buf := make([]byte, 8)
	for {
		n, readErr := os.Stdin.Read(buf)
		if readErr != nil {
			fmt.Fprint(out, "\r\n")
			return nil
		}
		key, quit := decodeWatchKey(buf[:n])
		if quit {
			fmt.Fprint(out, "\r\n")
			return nil
		}
		if key == "" {
			continue
		}
		resp, err := client.Input(sessionID, ipc.InputEvent{Kind: api.InputKey, Key: key})
		if err != nil {
			fmt.Fprint(out, "\r\n")
			return err
		}
		render(resp.State)
	}
}

// pollSessionEvents long-polls the session event stream and repaints after
// engine activity, so running playback advances on screen without key presses.
func pollSessionEvents(client *ipc.Client, sessionID string, done <-chan struct{}, render func(ipc.PlaybackState)) {
	var since uint64
	for {
		select {
		case <-done:
			return
		default:
		}
		resp, err := client.SessionEvents(ipc.SessionEventsRequest{
			ID:         sessionID,
			Since:      since,
			Limit:      32,
			WaitMillis: 1000,
		})
		if err != nil {
			return
		}
		since = resp.Next
		if len(resp.Events) == 0 {
			continue
		}
		state, err := client.SessionState(sessionID)
		if err != nil {
			return
		}
		render(state.State)
	}
}

// decodeWatchKey turns one raw-mode stdin read into a binding key name.
// The second result reports a quit request (q, ctrl-C, or a bare escape).
func decodeWatchKey(seq []byte) (string, bool) {
	if len(seq) == 0 {
		return "", false
	}
	switch seq[0] {
	case 0x03, 'q', 'Q':
		return "", true
	case ' ':
		return " ", false
	case 0x1b:
		if len(seq) == 1 {
			return "", true
		}
		return decodeEscapeSequence(seq), false
	}
	return "", false
}

// decodeEscapeSequence maps CSI and SS3 arrow and jump sequences onto key
// names. Unknown sequences are dropped.
func decodeEscapeSequence(seq []byte) string {
	if len(seq) < 3 || (seq[1] != '[' && seq[1] != 'O') {
		return ""
	}
	switch seq[2] {
	case 'A':
		return "ArrowUp"
	case 'B':
		return "ArrowDown"
	case 'C':
		return "ArrowRight"
	case 'D':
		return "ArrowLeft"
	case 'H':
		return "Home"
	case 'F':
		return "End"
	case '1':
		if len(seq) >= 4 && seq[3] == '~' {
			return "Home"
		}
	case '4':
		if len(seq) >= 4 && seq[3] == '~' {
			return "End"
		}
	}
	return ""
}
