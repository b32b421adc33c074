package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cine/internal/ipc"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Open and manage playback sessions",
	}

	sessionCmd.AddCommand(newSessionOpenCommand(ctx))
	sessionCmd.AddCommand(newSessionCloseCommand(ctx))
	sessionCmd.AddCommand(newSessionListCommand(ctx))

	return sessionCmd
}

func newSessionOpenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "open <seriesID>",
		Short: "Open a playback session for a ready series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SessionOpen(ids[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				session := resp.Session
				frames := 0
				if session.State != nil {
					frames = session.State.TotalSlices
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session %s opened for series %d: %s (%d frames)\n",
					session.ID, session.SeriesID, session.Title, frames)
				return nil
			})
		},
	}
}

func newSessionCloseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "close <sessionID>",
		Short: "Close a playback session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				id, err := resolveSessionID(client, args[0])
				if err != nil {
					return err
				}
				resp, err := client.SessionClose(id)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"id": id, "closed": resp.Closed})
				}
				if resp.Closed {
					fmt.Fprintf(cmd.OutOrStdout(), "Session %s closed\n", shortSessionID(id))
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Session %s not found\n", shortSessionID(id))
				}
				return nil
			})
		},
	}
}

func newSessionListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open playback sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SessionList()
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				rows := buildSessionRows(resp.Sessions)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No open sessions")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Series", "Title", "Frame", "Playing"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

// resolveSessionID turns user input into a full session id. An empty query
// picks the only open session; otherwise the query must match one session id
// exactly or as a unique prefix.
func resolveSessionID(client *ipc.Client, query string) (string, error) {
	query = strings.TrimSpace(query)
	resp, err := client.SessionList()
	if err != nil {
		return "", err
	}
	sessions := resp.Sessions
	if len(sessions) == 0 {
		return "", errors.New("no open sessions; open one with `cine session open <seriesID>`")
	}

	if query == "" {
		if len(sessions) == 1 {
			return sessions[0].ID, nil
		}
		return "", fmt.Errorf("%d sessions open; pick one with --session", len(sessions))
	}

	var matches []string
	for _, session := range sessions {
		if session.ID == query {
			return session.ID, nil
		}
		if strings.HasPrefix(session.ID, query) {
			matches = append(matches, session.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("no session matches %q", query)
	default:
		return "", fmt.Errorf("session id %q is ambiguous (%d matches)", query, len(matches))
	}
}
