package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/siherrmann/threadrag"
	"github.com/spf13/cobra"
)

const chatHelp = `Commands:
  /reset            clear history and remembered entities
  /switch <thread>  continue in another thread
  /timeline         show the messages of the current thread
  /outside          toggle searching outside the thread
  /quit             leave the chat`

func newChatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <thread-id>",
		Short: "Start an interactive session on a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withThreadRAG(cmd.Context(), func(r *threadrag.ThreadRAG) error {
				return runChat(cmd, r, args[0])
			})
		},
	}
}

func runChat(cmd *cobra.Command, r *threadrag.ThreadRAG, threadID string) error {
	out := cmd.OutOrStdout()
	sessionID, err := r.StartSession(threadID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Session %s on thread %s. Type /help for commands.\n", sessionID, threadID)

	outside := false
	scanner := bufio.NewScanner(cmd.InOrStdin())
	prompt(out, threadID, outside)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/help":
			fmt.Fprintln(out, chatHelp)
		case line == "/reset":
			if err := r.ResetSession(sessionID); err != nil {
				return err
			}
			fmt.Fprintln(out, "Session reset.")
		case line == "/outside":
			outside = !outside
			fmt.Fprintf(out, "Search outside thread: %t\n", outside)
		case line == "/timeline":
			fmt.Fprintln(out, r.Timeline(threadID))
		case strings.HasPrefix(line, "/switch"):
			next := strings.TrimSpace(strings.TrimPrefix(line, "/switch"))
			if err := r.SwitchThread(sessionID, next); err != nil {
				fmt.Fprintf(out, "Cannot switch: %v\n", err)
			} else {
				threadID = next
				fmt.Fprintf(out, "Switched to thread %s.\n", threadID)
			}
		default:
			result, err := r.Ask(cmd.Context(), sessionID, line, outside)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
			} else {
				fmt.Fprintln(out, result.Answer)
			}
		}
		prompt(out, threadID, outside)
	}
	return scanner.Err()
}

func prompt(out io.Writer, threadID string, outside bool) {
	if outside {
		fmt.Fprintf(out, "[%s, outside] > ", threadID)
		return
	}
	fmt.Fprintf(out, "[%s] > ", threadID)
}
