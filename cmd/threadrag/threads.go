package main

import (
	"fmt"

	"github.com/siherrmann/threadrag"
	"github.com/spf13/cobra"
)

func newThreadsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "threads",
		Short: "List the thread ids of the corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withThreadRAG(cmd.Context(), func(r *threadrag.ThreadRAG) error {
				for _, id := range r.Threads() {
					thread, _ := r.Corpus.Thread(id)
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d messages\n", id, len(thread.MessageIDs))
				}
				return nil
			})
		},
	}
}

func newTimelineCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "timeline <thread-id>",
		Short: "Show the messages of a thread in date order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withThreadRAG(cmd.Context(), func(r *threadrag.ThreadRAG) error {
				fmt.Fprintln(cmd.OutOrStdout(), r.Timeline(args[0]))
				return nil
			})
		},
	}
}
