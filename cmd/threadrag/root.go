package main

import (
	"context"

	"github.com/siherrmann/threadrag"
	"github.com/siherrmann/threadrag/helper"
	"github.com/spf13/cobra"
)

// openFunc builds a ThreadRAG from the loaded configuration
type openFunc func(ctx context.Context, config *helper.Configuration) (*threadrag.ThreadRAG, error)

type app struct {
	open   openFunc
	config *helper.Configuration

	dataDir      string
	corpusSource string
	traceSink    string
}

func newRootCommand(open openFunc) *cobra.Command {
	a := &app{open: open}

	root := &cobra.Command{
		Use:   "threadrag",
		Short: "Ask questions about email threads",
		Long: `Answer questions about a corpus of email threads with cited evidence.

Questions are scoped to one thread per session. Retrieval fuses BM25 with
embedding similarity and every statement of an answer cites its email or
attachment page.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config, err := helper.NewConfiguration()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data-dir") {
				config.DataDir = a.dataDir
			}
			if cmd.Flags().Changed("source") {
				config.CorpusSource = a.corpusSource
			}
			if cmd.Flags().Changed("trace") {
				config.TraceSink = a.traceSink
			}
			if err := config.Validate(); err != nil {
				return err
			}
			a.config = config
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Directory holding chunks.jsonl, chunk_ids.json and embeddings.npy")
	root.PersistentFlags().StringVar(&a.corpusSource, "source", "", "Corpus source (files|postgres)")
	root.PersistentFlags().StringVar(&a.traceSink, "trace", "", "Trace sink (file|postgres|none)")

	root.AddCommand(
		newThreadsCommand(a),
		newTimelineCommand(a),
		newAskCommand(a),
		newChatCommand(a),
		newImportCommand(a),
	)

	return root
}

// withThreadRAG opens a ThreadRAG for the duration of fn
func (a *app) withThreadRAG(ctx context.Context, fn func(r *threadrag.ThreadRAG) error) error {
	r, err := a.open(ctx, a.config)
	if err != nil {
		return err
	}
	defer r.Close()
	return fn(r)
}
