package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/siherrmann/threadrag"
	"github.com/siherrmann/threadrag/core/corpus"
	"github.com/siherrmann/threadrag/core/pipeline"
	"github.com/siherrmann/threadrag/helper"
	"github.com/siherrmann/threadrag/model"
)

func main() {
	ctx := context.Background()
	config := helper.DefaultConfiguration()
	logger := helper.NewLogger(os.Stderr, config.LogLevel)

	// Download the embedding model on first use
	embed, err := pipeline.DefaultEmbedder(config.ModelDir, config.ModelName)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	page := 1
	chunks := []*model.Chunk{
		{
			ChunkID: "M-1", ThreadID: "T-1", MessageID: "M-1", Source: model.SourceEmail,
			Text: "Please approve the Q3 travel budget of $12,500 before Friday.",
			From: "alice@example.com", To: "bob@example.com", Date: "2001-05-14 09:30",
		},
		{
			ChunkID: "M-2", ThreadID: "T-1", MessageID: "M-2", Source: model.SourceEmail,
			Text: "Approved. I signed budget_q3.xlsx and sent it to finance.",
			From: "bob@example.com", To: "alice@example.com", Date: "2001-05-15 16:05",
		},
		{
			ChunkID: "att_M-2_p1", ThreadID: "T-1", MessageID: "M-2", Source: model.SourceAttachment,
			Text: "Travel budget Q3: total $12,500, signed by Bob.", PageNo: &page, Filename: "budget_q3.xlsx",
		},
		{
			ChunkID: "M-3", ThreadID: "T-2", MessageID: "M-3", Source: model.SourceEmail,
			Text: "The team lunch moved to Thursday at noon.",
			From: "carol@example.com", To: "team@example.com", Date: "2001-05-16 11:00",
		},
	}

	// Corpus vectors come from the same model as the queries
	vectors := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		if vectors[i], err = embed(ctx, chunk.Text); err != nil {
			log.Fatalf("Failed to embed chunk %s: %v", chunk.ChunkID, err)
		}
	}

	c, err := corpus.New(chunks, vectors, nil, nil)
	if err != nil {
		log.Fatalf("Failed to build corpus: %v", err)
	}

	r := threadrag.New(c, pipeline.NewPipeline(embed), config, nil, logger)
	defer r.Close()

	sessionID, err := r.StartSession("T-1")
	if err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}

	for _, question := range []string{
		"Was the travel budget approved?",
		"When was that approval sent?",
		"Where is the team lunch?",
	} {
		result, err := r.Ask(ctx, sessionID, question, false)
		if err != nil {
			log.Fatalf("Failed to ask %q: %v", question, err)
		}
		fmt.Printf("%s\n\n%d citations, rewritten query: %s\n\n", result.Answer, len(result.Citations), result.Debug.RewrittenQuery)
	}

	s, err := r.GetSession(sessionID)
	if err != nil {
		log.Fatalf("Failed to get session: %v", err)
	}
	fmt.Printf("Remembered entities: %v\n", s.EntityMemory)
}
