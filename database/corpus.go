package database

import (
	"context"

	"github.com/siherrmann/threadrag/core/corpus"
	"github.com/siherrmann/threadrag/helper"
)

// CorpusDBHandler stores a complete chunk corpus, chunks and message
// metadata, in Postgres
type CorpusDBHandler struct {
	db       *helper.Database
	chunks   *ChunksDBHandler
	messages *MessagesDBHandler
}

// NewCorpusDBHandler creates the chunk and message handlers.
// embeddingDim is only used when the chunks table does not exist yet.
func NewCorpusDBHandler(db *helper.Database, embeddingDim int, force bool) (*CorpusDBHandler, error) {
	chunks, err := NewChunksDBHandler(db, embeddingDim, force)
	if err != nil {
		return nil, err
	}
	messages, err := NewMessagesDBHandler(db, force)
	if err != nil {
		return nil, err
	}

	return &CorpusDBHandler{
		db:       db,
		chunks:   chunks,
		messages: messages,
	}, nil
}

// Import writes every chunk of c with its embedding and the messages of
// every thread. Existing rows with the same ids are replaced.
func (h *CorpusDBHandler) Import(ctx context.Context, c *corpus.Corpus) error {
	for i := 0; i < c.Len(); i++ {
		vector, _ := c.Vector(i)
		if _, err := h.chunks.InsertChunk(ctx, c.Chunk(i), vector); err != nil {
			return helper.NewError("import chunk", err)
		}
	}

	messages := 0
	for _, threadID := range c.Threads() {
		for ordinal, m := range c.ThreadMessages(threadID) {
			message := *m
			message.ThreadID = threadID
			if err := h.messages.InsertMessage(ctx, &message, ordinal); err != nil {
				return helper.NewError("import message", err)
			}
			messages++
		}
	}

	h.db.Logger.Info("Imported corpus", "chunks", c.Len(), "messages", messages)

	return nil
}

// Load reads the stored corpus
func (h *CorpusDBHandler) Load(ctx context.Context) (*corpus.Corpus, error) {
	chunks, vectors, err := h.chunks.SelectAllChunks(ctx)
	if err != nil {
		return nil, helper.NewError("load chunks", err)
	}
	messages, threads, err := h.messages.SelectAllMessages(ctx)
	if err != nil {
		return nil, helper.NewError("load messages", err)
	}

	c, err := corpus.New(chunks, vectors, threads, messages)
	if err != nil {
		return nil, err
	}

	h.db.Logger.Info("Loaded corpus from database", "chunks", c.Len(), "threads", len(c.Threads()))

	return c, nil
}

// Chunks returns the chunk handler
func (h *CorpusDBHandler) Chunks() *ChunksDBHandler {
	return h.chunks
}

// Messages returns the message handler
func (h *CorpusDBHandler) Messages() *MessagesDBHandler {
	return h.messages
}
