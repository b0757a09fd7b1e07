package database

import (
	"context"
	"testing"

	"github.com/siherrmann/threadrag/core/corpus"
	"github.com/siherrmann/threadrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorpusImportAndLoad(t *testing.T) {
	ctx := context.Background()
	database := initDB(t)

	page := 2
	chunks := []*model.Chunk{
		{ChunkID: "M-000207", ThreadID: "T-0002", MessageID: "M-000207", Text: "information on your id and password"},
		{ChunkID: "att_M-000207_p2", ThreadID: "T-0002", MessageID: "M-000207", Source: model.SourceAttachment, PageNo: &page, Text: "valid through January"},
		{ChunkID: "M-000300", ThreadID: "T-0003", MessageID: "M-000300", Text: "lunch menu"},
	}
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	threads := []*model.Thread{
		{ThreadID: "T-0002", MessageIDs: []string{"M-000207"}},
		{ThreadID: "T-0003", MessageIDs: []string{"M-000300"}},
	}
	messages := []*model.Message{
		{MessageID: "M-000207", Subject: "Your access", From: "it@enron.com"},
		{MessageID: "M-000300", Subject: "Lunch"},
	}
	source, err := corpus.New(chunks, vectors, threads, messages)
	require.NoError(t, err)

	handler, err := NewCorpusDBHandler(database, 3, true)
	require.NoError(t, err, "Expected NewCorpusDBHandler to not return an error")

	require.NoError(t, handler.Import(ctx, source), "Expected Import to not return an error")

	loaded, err := handler.Load(ctx)
	require.NoError(t, err, "Expected Load to not return an error")

	assert.Equal(t, source.Len(), loaded.Len())
	assert.Equal(t, source.Threads(), loaded.Threads())
	for i := 0; i < source.Len(); i++ {
		assert.Equal(t, source.Chunk(i).ChunkID, loaded.Chunk(i).ChunkID, "Expected corpus order to survive the round trip")
		want, _ := source.Vector(i)
		got, _ := loaded.Vector(i)
		assert.Equal(t, want, got)
	}

	m, ok := loaded.Message("M-000207")
	require.True(t, ok)
	assert.Equal(t, "T-0002", m.ThreadID)
	assert.Equal(t, "Your access", m.Subject)

	thread, ok := loaded.Thread("T-0002")
	require.True(t, ok)
	assert.Equal(t, []string{"it@enron.com"}, thread.Participants)
}
