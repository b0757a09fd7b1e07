package database

import (
	"context"
	"testing"

	"github.com/siherrmann/threadrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessages(t *testing.T) {
	ctx := context.Background()
	database := initDB(t)

	messagesDbHandler, err := NewMessagesDBHandler(database, true)
	require.NoError(t, err, "Expected NewMessagesDBHandler to not return an error")

	t.Run("Nil database", func(t *testing.T) {
		_, err := NewMessagesDBHandler(nil, false)
		assert.Error(t, err)
	})

	t.Run("Insert and select grouped by thread", func(t *testing.T) {
		require.NoError(t, messagesDbHandler.InsertMessage(ctx, &model.Message{MessageID: "M-2", ThreadID: "T-1", Subject: "Re: plan"}, 1))
		require.NoError(t, messagesDbHandler.InsertMessage(ctx, &model.Message{MessageID: "M-1", ThreadID: "T-1", Subject: "plan", From: "alice@enron.com"}, 0))
		require.NoError(t, messagesDbHandler.InsertMessage(ctx, &model.Message{MessageID: "M-3", ThreadID: "T-2"}, 0))

		messages, threads, err := messagesDbHandler.SelectAllMessages(ctx)
		require.NoError(t, err, "Expected SelectAllMessages to not return an error")

		require.Len(t, messages, 3)
		assert.Equal(t, "alice@enron.com", messages[0].From)
		require.Len(t, threads, 2)
		assert.Equal(t, "T-1", threads[0].ThreadID)
		assert.Equal(t, []string{"M-1", "M-2"}, threads[0].MessageIDs, "Expected messages in thread order")
		assert.Equal(t, []string{"M-3"}, threads[1].MessageIDs)
	})

	t.Run("Missing ids are rejected", func(t *testing.T) {
		err := messagesDbHandler.InsertMessage(ctx, &model.Message{MessageID: "M-9"}, 0)
		assert.Error(t, err)
	})
}
