package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkValidate(t *testing.T) {
	t.Run("Missing source defaults to email", func(t *testing.T) {
		c := &Chunk{ChunkID: "M-1", ThreadID: "T-1", MessageID: "M-1"}

		require.NoError(t, c.Validate())
		assert.Equal(t, SourceEmail, c.Source)
	})

	t.Run("Attachment without page gets page 1", func(t *testing.T) {
		c := &Chunk{ChunkID: "att_M-1_p1", ThreadID: "T-1", MessageID: "M-1", Source: SourceAttachment}

		require.NoError(t, c.Validate())
		require.NotNil(t, c.PageNo)
		assert.Equal(t, 1, *c.PageNo)
	})

	t.Run("Missing ids are rejected", func(t *testing.T) {
		assert.Error(t, (&Chunk{ThreadID: "T-1", MessageID: "M-1"}).Validate())
		assert.Error(t, (&Chunk{ChunkID: "c", MessageID: "M-1"}).Validate())
	})

	t.Run("Unknown source is rejected", func(t *testing.T) {
		c := &Chunk{ChunkID: "c", ThreadID: "T-1", MessageID: "M-1", Source: "fax"}
		assert.Error(t, c.Validate())
	})
}

func TestCitation(t *testing.T) {
	page := 2

	t.Run("Email citation has no page", func(t *testing.T) {
		c := NewCitation(&Chunk{ChunkID: "M-000207", MessageID: "M-000207", Source: SourceEmail})

		assert.Nil(t, c.PageNo)
		assert.Equal(t, "[msg: M-000207]", c.Tag())
	})

	t.Run("Attachment citation carries page", func(t *testing.T) {
		c := NewCitation(&Chunk{ChunkID: "att_M-000207_p2", MessageID: "M-000207", Source: SourceAttachment, PageNo: &page})

		require.NotNil(t, c.PageNo)
		assert.Equal(t, 2, *c.PageNo)
		assert.Equal(t, "[msg: M-000207, page: 2]", c.Tag())
	})
}
