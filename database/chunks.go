package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/threadrag/helper"
	"github.com/siherrmann/threadrag/model"
	loadSql "github.com/siherrmann/threadrag/sql"
)

// ChunksDBHandlerFunctions defines the interface for Chunks database operations.
type ChunksDBHandlerFunctions interface {
	InsertChunk(ctx context.Context, chunk *model.Chunk, embedding []float32) (int, error)
	SelectAllChunks(ctx context.Context) ([]*model.Chunk, [][]float32, error)
	SelectChunksByThread(ctx context.Context, threadID string) ([]*model.Chunk, [][]float32, error)
	DeleteChunk(ctx context.Context, chunkID string) (int, error)
}

var _ ChunksDBHandlerFunctions = (*ChunksDBHandler)(nil)

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewChunksDBHandler creates a new chunks database handler.
// It loads the chunk-related SQL functions and creates the table with a
// vector column of embeddingDim dimensions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	chunksDbHandler := &ChunksDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler", "embedding_dim", embeddingDim)

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists, it does not create it again.
func (h *ChunksDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks($1);`, h.embeddingDim)
	if err != nil {
		return helper.NewError("init chunks", err)
	}

	h.db.Logger.Debug("Checked/created table chunks")

	return nil
}

// InsertChunk inserts or replaces a chunk and its embedding and returns its
// row id. Rows are read back in insertion order.
func (h *ChunksDBHandler) InsertChunk(ctx context.Context, chunk *model.Chunk, embedding []float32) (int, error) {
	if err := chunk.Validate(); err != nil {
		return 0, helper.NewError("validate chunk", err)
	}
	if len(embedding) != h.embeddingDim {
		return 0, helper.NewError("validate embedding", fmt.Errorf("chunk %s has %d dimensions, expected %d", chunk.ChunkID, len(embedding), h.embeddingDim))
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_chunk($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		chunk.ChunkID,
		chunk.ThreadID,
		chunk.MessageID,
		string(chunk.Source),
		chunk.Text,
		chunk.PageNo,
		chunk.Filename,
		chunk.From,
		chunk.To,
		chunk.Date,
		pgvector.NewVector(embedding),
	)

	var id int
	if err := row.Scan(&id); err != nil {
		return 0, helper.NewError("scan", err)
	}

	return id, nil
}

// SelectAllChunks returns all chunks with their embeddings in insertion order
func (h *ChunksDBHandler) SelectAllChunks(ctx context.Context) ([]*model.Chunk, [][]float32, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_all_chunks()`)
	if err != nil {
		return nil, nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// SelectChunksByThread returns the chunks of one thread with their embeddings
func (h *ChunksDBHandler) SelectChunksByThread(ctx context.Context, threadID string) ([]*model.Chunk, [][]float32, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_chunks_by_thread($1)`, threadID)
	if err != nil {
		return nil, nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanChunks(rows)
}

// DeleteChunk deletes a chunk and returns the number of deleted rows
func (h *ChunksDBHandler) DeleteChunk(ctx context.Context, chunkID string) (int, error) {
	var deleted int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT delete_chunk($1)`, chunkID).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("delete", err)
	}
	return deleted, nil
}

func scanChunks(rows *sql.Rows) ([]*model.Chunk, [][]float32, error) {
	var chunks []*model.Chunk
	var embeddings [][]float32
	for rows.Next() {
		chunk := &model.Chunk{}
		var source string
		var embedding pgvector.Vector
		err := rows.Scan(
			&chunk.ChunkID,
			&chunk.ThreadID,
			&chunk.MessageID,
			&source,
			&chunk.Text,
			&chunk.PageNo,
			&chunk.Filename,
			&chunk.From,
			&chunk.To,
			&chunk.Date,
			&embedding,
		)
		if err != nil {
			return nil, nil, helper.NewError("scan", err)
		}
		chunk.Source = model.Source(source)
		chunks = append(chunks, chunk)
		embeddings = append(embeddings, embedding.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, nil, helper.NewError("rows", err)
	}

	return chunks, embeddings, nil
}
