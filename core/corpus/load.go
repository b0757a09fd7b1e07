package corpus

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sbinet/npyio"
	"github.com/siherrmann/threadrag/helper"
	"github.com/siherrmann/threadrag/model"
	"golang.org/x/sync/errgroup"
)

// File names produced by the ingestion pipeline.
const (
	ChunksFile     = "chunks.jsonl"
	ChunkIDsFile   = "chunk_ids.json"
	EmbeddingsFile = "embeddings.npy"
	ThreadsFile    = "threads.json"
	MessagesFile   = "messages.json"
)

// LoadFiles reads the ingestion output from dataDir and builds the corpus.
// threads.json and messages.json are optional.
func LoadFiles(ctx context.Context, dataDir string, logger *slog.Logger) (*Corpus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		chunks   []*model.Chunk
		ids      []string
		matrix   [][]float32
		threads  []*model.Thread
		messages []*model.Message
	)

	// A failed read cancels the others through gctx
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		chunks, err = readChunks(gctx, filepath.Join(dataDir, ChunksFile))
		return err
	})
	g.Go(func() error {
		return readJSON(gctx, filepath.Join(dataDir, ChunkIDsFile), &ids)
	})
	g.Go(func() error {
		var err error
		matrix, err = readEmbeddings(gctx, filepath.Join(dataDir, EmbeddingsFile))
		return err
	})
	g.Go(func() error {
		var err error
		threads, err = readThreads(gctx, filepath.Join(dataDir, ThreadsFile))
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("No thread metadata, deriving threads from chunks", slog.String("file", ThreadsFile))
			return nil
		}
		return err
	})
	g.Go(func() error {
		var err error
		messages, err = readMessages(gctx, filepath.Join(dataDir, MessagesFile))
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("No message metadata", slog.String("file", MessagesFile))
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, helper.NewError("load corpus files", err)
	}

	vectors, err := alignVectors(chunks, ids, matrix)
	if err != nil {
		return nil, helper.NewError("align embeddings", err)
	}

	c, err := New(chunks, vectors, threads, messages)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded corpus",
		slog.String("data_dir", dataDir),
		slog.Int("chunks", c.Len()),
		slog.Int("threads", len(c.threadIDs)),
		slog.Int("dimensions", c.Dimensions()),
	)

	return c, nil
}

// alignVectors orders the embedding rows like the chunks, using chunk_ids.json
// as the row index of the matrix.
func alignVectors(chunks []*model.Chunk, ids []string, matrix [][]float32) ([][]float32, error) {
	if len(ids) != len(matrix) {
		return nil, fmt.Errorf("%d chunk ids but %d embedding rows", len(ids), len(matrix))
	}
	rows := make(map[string]int, len(ids))
	for i, id := range ids {
		rows[id] = i
	}

	vectors := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		row, ok := rows[chunk.ChunkID]
		if !ok {
			return nil, fmt.Errorf("no embedding for chunk %s", chunk.ChunkID)
		}
		vectors[i] = matrix[row]
	}
	return vectors, nil
}

func readChunks(ctx context.Context, path string) ([]*model.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chunks []*model.Chunk
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		chunk := &model.Chunk{}
		if err := json.Unmarshal(raw, chunk); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		chunks = append(chunks, chunk)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return chunks, nil
}

func readEmbeddings(ctx context.Context, path string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}

	shape := r.Header.Descr.Shape
	if len(shape) != 2 {
		return nil, fmt.Errorf("%s: expected a 2-d matrix, got shape %v", path, shape)
	}
	rows, cols := shape[0], shape[1]

	var flat []float32
	switch r.Header.Descr.Type {
	case "<f8", "float64":
		var wide []float64
		if err := r.Read(&wide); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		flat = make([]float32, len(wide))
		for i, v := range wide {
			flat[i] = float32(v)
		}
	default:
		if err := r.Read(&flat); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(flat) != rows*cols {
		return nil, fmt.Errorf("%s: %d values for shape %v", path, len(flat), shape)
	}

	matrix := make([][]float32, rows)
	for i := range matrix {
		row := make([]float32, cols)
		for j := range row {
			if r.Header.Descr.Fortran {
				row[j] = flat[j*rows+i]
			} else {
				row[j] = flat[i*cols+j]
			}
		}
		matrix[i] = row
	}
	return matrix, nil
}

func readThreads(ctx context.Context, path string) ([]*model.Thread, error) {
	var raw map[string]json.RawMessage
	if err := readJSON(ctx, path, &raw); err != nil {
		return nil, err
	}

	threads := make([]*model.Thread, 0, len(raw))
	for id, value := range raw {
		t := &model.Thread{ThreadID: id}
		if err := json.Unmarshal(value, &t.MessageIDs); err != nil {
			if err := json.Unmarshal(value, t); err != nil {
				return nil, fmt.Errorf("%s: thread %s: %w", path, id, err)
			}
			t.ThreadID = id
		}
		threads = append(threads, t)
	}
	return threads, nil
}

func readMessages(ctx context.Context, path string) ([]*model.Message, error) {
	var raw map[string]*model.Message
	if err := readJSON(ctx, path, &raw); err != nil {
		return nil, err
	}

	messages := make([]*model.Message, 0, len(raw))
	for id, m := range raw {
		if m == nil {
			continue
		}
		m.MessageID = id
		messages = append(messages, m)
	}
	return messages, nil
}

func readJSON(ctx context.Context, path string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
