// Package corpus holds the read-only chunk corpus shared by all retrieval
// calls: chunks in corpus order, their dense vectors, the lexical index and
// the thread/message metadata.
package corpus

import (
	"fmt"
	"math"
	"sort"

	"github.com/siherrmann/threadrag/helper"
	"github.com/siherrmann/threadrag/model"
)

// Corpus is an immutable snapshot. It is built once and never modified, so
// it needs no locking.
type Corpus struct {
	chunks  []*model.Chunk
	byID    map[string]int
	vectors [][]float32
	norms   []float64
	dim     int
	lexical *LexicalIndex

	threads      map[string]*model.Thread
	threadIDs    []string
	threadChunks map[string][]int
	messages     map[string]*model.Message
}

// New validates the inputs and builds the corpus. vectors[i] belongs to
// chunks[i]. threads and messages may be nil; threads are then derived from
// the chunks.
func New(chunks []*model.Chunk, vectors [][]float32, threads []*model.Thread, messages []*model.Message) (*Corpus, error) {
	if len(chunks) != len(vectors) {
		return nil, helper.NewError("build corpus", fmt.Errorf("%d chunks but %d vectors", len(chunks), len(vectors)))
	}

	c := &Corpus{
		chunks:       chunks,
		byID:         make(map[string]int, len(chunks)),
		vectors:      vectors,
		norms:        make([]float64, len(vectors)),
		threads:      make(map[string]*model.Thread),
		threadChunks: make(map[string][]int),
		messages:     make(map[string]*model.Message),
	}

	docs := make([][]string, len(chunks))
	for i, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return nil, helper.NewError("validate chunk", err)
		}
		if _, exists := c.byID[chunk.ChunkID]; exists {
			return nil, helper.NewError("build corpus", fmt.Errorf("duplicate chunk_id %s", chunk.ChunkID))
		}
		c.byID[chunk.ChunkID] = i

		if i == 0 {
			c.dim = len(vectors[i])
		} else if len(vectors[i]) != c.dim {
			return nil, helper.NewError("build corpus", fmt.Errorf("chunk %s has %d dimensions, expected %d", chunk.ChunkID, len(vectors[i]), c.dim))
		}
		c.norms[i] = norm(vectors[i])

		c.threadChunks[chunk.ThreadID] = append(c.threadChunks[chunk.ThreadID], i)
		docs[i] = Tokenize(chunk.Text)
	}
	c.lexical = NewLexicalIndex(docs)

	for _, m := range messages {
		c.messages[m.MessageID] = m
	}
	for _, t := range threads {
		c.threads[t.ThreadID] = t
	}
	// Threads missing from the metadata are derived from their chunks
	derived := make(map[string]bool)
	for _, chunk := range chunks {
		t, ok := c.threads[chunk.ThreadID]
		if !ok {
			t = &model.Thread{ThreadID: chunk.ThreadID}
			c.threads[chunk.ThreadID] = t
			derived[chunk.ThreadID] = true
		}
		if derived[chunk.ThreadID] && !contains(t.MessageIDs, chunk.MessageID) {
			t.MessageIDs = append(t.MessageIDs, chunk.MessageID)
		}
	}
	for id, t := range c.threads {
		c.threadIDs = append(c.threadIDs, id)
		if len(t.Participants) == 0 {
			t.Participants = c.participants(t)
		}
	}
	sort.Strings(c.threadIDs)

	return c, nil
}

// Len is the number of chunks.
func (c *Corpus) Len() int {
	return len(c.chunks)
}

// Chunk returns the chunk at corpus position i.
func (c *Corpus) Chunk(i int) *model.Chunk {
	return c.chunks[i]
}

// ChunkByID looks a chunk up by its chunk_id.
func (c *Corpus) ChunkByID(id string) (*model.Chunk, bool) {
	i, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return c.chunks[i], true
}

// Vector returns the dense vector of chunk i and its L2 norm.
func (c *Corpus) Vector(i int) ([]float32, float64) {
	return c.vectors[i], c.norms[i]
}

// Dimensions is the dimensionality of the corpus vectors, 0 for an empty corpus.
func (c *Corpus) Dimensions() int {
	return c.dim
}

// Lexical returns the BM25 index built over the chunk texts.
func (c *Corpus) Lexical() *LexicalIndex {
	return c.lexical
}

// HasThread reports whether id is a known thread.
func (c *Corpus) HasThread(id string) bool {
	_, ok := c.threads[id]
	return ok
}

// Threads returns all known thread ids, sorted.
func (c *Corpus) Threads() []string {
	return append([]string{}, c.threadIDs...)
}

// Thread returns the metadata of one thread.
func (c *Corpus) Thread(id string) (*model.Thread, bool) {
	t, ok := c.threads[id]
	return t, ok
}

// ThreadChunks returns the corpus positions of the chunks of a thread, in corpus order.
func (c *Corpus) ThreadChunks(id string) []int {
	return c.threadChunks[id]
}

// Message returns the metadata of one message.
func (c *Corpus) Message(id string) (*model.Message, bool) {
	m, ok := c.messages[id]
	return m, ok
}

// ThreadMessages returns the known messages of a thread in thread order.
func (c *Corpus) ThreadMessages(id string) []*model.Message {
	t, ok := c.threads[id]
	if !ok {
		return nil
	}
	messages := make([]*model.Message, 0, len(t.MessageIDs))
	for _, mid := range t.MessageIDs {
		if m, ok := c.messages[mid]; ok {
			messages = append(messages, m)
		}
	}
	return messages
}

func (c *Corpus) participants(t *model.Thread) []string {
	var participants []string
	for _, mid := range t.MessageIDs {
		m, ok := c.messages[mid]
		if !ok || m.From == "" {
			continue
		}
		if !contains(participants, m.From) {
			participants = append(participants, m.From)
		}
	}
	return participants
}

func norm(v []float32) float64 {
	sum := 0.0
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
