package pipeline

import (
	"context"

	"github.com/siherrmann/threadrag/model"
)

// EmbedFunc encodes a query into a dense vector of the corpus dimensionality
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// RewriteFunc expands a raw question into the query used for retrieval
type RewriteFunc func(question string, threadID string, memory model.Entities) string

// ExtractFunc derives the entities of one turn from the user text and the
// retrieved evidence
type ExtractFunc func(userText string, results []*model.RetrievalResult) model.Entities

// Pipeline bundles the per-turn stages around retrieval
type Pipeline struct {
	Embedder  EmbedFunc
	Rewriter  RewriteFunc
	Extractor ExtractFunc
}

// NewPipeline creates a pipeline with the given embedder and the default
// rewriter and entity extractor
func NewPipeline(embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Embedder:  embedder,
		Rewriter:  RewriteQuery,
		Extractor: DefaultEntityExtractor(),
	}
}

// SetRewriter replaces the query rewriter
func (p *Pipeline) SetRewriter(rewriter RewriteFunc) {
	p.Rewriter = rewriter
}

// SetExtractor replaces the entity extractor
func (p *Pipeline) SetExtractor(extractor ExtractFunc) {
	p.Extractor = extractor
}
