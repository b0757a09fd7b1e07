package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/siherrmann/threadrag/core/corpus"
	"github.com/siherrmann/threadrag/core/pipeline"
	"github.com/siherrmann/threadrag/helper"
	"github.com/siherrmann/threadrag/model"
)

// Engine ranks the chunks of a corpus by fused lexical and semantic relevance
type Engine struct {
	corpus *corpus.Corpus
	embed  pipeline.EmbedFunc
}

// NewEngine creates a new retrieval engine over a read-only corpus
func NewEngine(c *corpus.Corpus, embed pipeline.EmbedFunc) *Engine {
	return &Engine{
		corpus: c,
		embed:  embed,
	}
}

// Retrieve scores every chunk against query, keeps the chunks of threadID
// unless config.SearchOutsideThread is set and returns the config.TopK best.
// Lexical scores are normalised over the whole corpus before the thread
// filter is applied. The wording added by the query rewriter is not scored
// lexically, the embedding sees the full query. Ties keep corpus order.
func (e *Engine) Retrieve(ctx context.Context, query string, threadID string, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	if config == nil {
		defaultConfig := model.DefaultQueryConfig()
		config = &defaultConfig
	}

	candidates := e.candidates(threadID, config.SearchOutsideThread)
	if len(candidates) == 0 {
		return []*model.RetrievalResult{}, nil
	}

	lexical := NormalizeLexical(e.corpus.Lexical().Scores(corpus.Tokenize(pipeline.LexicalQuery(query))))

	queryVector, queryNorm, err := e.encode(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]*model.RetrievalResult, 0, len(candidates))
	for _, i := range candidates {
		vector, norm := e.corpus.Vector(i)
		semantic := Semantic(queryVector, queryNorm, vector, norm)
		results = append(results, &model.RetrievalResult{
			Chunk:    e.corpus.Chunk(i),
			Index:    i,
			Lexical:  lexical[i],
			Semantic: semantic,
			Combined: Fuse(lexical[i], semantic, config.LexicalWeight, config.SemanticWeight),
		})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Combined > results[b].Combined
	})

	topK := config.TopK
	if topK <= 0 {
		topK = model.DefaultQueryConfig().TopK
	}
	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// candidates returns the corpus positions eligible for the result, in corpus order
func (e *Engine) candidates(threadID string, searchOutsideThread bool) []int {
	if !searchOutsideThread {
		return e.corpus.ThreadChunks(threadID)
	}
	all := make([]int, e.corpus.Len())
	for i := range all {
		all[i] = i
	}
	return all
}

// encode embeds the query and rejects vectors that cannot be compared
// with the corpus
func (e *Engine) encode(ctx context.Context, query string) ([]float32, float64, error) {
	vector, err := e.embed(ctx, query)
	if err != nil {
		return nil, 0, helper.NewError("encode query", fmt.Errorf("%w: %w", model.ErrEncodingFailure, err))
	}
	if len(vector) != e.corpus.Dimensions() {
		return nil, 0, helper.NewError("encode query", fmt.Errorf("%w: got %d dimensions, corpus has %d", model.ErrEncodingFailure, len(vector), e.corpus.Dimensions()))
	}

	sum := 0.0
	for _, x := range vector {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, 0, helper.NewError("encode query", fmt.Errorf("%w: vector contains NaN or Inf", model.ErrEncodingFailure))
		}
		sum += f * f
	}
	if sum == 0 {
		return nil, 0, helper.NewError("encode query", fmt.Errorf("%w: zero vector", model.ErrEncodingFailure))
	}

	return vector, math.Sqrt(sum), nil
}
