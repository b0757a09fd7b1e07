package model

import "time"

// RetrievalResult represents a chunk ranked by the hybrid scorer
type RetrievalResult struct {
	Chunk    *Chunk  `json:"chunk"`
	Index    int     `json:"index"`    // Position in the corpus
	Combined float64 `json:"combined"` // Fused score in [0, 1]
	Lexical  float64 `json:"lexical"`  // Max-normalized BM25 score
	Semantic float64 `json:"semantic"` // Cosine similarity rescaled to [0, 1]
}

// RetrievedChunk is the debug view of a retrieval result.
type RetrievedChunk struct {
	ChunkID   string  `json:"chunk_id" yaml:"chunk_id"`
	ThreadID  string  `json:"thread_id" yaml:"thread_id"`
	MessageID string  `json:"message_id" yaml:"message_id"`
	PageNo    *int    `json:"page_no" yaml:"page_no"`
	Source    Source  `json:"source" yaml:"source"`
	Lexical   float64 `json:"score_lexical" yaml:"score_lexical"`
	Semantic  float64 `json:"score_semantic" yaml:"score_semantic"`
	Combined  float64 `json:"score_combined" yaml:"score_combined"`
}

// NewRetrievedChunk converts a retrieval result for debug output.
func NewRetrievedChunk(r *RetrievalResult) RetrievedChunk {
	return RetrievedChunk{
		ChunkID:   r.Chunk.ChunkID,
		ThreadID:  r.Chunk.ThreadID,
		MessageID: r.Chunk.MessageID,
		PageNo:    r.Chunk.PageNo,
		Source:    r.Chunk.Source,
		Lexical:   r.Lexical,
		Semantic:  r.Semantic,
		Combined:  r.Combined,
	}
}

// DebugInfo exposes how an answer was produced.
type DebugInfo struct {
	RewrittenQuery string           `json:"rewritten_query" yaml:"rewritten_query"`
	Retrieved      []RetrievedChunk `json:"retrieved" yaml:"retrieved"`
	TraceID        string           `json:"trace_id" yaml:"trace_id"`
	Latency        time.Duration    `json:"latency" yaml:"latency"`
}

// AskResult is the output of one conversational turn.
type AskResult struct {
	Answer    string     `json:"answer" yaml:"answer"`
	Citations []Citation `json:"citations" yaml:"citations"`
	Debug     DebugInfo  `json:"debug" yaml:"debug"`
}

// TraceRecord is the append-only log line written for every ask.
type TraceRecord struct {
	TraceID        string           `json:"trace_id"`
	SessionID      string           `json:"session_id"`
	ThreadID       string           `json:"thread_id"`
	Question       string           `json:"question"`
	RewrittenQuery string           `json:"rewritten_query"`
	Retrieved      []RetrievedChunk `json:"retrieved"`
	Answer         string           `json:"answer"`
	Citations      []Citation       `json:"citations"`
	Timestamp      time.Time        `json:"timestamp"`
	LatencyMS      float64          `json:"latency_ms"`
}
