package model

// QueryConfig represents configuration for a retrieval query
type QueryConfig struct {
	// Number of chunks returned by the scorer
	TopK int `json:"top_k"`

	// Search the whole corpus instead of the session's thread
	SearchOutsideThread bool `json:"search_outside_thread"`

	// Fusion weights, fixed policy constants (not learned)
	LexicalWeight  float64 `json:"lexical_weight"`
	SemanticWeight float64 `json:"semantic_weight"`

	// The answer falls back to "no clear answer" unless the best combined
	// score is strictly above MinRelevance
	MinRelevance float64 `json:"min_relevance"`

	// Maximum snippet length in runes per answer bullet, 0 keeps full text
	SnippetLimit int `json:"snippet_limit,omitempty"`
}

// DefaultQueryConfig returns a sensible default configuration
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TopK:                8,
		SearchOutsideThread: false,
		LexicalWeight:       0.6,
		SemanticWeight:      0.4,
		MinRelevance:        0.2,
		SnippetLimit:        0,
	}
}
