package retrieval

// NormalizeLexical divides every score by the maximum. Negative scores are
// clamped to zero and an all-zero input stays all zero.
func NormalizeLexical(scores []float64) []float64 {
	normalized := make([]float64, len(scores))
	max := 0.0
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	if max <= 0 {
		return normalized
	}
	for i, s := range scores {
		if s > 0 {
			normalized[i] = s / max
		}
	}
	return normalized
}

// Semantic returns the cosine similarity of a and b rescaled from [-1, 1]
// to [0, 1]. A zero norm on the chunk side yields the neutral 0.5.
func Semantic(a []float32, normA float64, b []float32, normB float64) float64 {
	cosine := 0.0
	if normA > 0 && normB > 0 {
		dot := 0.0
		for i := range a {
			dot += float64(a[i]) * float64(b[i])
		}
		cosine = dot / (normA * normB)
	}
	return clamp((cosine + 1) / 2)
}

// Fuse combines the two normalised signals as a weighted mean, so the result
// stays in [0, 1] for any non-negative weights. Weights summing to zero give 0.
func Fuse(lexical, semantic, lexicalWeight, semanticWeight float64) float64 {
	total := lexicalWeight + semanticWeight
	if total <= 0 {
		return 0
	}
	return clamp((lexicalWeight*lexical + semanticWeight*semantic) / total)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
