package corpus

import (
	"math"
	"strings"
)

// BM25 parameters, the Okapi defaults.
const (
	DefaultK1      = 1.5
	DefaultB       = 0.75
	DefaultEpsilon = 0.25
)

// Tokenize splits text on whitespace. Index and queries must use the same
// tokenizer, so this is the only one.
func Tokenize(text string) []string {
	return strings.Fields(text)
}

type posting struct {
	doc int
	tf  int
}

// LexicalIndex is an Okapi BM25 index over the corpus in corpus order.
type LexicalIndex struct {
	k1      float64
	b       float64
	docLens []int
	avgdl   float64
	idf     map[string]float64
	index   map[string][]posting
}

// NewLexicalIndex builds a BM25 index over tokenized documents.
// Terms whose idf would be negative (present in more than half of the
// documents) get epsilon times the average idf instead.
func NewLexicalIndex(docs [][]string) *LexicalIndex {
	ix := &LexicalIndex{
		k1:      DefaultK1,
		b:       DefaultB,
		docLens: make([]int, len(docs)),
		idf:     make(map[string]float64),
		index:   make(map[string][]posting),
	}

	total := 0
	for i, tokens := range docs {
		ix.docLens[i] = len(tokens)
		total += len(tokens)

		freqs := make(map[string]int)
		order := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			if freqs[tok] == 0 {
				order = append(order, tok)
			}
			freqs[tok]++
		}
		for _, tok := range order {
			ix.index[tok] = append(ix.index[tok], posting{doc: i, tf: freqs[tok]})
		}
	}
	if len(docs) > 0 {
		ix.avgdl = float64(total) / float64(len(docs))
	}

	n := float64(len(docs))
	idfSum := 0.0
	var negative []string
	for term, postings := range ix.index {
		df := float64(len(postings))
		idf := math.Log(n-df+0.5) - math.Log(df+0.5)
		ix.idf[term] = idf
		idfSum += idf
		if idf < 0 {
			negative = append(negative, term)
		}
	}
	if len(ix.idf) > 0 {
		eps := DefaultEpsilon * idfSum / float64(len(ix.idf))
		for _, term := range negative {
			ix.idf[term] = eps
		}
	}

	return ix
}

// Len is the number of indexed documents.
func (ix *LexicalIndex) Len() int {
	return len(ix.docLens)
}

// Scores returns one BM25 score per document in corpus order. Repeated query
// tokens count once per occurrence.
func (ix *LexicalIndex) Scores(tokens []string) []float64 {
	scores := make([]float64, len(ix.docLens))
	if ix.avgdl == 0 {
		return scores
	}

	for _, tok := range tokens {
		idf, ok := ix.idf[tok]
		if !ok {
			continue
		}
		for _, p := range ix.index[tok] {
			tf := float64(p.tf)
			norm := 1 - ix.b + ix.b*float64(ix.docLens[p.doc])/ix.avgdl
			scores[p.doc] += idf * (tf * (ix.k1 + 1)) / (tf + ix.k1*norm)
		}
	}

	return scores
}
