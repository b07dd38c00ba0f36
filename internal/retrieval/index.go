package retrieval

import (
	"fmt"
	"math"
	"sort"

	"github.com/dgallion1/brandgest/internal/questionnaire"
)

// Document is one retrievable unit: a single questionnaire record.
type Document struct {
	ID       string `json:"id"`
	Index    int    `json:"index"`
	Question string `json:"question"`
	Content  string `json:"content"`
}

// Hit is a search result with its cosine similarity to the query.
type Hit struct {
	Document
	Score float64 `json:"score"`
}

// Index is an in-memory TF-IDF vector index. It is immutable after
// construction and safe for concurrent searches.
type Index struct {
	docs    []Document
	vectors []map[string]float64
	norms   []float64
	idf     map[string]float64
}

// NewIndex embeds every record as one document.
func NewIndex(records []questionnaire.Record) *Index {
	ix := &Index{
		docs:    make([]Document, len(records)),
		vectors: make([]map[string]float64, len(records)),
		norms:   make([]float64, len(records)),
		idf:     make(map[string]float64),
	}

	termFreqs := make([]map[string]float64, len(records))
	docFreq := make(map[string]int)
	for i, r := range records {
		ix.docs[i] = Document{
			ID:       fmt.Sprintf("doc_%d", i),
			Index:    i,
			Question: r.Question,
			Content:  r.Question + "\n" + r.Answer + "\n\n",
		}
		tf := termFrequencies(Tokenize(ix.docs[i].Content))
		termFreqs[i] = tf
		for term := range tf {
			docFreq[term]++
		}
	}

	n := float64(len(records))
	for term, df := range docFreq {
		ix.idf[term] = math.Log(1 + n/float64(df))
	}

	for i, tf := range termFreqs {
		ix.vectors[i], ix.norms[i] = ix.weigh(tf)
	}
	return ix
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	return len(ix.docs)
}

// Search returns up to k documents ranked by cosine similarity to query.
// Ties keep document order. Like a vector store, it always fills k slots
// when enough documents exist, even if nothing overlaps the query.
func (ix *Index) Search(query string, k int) []Hit {
	if k <= 0 || len(ix.docs) == 0 {
		return nil
	}
	if k > len(ix.docs) {
		k = len(ix.docs)
	}

	qvec, qnorm := ix.weigh(termFrequencies(Tokenize(query)))

	hits := make([]Hit, len(ix.docs))
	for i, doc := range ix.docs {
		hits[i] = Hit{Document: doc, Score: cosine(qvec, qnorm, ix.vectors[i], ix.norms[i])}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	return hits[:k]
}

func (ix *Index) weigh(tf map[string]float64) (map[string]float64, float64) {
	vec := make(map[string]float64, len(tf))
	var sum float64
	for term, f := range tf {
		idf, ok := ix.idf[term]
		if !ok {
			continue
		}
		w := f * idf
		vec[term] = w
		sum += w * w
	}
	return vec, math.Sqrt(sum)
}

func termFrequencies(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}

func cosine(a map[string]float64, anorm float64, b map[string]float64, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	var dot float64
	for term, w := range a {
		dot += w * b[term]
	}
	return dot / (anorm * bnorm)
}
