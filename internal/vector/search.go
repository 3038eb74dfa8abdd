package vector

import (
	"math"
	"sort"
	"unicode/utf8"

	"tesisflow/internal/nlp"
	"tesisflow/internal/util"
)

// Match is one chunk ranked against a query.
type Match struct {
	Index int
	Text  string
	Score float64
}

// Index is an in-memory TF-IDF model over a fixed set of chunks. It is
// read-only after NewIndex and safe for concurrent Search calls.
type Index struct {
	chunks []string
	vecs   []map[string]float64
	norms  []float64
	idf    map[string]float64
}

func NewIndex(chunks []string) *Index {
	idx := &Index{
		chunks: chunks,
		vecs:   make([]map[string]float64, len(chunks)),
		norms:  make([]float64, len(chunks)),
		idf:    map[string]float64{},
	}
	tfs := make([]map[string]float64, len(chunks))
	df := map[string]int{}
	for i, c := range chunks {
		tfs[i] = termFrequencies(Terms(c))
		for t := range tfs[i] {
			df[t]++
		}
	}
	n := float64(len(chunks))
	for t, d := range df {
		idx.idf[t] = math.Log((1+n)/(1+float64(d))) + 1
	}
	for i, tf := range tfs {
		idx.vecs[i], idx.norms[i] = idx.weigh(tf)
	}
	return idx
}

// Len is the number of chunks. A nil index is empty.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.chunks)
}

// Search returns up to topK chunks with a positive cosine similarity to the
// query, best first. Ties keep chunk order.
func (idx *Index) Search(query string, topK int) []Match {
	if idx == nil || len(idx.chunks) == 0 {
		return nil
	}
	q, qnorm := idx.weigh(termFrequencies(Terms(query)))
	if qnorm == 0 {
		return nil
	}
	out := make([]Match, 0, len(idx.chunks))
	for i, v := range idx.vecs {
		if idx.norms[i] == 0 {
			continue
		}
		var dot float64
		for t, w := range q {
			dot += w * v[t]
		}
		if dot <= 0 {
			continue
		}
		out = append(out, Match{Index: i, Text: idx.chunks[i], Score: dot / (qnorm * idx.norms[i])})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

// Best returns the top chunk when its similarity exceeds threshold.
func (idx *Index) Best(query string, threshold float64) (Match, bool) {
	m := idx.Search(query, 1)
	if len(m) == 0 || m[0].Score <= threshold {
		return Match{}, false
	}
	return m[0], true
}

func (idx *Index) weigh(tf map[string]float64) (map[string]float64, float64) {
	out := make(map[string]float64, len(tf))
	var sum float64
	for t, f := range tf {
		w := f * idx.idf[t]
		if w == 0 {
			continue
		}
		out[t] = w
		sum += w * w
	}
	return out, math.Sqrt(sum)
}

// Terms folds accents and case and drops stopwords and words under three
// runes.
func Terms(s string) []string {
	toks := nlp.Tokenize(s)
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		w := nlp.Fold(t.Text)
		if utf8.RuneCountInString(w) < 3 || util.IsStopword(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func termFrequencies(terms []string) map[string]float64 {
	tf := make(map[string]float64, len(terms))
	if len(terms) == 0 {
		return tf
	}
	for _, t := range terms {
		tf[t]++
	}
	for t := range tf {
		tf[t] /= float64(len(terms))
	}
	return tf
}
