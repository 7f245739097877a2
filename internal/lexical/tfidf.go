// Package lexical builds TF-IDF term-weight indexes over a document's chunks
// and scores free-text queries against them by cosine similarity.
package lexical

import (
	"fmt"
	"math"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"docsearch/internal/domain"
)

// Options controls vocabulary construction.
type Options struct {
	// MaxFeatures caps the vocabulary; the most frequent features are kept.
	MaxFeatures int `json:"max_features" yaml:"max_features"`
	// MinDF is the minimum number of chunks a feature must occur in.
	MinDF int `json:"min_df" yaml:"min_df"`
	// MaxDF is the maximum share of chunks a feature may occur in.
	MaxDF float64 `json:"max_df" yaml:"max_df"`
	// Workers bounds build parallelism; 0 means GOMAXPROCS.
	Workers int `json:"-" yaml:"workers"`
}

func DefaultOptions() Options {
	return Options{MaxFeatures: 5000, MinDF: 1, MaxDF: 0.95}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxFeatures <= 0 {
		o.MaxFeatures = d.MaxFeatures
	}
	if o.MinDF <= 0 {
		o.MinDF = d.MinDF
	}
	if o.MaxDF <= 0 || o.MaxDF > 1 {
		o.MaxDF = d.MaxDF
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`)

// Index is a fitted vocabulary plus one L2-normalised weight vector per chunk.
// It is immutable once built and safe for concurrent reads.
type Index struct {
	opts       Options
	vocabulary map[string]int
	terms      []string
	idf        []float64
	vectors    []sparseVector
}

type sparseVector struct {
	indices []int
	values  []float64
}

// TermWeight pairs a vocabulary term with a weight.
type TermWeight struct {
	Term   string  `json:"term"`
	Weight float64 `json:"score"`
}

// Build fits a vocabulary over texts and weights every text against it.
// Position i of the index corresponds to texts[i].
func Build(texts []string, opts Options) (*Index, error) {
	if len(texts) == 0 {
		return nil, domain.IndexError("cannot build index", domain.ErrEmptyCorpus)
	}
	opts = opts.withDefaults()

	counts := make([]map[string]int, len(texts))
	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i := range texts {
		i := i
		g.Go(func() error {
			counts[i] = featureCounts(texts[i])
			return nil
		})
	}
	_ = g.Wait()

	df := make(map[string]int)
	total := make(map[string]int)
	for _, c := range counts {
		for term, n := range c {
			df[term]++
			total[term] += n
		}
	}

	n := len(texts)
	maxDocs := opts.MaxDF * float64(n)
	kept := make([]string, 0, len(df))
	for term, d := range df {
		if d < opts.MinDF {
			continue
		}
		// a single chunk holds every term, so the ceiling would empty the vocabulary
		if n > 1 && float64(d) > maxDocs {
			continue
		}
		kept = append(kept, term)
	}
	if len(kept) > opts.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if total[kept[i]] != total[kept[j]] {
				return total[kept[i]] > total[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:opts.MaxFeatures]
	}
	if len(kept) == 0 {
		return nil, domain.IndexError("cannot build index", domain.ErrEmptyVocabulary)
	}
	sort.Strings(kept)

	idx := &Index{
		opts:       opts,
		vocabulary: make(map[string]int, len(kept)),
		terms:      kept,
		idf:        make([]float64, len(kept)),
		vectors:    make([]sparseVector, n),
	}
	for i, term := range kept {
		idx.vocabulary[term] = i
		// Smoothed IDF
		idx.idf[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1.0
	}

	var wg errgroup.Group
	wg.SetLimit(opts.Workers)
	for i := range counts {
		i := i
		wg.Go(func() error {
			idx.vectors[i] = idx.weigh(counts[i])
			return nil
		})
	}
	_ = wg.Wait()
	return idx, nil
}

// Len returns the number of indexed chunks.
func (x *Index) Len() int { return len(x.vectors) }

// VocabularySize returns the number of features.
func (x *Index) VocabularySize() int { return len(x.terms) }

// Terms returns the features in column order.
func (x *Index) Terms() []string { return append([]string(nil), x.terms...) }

func (x *Index) Options() Options { return x.opts }

// Similarity scores query against every chunk. The result is indexed by
// chunk position and is not sorted. Out-of-vocabulary terms are ignored; a
// query with no known terms scores 0 everywhere.
func (x *Index) Similarity(query string) []float64 {
	q := x.weigh(featureCounts(query))
	scores := make([]float64, len(x.vectors))
	if len(q.indices) == 0 {
		return scores
	}
	dense := make(map[int]float64, len(q.indices))
	for k, col := range q.indices {
		dense[col] = q.values[k]
	}
	for i, v := range x.vectors {
		scores[i] = clamp(dotDense(v, dense))
	}
	return scores
}

// SimilarTo scores chunk pos against every chunk. The chunk's own score is
// forced to -1 so it never passes a non-negative floor.
func (x *Index) SimilarTo(pos int) ([]float64, error) {
	if pos < 0 || pos >= len(x.vectors) {
		return nil, fmt.Errorf("chunk position %d out of range [0,%d)", pos, len(x.vectors))
	}
	ref := x.vectors[pos]
	dense := make(map[int]float64, len(ref.indices))
	for k, col := range ref.indices {
		dense[col] = ref.values[k]
	}
	scores := make([]float64, len(x.vectors))
	for i, v := range x.vectors {
		scores[i] = clamp(dotDense(v, dense))
	}
	scores[pos] = -1
	return scores, nil
}

// MeanWeights returns each feature's weight averaged over all chunks, in
// column order.
func (x *Index) MeanWeights() []float64 {
	means := make([]float64, len(x.terms))
	if len(x.vectors) == 0 {
		return means
	}
	for _, v := range x.vectors {
		for k, col := range v.indices {
			means[col] += v.values[k]
		}
	}
	for i := range means {
		means[i] /= float64(len(x.vectors))
	}
	return means
}

// TopTerms returns the n features with the highest mean weight.
func (x *Index) TopTerms(n int) []TermWeight {
	means := x.MeanWeights()
	out := make([]TermWeight, len(means))
	for i, m := range means {
		out[i] = TermWeight{Term: x.terms[i], Weight: m}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

func (x *Index) weigh(counts map[string]int) sparseVector {
	var v sparseVector
	for term := range counts {
		col, ok := x.vocabulary[term]
		if !ok {
			continue
		}
		v.indices = append(v.indices, col)
	}
	sort.Ints(v.indices)
	v.values = make([]float64, len(v.indices))
	norm := 0.0
	for k, col := range v.indices {
		w := float64(counts[x.terms[col]]) * x.idf[col]
		v.values[k] = w
		norm += w * w
	}
	// L2 normalize
	norm = math.Sqrt(norm)
	if norm > 0 {
		for k := range v.values {
			v.values[k] /= norm
		}
	}
	return v
}

// featureCounts tokenizes text and counts unigrams and adjacent bigrams.
func featureCounts(text string) map[string]int {
	tokens := tokenize(text)
	counts := make(map[string]int, 2*len(tokens))
	for i, tok := range tokens {
		counts[tok]++
		if i+1 < len(tokens) {
			counts[tok+" "+tokens[i+1]]++
		}
	}
	return counts
}

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func dotDense(v sparseVector, dense map[int]float64) float64 {
	sum := 0.0
	for k, col := range v.indices {
		if w, ok := dense[col]; ok {
			sum += v.values[k] * w
		}
	}
	return sum
}

func clamp(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < 0 {
		return 0
	}
	return s
}
