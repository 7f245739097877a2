package lexical

import (
	"fmt"
	"sort"
)

// Snapshot is the serialisable state of a fitted Index.
type Snapshot struct {
	Options Options          `json:"options"`
	Terms   []string         `json:"terms"`
	IDF     []float64        `json:"idf"`
	Vectors []SnapshotVector `json:"vectors"`
}

// SnapshotVector is one chunk's sparse weight vector.
type SnapshotVector struct {
	Indices []int     `json:"i"`
	Values  []float64 `json:"v"`
}

// Snapshot captures the index so that FromSnapshot reproduces it exactly.
func (x *Index) Snapshot() *Snapshot {
	s := &Snapshot{
		Options: x.opts,
		Terms:   append([]string(nil), x.terms...),
		IDF:     append([]float64(nil), x.idf...),
		Vectors: make([]SnapshotVector, len(x.vectors)),
	}
	for i, v := range x.vectors {
		s.Vectors[i] = SnapshotVector{
			Indices: append([]int{}, v.indices...),
			Values:  append([]float64{}, v.values...),
		}
	}
	return s
}

// FromSnapshot restores an Index, validating its shape.
func FromSnapshot(s *Snapshot) (*Index, error) {
	if s == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	if len(s.Terms) != len(s.IDF) {
		return nil, fmt.Errorf("snapshot has %d terms but %d idf values", len(s.Terms), len(s.IDF))
	}
	if !sort.StringsAreSorted(s.Terms) {
		return nil, fmt.Errorf("snapshot terms are not sorted")
	}
	x := &Index{
		opts:       s.Options.withDefaults(),
		vocabulary: make(map[string]int, len(s.Terms)),
		terms:      append([]string(nil), s.Terms...),
		idf:        append([]float64(nil), s.IDF...),
		vectors:    make([]sparseVector, len(s.Vectors)),
	}
	for i, term := range x.terms {
		x.vocabulary[term] = i
	}
	for i, v := range s.Vectors {
		if len(v.Indices) != len(v.Values) {
			return nil, fmt.Errorf("vector %d: %d indices but %d values", i, len(v.Indices), len(v.Values))
		}
		for _, col := range v.Indices {
			if col < 0 || col >= len(x.terms) {
				return nil, fmt.Errorf("vector %d: column %d out of range", i, col)
			}
		}
		x.vectors[i] = sparseVector{
			indices: append([]int{}, v.Indices...),
			values:  append([]float64{}, v.Values...),
		}
	}
	return x, nil
}
