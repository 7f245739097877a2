// Package storetest holds the behaviour every store.Store must satisfy.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/internal/domain"
	"docsearch/internal/lexical"
	"docsearch/internal/store"
)

// Fixture returns a small document and its fitted index.
func Fixture(t *testing.T, name string) (*domain.Document, *lexical.Index) {
	t.Helper()
	page := 2
	doc := &domain.Document{
		ID:          "doc-" + name,
		Filename:    name,
		TotalPages:  3,
		ProcessedAt: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
		Summary:     "Fruit facts.",
		Chunks: []domain.Chunk{
			domain.NewChunk(0, "apple banana", nil),
			domain.NewChunk(1, "banana cherry", &page),
			domain.NewChunk(2, "cherry date", &page),
		},
	}
	idx, err := lexical.Build(doc.Texts(), lexical.DefaultOptions())
	require.NoError(t, err)
	return doc, idx
}

// Run exercises a store created by open.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("save and load round trip", func(t *testing.T) {
		s := open(t)
		doc, idx := Fixture(t, "fruit")

		require.NoError(t, s.Save(ctx, doc, idx))
		got, gotIdx, err := s.Load(ctx, "fruit")
		require.NoError(t, err)
		require.NotNil(t, gotIdx)

		assert.Equal(t, doc.Chunks, got.Chunks)
		assert.Equal(t, doc.Filename, got.Filename)
		assert.Equal(t, doc.TotalPages, got.TotalPages)
		assert.True(t, doc.ProcessedAt.Equal(got.ProcessedAt))
		assert.Equal(t, idx.Similarity("banana"), gotIdx.Similarity("banana"))
	})

	t.Run("save without index", func(t *testing.T) {
		s := open(t)
		doc, _ := Fixture(t, "bare")

		require.NoError(t, s.Save(ctx, doc, nil))
		got, gotIdx, err := s.Load(ctx, "bare")
		require.NoError(t, err)
		assert.Nil(t, gotIdx)
		assert.Len(t, got.Chunks, 3)
	})

	t.Run("save replaces", func(t *testing.T) {
		s := open(t)
		doc, idx := Fixture(t, "fruit")
		require.NoError(t, s.Save(ctx, doc, idx))

		doc.Chunks = doc.Chunks[:2]
		idx2, err := lexical.Build(doc.Texts(), lexical.DefaultOptions())
		require.NoError(t, err)
		require.NoError(t, s.Save(ctx, doc, idx2))

		got, _, err := s.Load(ctx, "fruit")
		require.NoError(t, err)
		assert.Len(t, got.Chunks, 2)
	})

	t.Run("load missing", func(t *testing.T) {
		s := open(t)
		_, _, err := s.Load(ctx, "missing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("invalid name", func(t *testing.T) {
		s := open(t)
		doc, idx := Fixture(t, "../escape")
		err := s.Save(ctx, doc, idx)
		require.Error(t, err)
		assert.Equal(t, domain.KindStorage, domain.KindOf(err))
	})

	t.Run("list and delete", func(t *testing.T) {
		s := open(t)
		for _, name := range []string{"beta", "alpha"} {
			doc, idx := Fixture(t, name)
			require.NoError(t, s.Save(ctx, doc, idx))
		}

		names, err := s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "beta"}, names)

		require.NoError(t, s.Delete(ctx, "alpha"))
		names, err = s.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"beta"}, names)

		err = s.Delete(ctx, "alpha")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}
