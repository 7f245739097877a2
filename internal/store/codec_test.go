package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsearch/internal/domain"
	"docsearch/internal/lexical"
)

func fixture(t *testing.T) (*domain.Document, *lexical.Index) {
	t.Helper()
	page := 1
	doc := &domain.Document{
		ID:       "d1",
		Filename: "fruit.pdf",
		Chunks: []domain.Chunk{
			domain.NewChunk(0, "apple banana", &page),
			domain.NewChunk(1, "banana cherry", &page),
			domain.NewChunk(2, "cherry date", nil),
		},
	}
	idx, err := lexical.Build(doc.Texts(), lexical.DefaultOptions())
	require.NoError(t, err)
	return doc, idx
}

func TestCodec_RoundTrip(t *testing.T) {
	doc, idx := fixture(t)

	data, err := Marshal(doc, idx)
	require.NoError(t, err)
	got, gotIdx, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, doc.Chunks, got.Chunks)
	require.NotNil(t, gotIdx)
	assert.Equal(t, idx.Similarity("banana cherry"), gotIdx.Similarity("banana cherry"))
}

func TestMarshal_NilDocument(t *testing.T) {
	_, err := Marshal(nil, nil)
	assert.Equal(t, domain.KindStorage, domain.KindOf(err))
}

func TestUnmarshal_Rejects(t *testing.T) {
	doc, idx := fixture(t)
	valid, err := Marshal(doc, idx)
	require.NoError(t, err)

	mutate := func(fn func(m map[string]any)) []byte {
		var m map[string]any
		require.NoError(t, json.Unmarshal(valid, &m))
		fn(m)
		out, err := json.Marshal(m)
		require.NoError(t, err)
		return out
	}

	tests := []struct {
		name string
		data []byte
	}{
		{name: "garbage", data: []byte("{")},
		{name: "future version", data: mutate(func(m map[string]any) { m["version"] = 99 })},
		{name: "no document", data: mutate(func(m map[string]any) { delete(m, "document") })},
		{name: "chunk ids out of order", data: mutate(func(m map[string]any) {
			chunks := m["document"].(map[string]any)["chunks"].([]any)
			chunks[0].(map[string]any)["id"] = 5
		})},
		{name: "index does not cover chunks", data: mutate(func(m map[string]any) {
			d := m["document"].(map[string]any)
			d["chunks"] = d["chunks"].([]any)[:2]
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Unmarshal(tt.data)
			require.Error(t, err)
			assert.Equal(t, domain.KindStorage, domain.KindOf(err))
		})
	}
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("report-2024.v2.pdf"))
	assert.False(t, ValidName(""))
	assert.False(t, ValidName(".hidden"))
	assert.False(t, ValidName("../etc/passwd"))
	assert.False(t, ValidName("a b.pdf"))
	assert.True(t, errors.Is(NotFound("x"), domain.ErrNotFound))
}
