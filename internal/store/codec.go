package store

import (
	"encoding/json"
	"fmt"

	"docsearch/internal/domain"
	"docsearch/internal/lexical"
)

// FormatVersion is bumped whenever the blob layout changes.
const FormatVersion = 1

type envelope struct {
	Version  int               `json:"version"`
	Document *domain.Document  `json:"document"`
	Index    *lexical.Snapshot `json:"index,omitempty"`
}

// Marshal serialises a document and, when given, its fitted index.
func Marshal(doc *domain.Document, idx *lexical.Index) ([]byte, error) {
	if doc == nil {
		return nil, domain.StorageError("marshal", fmt.Errorf("nil document"))
	}
	env := envelope{Version: FormatVersion, Document: doc}
	if idx != nil {
		env.Index = idx.Snapshot()
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, domain.StorageError("marshal "+doc.Filename, err)
	}
	return data, nil
}

// Unmarshal restores a document and its index. The index is nil when the blob
// carries none; callers rebuild it from the chunks.
func Unmarshal(data []byte) (*domain.Document, *lexical.Index, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, domain.StorageError("unmarshal", err)
	}
	if env.Version != FormatVersion {
		return nil, nil, domain.StorageError("unmarshal", fmt.Errorf("unsupported format version %d", env.Version))
	}
	if env.Document == nil {
		return nil, nil, domain.StorageError("unmarshal", fmt.Errorf("blob has no document"))
	}
	for i, ch := range env.Document.Chunks {
		if ch.ID != i {
			return nil, nil, domain.StorageError("unmarshal", fmt.Errorf("chunk %d has id %d", i, ch.ID))
		}
	}
	if env.Index == nil {
		return env.Document, nil, nil
	}
	idx, err := lexical.FromSnapshot(env.Index)
	if err != nil {
		return nil, nil, domain.StorageError("unmarshal index", err)
	}
	if idx.Len() != len(env.Document.Chunks) {
		return nil, nil, domain.StorageError("unmarshal index",
			fmt.Errorf("index covers %d chunks, document has %d", idx.Len(), len(env.Document.Chunks)))
	}
	return env.Document, idx, nil
}
