package memory

import (
	"context"
	"sort"
	"sync"

	"docsearch/internal/domain"
	"docsearch/internal/lexical"
	"docsearch/internal/store"
)

// Storage is an in-process store. Documents are kept as serialised blobs so
// callers never share state with what was saved.
type Storage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewStorage() *Storage { return &Storage{blobs: make(map[string][]byte)} }

func (s *Storage) Save(_ context.Context, doc *domain.Document, idx *lexical.Index) error {
	if doc == nil {
		return store.InvalidName("")
	}
	if !store.ValidName(doc.Filename) {
		return store.InvalidName(doc.Filename)
	}
	data, err := store.Marshal(doc, idx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[doc.Filename] = data
	return nil
}

func (s *Storage) Load(_ context.Context, name string) (*domain.Document, *lexical.Index, error) {
	s.mu.RLock()
	data, ok := s.blobs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, store.NotFound(name)
	}
	return store.Unmarshal(data)
}

func (s *Storage) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.blobs))
	for name := range s.blobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Storage) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[name]; !ok {
		return store.NotFound(name)
	}
	delete(s.blobs, name)
	return nil
}

func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs = make(map[string][]byte)
	return nil
}
