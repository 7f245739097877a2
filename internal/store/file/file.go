package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"docsearch/internal/domain"
	"docsearch/internal/lexical"
	"docsearch/internal/store"
)

const (
	blobExt  = ".json"
	lockName = ".docsearch.lock"
)

// Storage keeps one JSON blob per document in a directory. Writers hold an
// exclusive file lock so several processes can share the directory; blobs are
// replaced by rename, so readers never see a partial write.
type Storage struct {
	mu   sync.RWMutex
	dir  string
	lock *flock.Flock
}

// NewStorage creates dir if needed.
func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.StorageError("create "+dir, err)
	}
	return &Storage{dir: dir, lock: flock.New(filepath.Join(dir, lockName))}, nil
}

func (s *Storage) path(name string) string { return filepath.Join(s.dir, name+blobExt) }

func (s *Storage) Save(ctx context.Context, doc *domain.Document, idx *lexical.Index) error {
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
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return domain.StorageError("lock "+s.dir, err)
	}
	defer func() { _ = s.lock.Unlock() }()

	tmp, err := os.CreateTemp(s.dir, doc.Filename+".*.tmp")
	if err != nil {
		return domain.StorageError("save "+doc.Filename, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return domain.StorageError("save "+doc.Filename, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return domain.StorageError("save "+doc.Filename, err)
	}
	if err := os.Rename(tmpName, s.path(doc.Filename)); err != nil {
		_ = os.Remove(tmpName)
		return domain.StorageError("save "+doc.Filename, err)
	}
	return nil
}

func (s *Storage) Load(_ context.Context, name string) (*domain.Document, *lexical.Index, error) {
	if !store.ValidName(name) {
		return nil, nil, store.NotFound(name)
	}
	s.mu.RLock()
	data, err := os.ReadFile(s.path(name))
	s.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, store.NotFound(name)
		}
		return nil, nil, domain.StorageError("load "+name, err)
	}
	return store.Unmarshal(data)
}

func (s *Storage) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, domain.StorageError("list "+s.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), blobExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), blobExt))
	}
	sort.Strings(names)
	return names, nil
}

func (s *Storage) Delete(_ context.Context, name string) error {
	if !store.ValidName(name) {
		return store.NotFound(name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return domain.StorageError("lock "+s.dir, err)
	}
	defer func() { _ = s.lock.Unlock() }()
	if err := os.Remove(s.path(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return store.NotFound(name)
		}
		return domain.StorageError(fmt.Sprintf("delete %s", name), err)
	}
	return nil
}

func (s *Storage) Close() error { return s.lock.Close() }
