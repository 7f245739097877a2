// Package store persists processed documents together with their fitted
// lexical index.
package store

import (
	"context"
	"fmt"
	"regexp"

	"docsearch/internal/domain"
	"docsearch/internal/lexical"
)

// Store persists documents and their fitted indexes by document name.
type Store interface {
	Save(ctx context.Context, doc *domain.Document, idx *lexical.Index) error
	Load(ctx context.Context, name string) (*domain.Document, *lexical.Index, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

var nameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidName reports whether name is usable as a storage key.
func ValidName(name string) bool {
	return len(name) <= 200 && nameRe.MatchString(name)
}

// NotFound builds the error returned for a missing document.
func NotFound(name string) error {
	return domain.StorageError("document "+name, domain.ErrNotFound)
}

// InvalidName builds the error returned for an unusable storage key.
func InvalidName(name string) error {
	return domain.StorageError("save", fmt.Errorf("invalid document name %q", name))
}
