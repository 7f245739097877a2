// Package extract pulls text out of uploaded files.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docsearch/internal/domain"
)

// ForPath picks an extractor by file extension.
func ForPath(path string) (domain.Extractor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return NewPDF(nil), nil
	case ".txt", ".md", ".text":
		return PlainText{}, nil
	default:
		return nil, domain.ValidationError(fmt.Sprintf("unsupported file type %q", filepath.Ext(path)))
	}
}

// Auto dispatches to the extractor matching each path's extension.
type Auto struct{}

func (Auto) Extract(ctx context.Context, path string) (domain.Extraction, error) {
	ex, err := ForPath(path)
	if err != nil {
		return domain.Extraction{}, err
	}
	return ex.Extract(ctx, path)
}

// PlainText reads a UTF-8 text file as a single page.
type PlainText struct{}

func (PlainText) Extract(ctx context.Context, path string) (domain.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return domain.Extraction{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Extraction{}, domain.ProcessingError("read "+filepath.Base(path), err)
	}
	if len(data) == 0 {
		return domain.Extraction{}, domain.ProcessingError("file is empty", nil)
	}
	return domain.Extraction{Text: string(data), PageCount: 1}, nil
}
