package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"docsearch/internal/chunker"
	"docsearch/internal/domain"
)

var pdfHeader = []byte("%PDF-")

// PDF extracts text page by page and annotates each page with a page marker.
type PDF struct {
	logger *slog.Logger
}

func NewPDF(logger *slog.Logger) *PDF {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDF{logger: logger}
}

// Validate checks that path is a readable, non-empty PDF with at least one page.
func (p *PDF) Validate(path string) error {
	_, err := p.open(path, func(*pdf.Reader) error { return nil })
	return err
}

func (p *PDF) Extract(ctx context.Context, path string) (domain.Extraction, error) {
	var b strings.Builder
	pages, err := p.open(path, func(r *pdf.Reader) error {
		for i := 1; i <= r.NumPage(); i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := pageText(r, i)
			if err != nil {
				p.logger.Warn("skipping unreadable page", "file", filepath.Base(path), "page", i, "error", err)
				continue
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			fmt.Fprintf(&b, "\n%s\n%s\n", chunker.PageMarker(i), text)
		}
		return nil
	})
	if err != nil {
		return domain.Extraction{}, err
	}
	return domain.Extraction{Text: b.String(), PageCount: pages}, nil
}

// open validates the file and hands a reader to fn, returning the page count.
func (p *PDF) open(path string, fn func(*pdf.Reader) error) (pages int, err error) {
	name := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		return 0, domain.ProcessingError("file not found: "+name, err)
	}
	if info.Size() == 0 {
		return 0, domain.ProcessingError("file is empty: "+name, nil)
	}
	if err := checkHeader(path); err != nil {
		return 0, err
	}

	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = domain.ProcessingError("invalid PDF "+name, fmt.Errorf("%v", r))
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, domain.ProcessingError("invalid PDF "+name, err)
	}
	defer f.Close()

	pages = r.NumPage()
	if pages == 0 {
		return 0, domain.ProcessingError("PDF has no pages: "+name, nil)
	}
	if err := fn(r); err != nil {
		return 0, domain.ProcessingError("read PDF "+name, err)
	}
	return pages, nil
}

func checkHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return domain.ProcessingError("open "+filepath.Base(path), err)
	}
	defer f.Close()
	head := make([]byte, 8)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return domain.ProcessingError("read "+filepath.Base(path), err)
	}
	if !bytes.HasPrefix(head[:n], pdfHeader) {
		return domain.ProcessingError("not a PDF file: "+filepath.Base(path), nil)
	}
	return nil
}

func pageText(r *pdf.Reader, i int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("page %d: %v", i, rec)
		}
	}()
	page := r.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
