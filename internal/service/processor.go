package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"docsearch/internal/chunker"
	"docsearch/internal/domain"
)

// Processor turns an uploaded file into a chunked document.
type Processor struct {
	extractor    domain.Extractor
	chunker      domain.Chunker
	summarizer   domain.Summarizer
	maxSentences int
	logger       *slog.Logger
}

// NewProcessor wires the processing pipeline. summarizer may be nil.
func NewProcessor(ex domain.Extractor, ch domain.Chunker, sum domain.Summarizer, maxSentences int, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{extractor: ex, chunker: ch, summarizer: sum, maxSentences: maxSentences, logger: logger}
}

// Process extracts, cleans and chunks the file at path; name becomes the
// document's filename.
func (p *Processor) Process(ctx context.Context, path, name string) (*domain.Document, error) {
	start := time.Now()
	ext, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return nil, domain.Wrap(domain.KindProcessing, err)
	}
	if strings.TrimSpace(chunker.Clean(ext.Text)) == "" {
		return nil, domain.ProcessingError("no text could be extracted from "+name, nil)
	}

	chunks, err := p.chunk(ext.Text)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, domain.ProcessingError("text produced no chunks", domain.ErrNoChunks)
	}

	doc := &domain.Document{
		ID:          uuid.NewString(),
		Filename:    name,
		Chunks:      chunks,
		TotalPages:  ext.PageCount,
		ProcessedAt: time.Now(),
	}
	if p.summarizer != nil {
		summary, err := p.summarizer.Summarize(chunker.Clean(ext.Text), p.maxSentences)
		if err != nil {
			p.logger.Warn("summary failed", "document", name, "error", err)
		} else {
			doc.Summary = summary
		}
	}

	p.logger.Info("document processed",
		"document", name,
		"pages", doc.TotalPages,
		"chunks", doc.ChunkCount(),
		"words", doc.TotalWords(),
		"elapsed", time.Since(start))
	return doc, nil
}

func (p *Processor) chunk(text string) (chunks []domain.Chunk, err error) {
	defer recoverInto("chunking", &err)
	chunks, err = p.chunker.Chunk(text)
	if err != nil {
		return nil, domain.Wrap(domain.KindProcessing, err)
	}
	return chunks, nil
}
