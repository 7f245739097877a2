package domain

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Chunk is one overlapping window of a document's cleaned text.
// Chunks are created once by the chunker and never mutated.
type Chunk struct {
	ID         int    `json:"id"`
	Text       string `json:"text"`
	PageNumber *int   `json:"page_number,omitempty"`
	WordCount  int    `json:"word_count"`
}

// NewChunk builds a chunk and derives its word count from the text.
func NewChunk(id int, text string, page *int) Chunk {
	return Chunk{ID: id, Text: text, PageNumber: page, WordCount: len(strings.Fields(text))}
}

// Document is a processed upload: its ordered chunks plus aggregate metadata.
// Chunks[i].ID == i always holds.
type Document struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Chunks      []Chunk   `json:"chunks"`
	TotalPages  int       `json:"total_pages"`
	ProcessedAt time.Time `json:"processed_at"`
	Summary     string    `json:"summary,omitempty"`
}

func (d *Document) ChunkCount() int { return len(d.Chunks) }

func (d *Document) TotalWords() int {
	total := 0
	for _, ch := range d.Chunks {
		total += ch.WordCount
	}
	return total
}

// Texts returns the chunk texts in chunk id order.
func (d *Document) Texts() []string {
	out := make([]string, len(d.Chunks))
	for i, ch := range d.Chunks {
		out[i] = ch.Text
	}
	return out
}

// ChunkByID looks a chunk up by its id.
func (d *Document) ChunkByID(id int) (Chunk, bool) {
	if id < 0 || id >= len(d.Chunks) {
		return Chunk{}, false
	}
	return d.Chunks[id], true
}

// Info summarises the document for display layers.
func (d *Document) Info() DocumentInfo {
	return DocumentInfo{
		ID:          d.ID,
		Filename:    d.Filename,
		ChunkCount:  d.ChunkCount(),
		TotalWords:  d.TotalWords(),
		TotalPages:  d.TotalPages,
		ProcessedAt: d.ProcessedAt.Format("2006-01-02 15:04:05"),
		Summary:     d.Summary,
	}
}

// DocumentInfo is the flat, render-ready view of a Document.
type DocumentInfo struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ChunkCount  int    `json:"chunk_count"`
	TotalWords  int    `json:"total_words"`
	TotalPages  int    `json:"total_pages"`
	ProcessedAt string `json:"processed_at"`
	Summary     string `json:"summary,omitempty"`
}

// IndexStats describes the active document and its fitted index.
type IndexStats struct {
	Document       DocumentInfo `json:"document"`
	VocabularySize int          `json:"vectorizer_features"`
	IndexedAt      time.Time    `json:"indexed_at"`
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	ChunkID    int     `json:"chunk_id"`
	Text       string  `json:"text"`
	PageNumber *int    `json:"page_number,omitempty"`
	Score      float64 `json:"similarity_score"`
	Rank       int     `json:"rank"`
}

// Confidence maps the score to a coarse label for display.
func (r SearchResult) Confidence() string {
	switch {
	case r.Score >= 0.7:
		return "High"
	case r.Score >= 0.4:
		return "Medium"
	default:
		return "Low"
	}
}

// Preview returns at most maxLen characters of the text, cut back to the
// last word boundary and suffixed with "..." when shortened.
func (r SearchResult) Preview(maxLen int) string {
	runes := []rune(r.Text)
	if maxLen <= 0 || len(runes) <= maxLen {
		return r.Text
	}
	cut := string(runes[:maxLen])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

// SearchResponse is the ranked answer to one query.
type SearchResponse struct {
	Query      string         `json:"query"`
	Results    []SearchResult `json:"results"`
	TotalFound int            `json:"total_found"`
	SearchTime time.Duration  `json:"-"`
}

// MarshalJSON adds search_time in seconds, rounded to the millisecond.
func (r SearchResponse) MarshalJSON() ([]byte, error) {
	type plain SearchResponse
	return json.Marshal(struct {
		plain
		SearchTime float64 `json:"search_time"`
	}{plain(r), math.Round(r.SearchTime.Seconds()*1000) / 1000})
}

func (r *SearchResponse) HasResults() bool { return len(r.Results) > 0 }

// Top returns the first n results.
func (r *SearchResponse) Top(n int) []SearchResult {
	if n < 0 || n > len(r.Results) {
		n = len(r.Results)
	}
	return r.Results[:n]
}

// SimilarChunk is a chunk related to a reference chunk of the same document.
type SimilarChunk struct {
	ChunkID    int     `json:"chunk_id"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// Extraction is raw text pulled out of an uploaded file, annotated with page
// markers, plus the file's page count.
type Extraction struct {
	Text      string
	PageCount int
}

// Extractor pulls plain text out of a file on disk.
type Extractor interface {
	Extract(ctx context.Context, path string) (Extraction, error)
}

// Chunker splits extracted text into ordered chunks.
type Chunker interface {
	Chunk(rawText string) ([]Chunk, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// SearchService defines the operations exposed by the application core.
type SearchService interface {
	IndexDocument(doc *Document) error
	Search(query string, maxResults int, minSimilarity float64) (*SearchResponse, error)
}
