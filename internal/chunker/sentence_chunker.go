package chunker

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"docsearch/internal/domain"
)

const (
	DefaultChunkSize = 500
	DefaultOverlap   = 100
)

var (
	pageMarkerRe = regexp.MustCompile(`--- Page (\d+) ---`)
	whitespaceRe = regexp.MustCompile(`[\s\v\p{Z}]+`)
	terminatorRe = regexp.MustCompile(`[.!?]+`)
)

// PageMarker is the annotation extractors place before each page's text.
func PageMarker(page int) string { return fmt.Sprintf("--- Page %d ---", page) }

// Clean strips page markers, collapses whitespace runs to one space and trims.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}
	text := pageMarkerRe.ReplaceAllString(raw, "")
	return collapse(text)
}

func collapse(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// SplitSentences splits on runs of '.', '!' and '?', dropping empty fragments.
// Abbreviations and decimals are split too.
func SplitSentences(text string) []string {
	if text == "" {
		return nil
	}
	parts := terminatorRe.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SentenceChunker packs sentences into chunks of roughly chunkSize characters,
// seeding each new chunk with the trailing overlap characters of the previous one.
type SentenceChunker struct {
	chunkSize int
	overlap   int
}

func NewSentenceChunker(chunkSize, overlap int) *SentenceChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	return &SentenceChunker{chunkSize: chunkSize, overlap: overlap}
}

// Split chunks already cleaned text.
func (c *SentenceChunker) Split(text string) []string {
	pieces := c.assemble(SplitSentences(text))
	out := make([]string, len(pieces))
	for i, p := range pieces {
		out[i] = p.text
	}
	return out
}

// Chunk cleans extracted text and wraps the pieces into chunk records with
// sequential ids and, when the text carries page markers, page numbers.
func (c *SentenceChunker) Chunk(rawText string) ([]domain.Chunk, error) {
	text := Clean(rawText)
	if text == "" {
		return nil, nil
	}
	sentences := SplitSentences(text)
	pieces := c.assemble(sentences)
	spans := PageSpans(rawText)
	offsets := sentenceOffsets(text, sentences)

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, p := range pieces {
		var page *int
		if len(spans) > 0 {
			page = pageAt(spans, offsets[p.lead])
		}
		chunks = append(chunks, domain.NewChunk(i, p.text, page))
	}
	return chunks, nil
}

type piece struct {
	text string
	lead int // index of the first sentence this chunk introduces
}

// assemble applies the flush rule. The running length grows by each appended
// sentence's own length and is only resynchronised with the buffer on flush.
func (c *SentenceChunker) assemble(sentences []string) []piece {
	var (
		pieces     []piece
		current    string
		currentLen int
		lead       = -1
	)
	for i, sentence := range sentences {
		sentenceLen := utf8.RuneCountInString(sentence)
		if currentLen+sentenceLen > c.chunkSize && current != "" {
			pieces = append(pieces, piece{text: strings.TrimSpace(current), lead: lead})
			current = tail(current, c.overlap) + " " + sentence
			currentLen = utf8.RuneCountInString(current)
			lead = i
			continue
		}
		current += " " + sentence
		currentLen += sentenceLen
		if lead < 0 {
			lead = i
		}
	}
	if strings.TrimSpace(current) != "" {
		pieces = append(pieces, piece{text: strings.TrimSpace(current), lead: lead})
	}
	return pieces
}

// tail returns the last n characters of s, or s itself when shorter.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[len(runes)-n:])
	}
	return s
}

// PageSpan marks the byte offset in cleaned text where a page begins.
type PageSpan struct {
	Page  int
	Start int
}

// PageSpans locates each page marker of raw in the coordinates of Clean(raw).
func PageSpans(raw string) []PageSpan {
	locs := pageMarkerRe.FindAllStringSubmatchIndex(raw, -1)
	if len(locs) == 0 {
		return nil
	}
	spans := make([]PageSpan, 0, len(locs))
	cleanedLen := len(collapse(raw[:locs[0][0]]))
	for k, loc := range locs {
		page, err := strconv.Atoi(raw[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		end := len(raw)
		if k+1 < len(locs) {
			end = locs[k+1][0]
		}
		seg := collapse(raw[loc[1]:end])
		start := cleanedLen
		if cleanedLen > 0 && seg != "" {
			start++
		}
		spans = append(spans, PageSpan{Page: page, Start: start})
		if seg != "" {
			cleanedLen = start + len(seg)
		}
	}
	return spans
}

func pageAt(spans []PageSpan, offset int) *int {
	i := sort.Search(len(spans), func(i int) bool { return spans[i].Start > offset }) - 1
	if i < 0 {
		return nil
	}
	page := spans[i].Page
	return &page
}

func sentenceOffsets(text string, sentences []string) []int {
	offsets := make([]int, len(sentences))
	cursor := 0
	for i, s := range sentences {
		if j := strings.Index(text[cursor:], s); j >= 0 {
			cursor += j
		}
		offsets[i] = cursor
		cursor += len(s)
		if cursor > len(text) {
			cursor = len(text)
		}
	}
	return offsets
}
