package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: " \n\t ", want: ""},
		{name: "collapses runs", in: "a  b\n\nc\t d", want: "a b c d"},
		{name: "strips page markers", in: "\n--- Page 1 ---\nHello.\n--- Page 12 ---\nWorld.", want: "Hello. World."},
		{name: "trims", in: "   padded   ", want: "padded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("First one. Second?! Third...  . Fourth")
	assert.Equal(t, []string{"First one", "Second", "Third", "Fourth"}, got)

	assert.Empty(t, SplitSentences(""))
	assert.Empty(t, SplitSentences("...!?"))

	// Decimal numbers are split: a known limitation of the heuristic.
	assert.Equal(t, []string{"Pi is 3", "14"}, SplitSentences("Pi is 3.14"))
}

func TestSentenceChunker_Split_Scenario(t *testing.T) {
	c := NewSentenceChunker(20, 5)

	got := c.Split("Sentence one. Sentence two. Sentence three.")

	assert.Equal(t, []string{
		"Sentence one",
		"e one Sentence two",
		"e two Sentence three",
	}, got)
}

func TestSentenceChunker_Split_Empty(t *testing.T) {
	c := NewSentenceChunker(100, 10)
	assert.Empty(t, c.Split(""))
}

func TestSentenceChunker_Split_OversizedSentence(t *testing.T) {
	long := strings.Repeat("word ", 30) // 150 chars
	c := NewSentenceChunker(50, 10)

	got := c.Split(strings.TrimSpace(long) + ". Short one.")

	require.Len(t, got, 2)
	assert.Equal(t, strings.TrimSpace(long), got[0], "oversized sentence is never truncated")
	assert.True(t, strings.HasSuffix(got[1], "Short one"))
}

func TestSentenceChunker_Split_CoversSentencesInOrder(t *testing.T) {
	text := "Alpha beta gamma. Delta epsilon zeta! Eta theta iota? Kappa lambda mu. Nu xi omicron. Pi rho sigma."
	c := NewSentenceChunker(30, 8)

	chunks := c.Split(text)
	require.NotEmpty(t, chunks)

	joined := strings.Join(chunks, " | ")
	last := -1
	for _, s := range SplitSentences(text) {
		i := strings.Index(joined, s)
		require.GreaterOrEqual(t, i, 0, "sentence %q missing", s)
		assert.Greater(t, i, last, "sentence %q out of order", s)
		last = i
	}
}

func TestSentenceChunker_Split_StaysNearTargetSize(t *testing.T) {
	text := "One two. Three four. Five six. Seven eight. Nine ten. Eleven twelve."
	c := NewSentenceChunker(25, 0)

	chunks := c.Split(text)
	require.Len(t, chunks, 3)
	assert.Equal(t, "One two Three four Five six", chunks[0])
	for _, ch := range chunks {
		// only the separating spaces may push a chunk past the target
		assert.LessOrEqual(t, utf8.RuneCountInString(ch), 25+strings.Count(ch, " "), ch)
	}
}

func TestSentenceChunker_Split_Overlap(t *testing.T) {
	text := "The quick brown fox jumps. Over the lazy sleeping dog. And runs far into the woods."
	c := NewSentenceChunker(30, 6)

	chunks := c.Split(text)
	require.Greater(t, len(chunks), 1)
	for i := 0; i+1 < len(chunks); i++ {
		prev := chunks[i]
		if utf8.RuneCountInString(prev) <= 6 {
			continue
		}
		seed := strings.TrimSpace(tail(" "+prev, 6))
		assert.True(t, strings.HasPrefix(chunks[i+1], seed), "chunk %d should start with %q, got %q", i+1, seed, chunks[i+1])
	}
}

func TestSentenceChunker_Split_RunningLengthQuirk(t *testing.T) {
	// The running counter only adds sentence lengths, not the separating
	// spaces, so a buffer may grow past the target by the separators.
	c := NewSentenceChunker(10, 0)

	got := c.Split("abcde. fghij.")

	assert.Equal(t, []string{"abcde fghij"}, got)
	assert.Equal(t, 11, utf8.RuneCountInString(got[0]))
}

func TestNewSentenceChunker_Defaults(t *testing.T) {
	c := NewSentenceChunker(0, -3)
	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, 0, c.overlap)
}

func TestSentenceChunker_Chunk_AssignsIDsAndWordCounts(t *testing.T) {
	c := NewSentenceChunker(20, 5)

	chunks, err := c.Chunk("Sentence one.\n\nSentence two.   Sentence three.")
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.ID)
		assert.Equal(t, len(strings.Fields(ch.Text)), ch.WordCount)
		assert.Nil(t, ch.PageNumber, "plain text has no pages")
	}
}

func TestSentenceChunker_Chunk_Empty(t *testing.T) {
	c := NewSentenceChunker(20, 5)

	chunks, err := c.Chunk("\n--- Page 1 ---\n   \n")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSentenceChunker_Chunk_PageNumbers(t *testing.T) {
	raw := "\n" + PageMarker(1) + "\nAlpha text.\n\n" + PageMarker(2) + "\nBeta text.\n"
	c := NewSentenceChunker(15, 0)

	chunks, err := c.Chunk(raw)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	require.NotNil(t, chunks[0].PageNumber)
	require.NotNil(t, chunks[1].PageNumber)
	assert.Equal(t, 1, *chunks[0].PageNumber)
	assert.Equal(t, 2, *chunks[1].PageNumber)
}

func TestPageSpans(t *testing.T) {
	raw := "intro\n" + PageMarker(3) + "\n  foo  bar \n" + PageMarker(4) + "\n\n" + PageMarker(5) + "\nbaz"
	cleaned := Clean(raw)
	require.Equal(t, "intro foo bar baz", cleaned)

	spans := PageSpans(raw)

	require.Len(t, spans, 3)
	assert.Equal(t, PageSpan{Page: 3, Start: 6}, spans[0])
	assert.Equal(t, 4, spans[1].Page)
	assert.Equal(t, PageSpan{Page: 5, Start: 14}, spans[2])
	assert.Equal(t, "baz", cleaned[spans[2].Start:])

	assert.Nil(t, pageAt(spans, 0), "text before the first marker has no page")
	assert.Equal(t, 3, *pageAt(spans, 6))
	assert.Equal(t, 5, *pageAt(spans, 15))
}
