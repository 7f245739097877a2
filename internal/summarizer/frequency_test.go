package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_KeepsDocumentOrder(t *testing.T) {
	text := "Search engines rank documents. The weather was nice. " +
		"Ranking documents needs search indexes. Lunch was late. " +
		"Indexes make search engines fast."

	got, err := NewFrequencySummarizer().Summarize(text, 2)
	require.NoError(t, err)

	assert.Equal(t, "Ranking documents needs search indexes. Indexes make search engines fast.", got)
}

func TestSummarize_FewerSentencesThanLimit(t *testing.T) {
	got, err := NewFrequencySummarizer().Summarize("Only one sentence here.", 5)
	require.NoError(t, err)
	assert.Equal(t, "Only one sentence here.", got)
}

func TestSummarize_NoTerminator(t *testing.T) {
	got, err := NewFrequencySummarizer().Summarize("  a fragment without a full stop ", 0)
	require.NoError(t, err)
	assert.Equal(t, "a fragment without a full stop", got)
}

func TestSummarize_Empty(t *testing.T) {
	got, err := NewFrequencySummarizer().Summarize("", 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSummarize_KeepsUnterminatedLastSentence(t *testing.T) {
	// cleaned chunk text usually ends without punctuation
	text := "Pumps need priming. The weather was nice. Priming pumps prevents damage to pumps"

	got, err := NewFrequencySummarizer().Summarize(text, 2)
	require.NoError(t, err)

	assert.Equal(t, "Pumps need priming. Priming pumps prevents damage to pumps", got)
}

func TestSummarize_IgnoresTrailingWhitespace(t *testing.T) {
	got, err := NewFrequencySummarizer().Summarize("First point. Second point.   ", 5)
	require.NoError(t, err)
	assert.Equal(t, "First point. Second point.", got)
}
