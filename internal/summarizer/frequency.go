package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxSentences is used when the caller passes a non-positive limit.
const DefaultMaxSentences = 3

var (
	tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	// a trailing fragment without a terminator is a sentence too; cleaned
	// chunk text rarely ends in punctuation
	sentencePattern = regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`)
)

// stopwords carry no topical weight and are skipped when counting.
var stopwords = wordSet(`
	a an the and or but nor if then else so than too very
	for to of in on at by with from into onto about over under between through
	during before after above below up down out off again further
	is are was were be been being am do does did has have had
	it its this that these those he she they them we you i
	can will would should could may might must just now own same such not no`)

func wordSet(list string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(list) {
		set[w] = struct{}{}
	}
	return set
}

// FrequencySummarizer picks the sentences whose content words are most
// frequent in the whole text.
type FrequencySummarizer struct{}

func NewFrequencySummarizer() *FrequencySummarizer { return &FrequencySummarizer{} }

type sentence struct {
	pos    int
	text   string
	tokens []string
	score  float64
}

// Summarize returns up to maxSentences of the best scoring sentences in
// their original order.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	sents := split(text)
	if len(sents) == 0 {
		return strings.TrimSpace(text), nil
	}

	weights := termWeights(sents)
	for i := range sents {
		sents[i].score = score(sents[i].tokens, weights)
	}

	ranked := append([]sentence(nil), sents...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	ranked = ranked[:min(maxSentences, len(ranked))]
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].pos < ranked[j].pos })

	parts := make([]string, len(ranked))
	for i, sent := range ranked {
		parts[i] = sent.text
	}
	return strings.Join(parts, " "), nil
}

func split(text string) []sentence {
	var out []sentence
	for _, raw := range sentencePattern.FindAllString(text, -1) {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		out = append(out, sentence{
			pos:    len(out),
			text:   trimmed,
			tokens: tokenPattern.FindAllString(strings.ToLower(trimmed), -1),
		})
	}
	return out
}

// termWeights counts content words across all sentences, scaled so the most
// frequent word weighs 1.
func termWeights(sents []sentence) map[string]float64 {
	counts := make(map[string]float64)
	top := 0.0
	for _, sent := range sents {
		for _, tok := range sent.tokens {
			if _, skip := stopwords[tok]; skip {
				continue
			}
			counts[tok]++
			top = math.Max(top, counts[tok])
		}
	}
	if top > 0 {
		for w := range counts {
			counts[w] /= top
		}
	}
	return counts
}

// score sums token weights, damped by sqrt(length) so long sentences do not
// win on size alone.
func score(tokens []string, weights map[string]float64) float64 {
	if len(tokens) == 0 {
		return 0
	}
	total := 0.0
	for _, tok := range tokens {
		total += weights[tok]
	}
	return total / math.Sqrt(float64(len(tokens)))
}
