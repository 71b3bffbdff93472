package answer

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"infobot/internal/domain"
)

// ExtractiveGenerator answers without a language model: it ranks the
// sentences of the retrieved context by token frequency and returns the best
// ones in their original order. Used when no chat API key is configured so
// the system still produces a grounded, displayable answer.
type ExtractiveGenerator struct {
	maxSentences int
	threshold    float64
	tokenPattern *regexp.Regexp
	sentenceRe   *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewExtractiveGenerator creates the offline generator.
func NewExtractiveGenerator(maxSentences int, threshold float64) *ExtractiveGenerator {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	if threshold == 0 {
		threshold = DefaultRelevanceThreshold
	}
	return &ExtractiveGenerator{
		maxSentences: maxSentences,
		threshold:    threshold,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		sentenceRe:   regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
		stopwords:    extractiveStopwords(),
	}
}

// Generate extracts the most informative sentences from the context chunks.
func (g *ExtractiveGenerator) Generate(ctx context.Context, query string, results []domain.SearchResult) (string, error) {
	contextChunks := FilterContext(results, g.threshold)
	if len(contextChunks) == 0 {
		return NoMatch, nil
	}
	var joined strings.Builder
	for _, c := range contextChunks {
		joined.WriteString(c.Text)
		joined.WriteString(" ")
	}
	summary := g.summarize(joined.String(), query)
	if summary == "" {
		return NoMatch, nil
	}
	return summary, nil
}

func (g *ExtractiveGenerator) summarize(text, query string) string {
	sentences := g.sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range g.tokens(sent) {
			freq[tok]++
		}
	}
	// Terms from the query count double so the extract stays on topic.
	queryTokens := map[string]struct{}{}
	for _, tok := range g.tokens(query) {
		queryTokens[tok] = struct{}{}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
			if _, ok := queryTokens[k]; ok {
				freq[k] *= 2
			}
		}
	}
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i, sent := range sentences {
		toks := g.tokens(sent)
		score := 0.0
		for _, tok := range toks {
			score += freq[tok]
		}
		if len(toks) > 0 {
			score /= math.Sqrt(float64(len(toks)))
		}
		scores[i] = pair{i, score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	n := g.maxSentences
	if n > len(scores) {
		n = len(scores)
	}
	selected := make([]int, n)
	for i := 0; i < n; i++ {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, 0, n)
	seen := map[string]struct{}{}
	for _, idx := range selected {
		sent := strings.TrimSpace(sentences[idx])
		// Overlapping chunks repeat sentences; emit each once.
		if _, ok := seen[sent]; ok {
			continue
		}
		seen[sent] = struct{}{}
		out = append(out, sent)
	}
	return strings.Join(out, " ")
}

func (g *ExtractiveGenerator) tokens(text string) []string {
	raw := g.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := g.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func extractiveStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
