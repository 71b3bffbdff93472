package answer

import (
	"context"
	"fmt"
	"strings"

	"infobot/internal/domain"
)

// Generator produces a conversational answer from the query and its
// retrieved context. Implementations must not return an empty answer
// without an error.
type Generator interface {
	Generate(ctx context.Context, query string, results []domain.SearchResult) (string, error)
}

const (
	// DefaultRelevanceThreshold gates which results may leave the
	// retrieval boundary as generator context.
	DefaultRelevanceThreshold = 0.3

	// maxContextChunks caps how many chunks reach the prompt.
	maxContextChunks = 3
)

// Fallback is the static answer used when generation fails outright. The
// user always gets displayable text, never a raw error.
const Fallback = `Hello! I'm here to help you learn about Kumaraguru College of Technology (KCT).

KCT is a premier engineering institution in Coimbatore, Tamil Nadu. We offer various undergraduate and postgraduate programs in engineering and technology.

The college has state-of-the-art facilities, experienced faculty members, and an excellent placement record.

Please feel free to ask me about programs, admissions, facilities, or any other aspect of KCT!`

// NoMatch is the answer for queries with no retrieved context at all.
const NoMatch = "I couldn't find relevant information about that topic. Please contact KCT directly for more details."

// FilterContext keeps results above the relevance threshold. If none
// qualify, it falls back to the first three raw results in their original
// order, so weak matches still give the generator something to work with.
func FilterContext(results []domain.SearchResult, threshold float64) []domain.SearchResult {
	var relevant []domain.SearchResult
	for _, r := range results {
		if r.Relevance > threshold {
			relevant = append(relevant, r)
		}
	}
	if len(relevant) == 0 {
		relevant = results
	}
	if len(relevant) > maxContextChunks {
		relevant = relevant[:maxContextChunks]
	}
	return relevant
}

// BuildPrompt assembles the conversational user prompt from the filtered
// context chunks.
func BuildPrompt(query string, contextChunks []domain.SearchResult) string {
	var contextText string
	if len(contextChunks) > 0 {
		parts := make([]string, len(contextChunks))
		for i, c := range contextChunks {
			parts[i] = fmt.Sprintf("Information %d: %s", i+1, c.Text)
		}
		contextText = strings.Join(parts, "\n\n")
	} else {
		contextText = "General information about Kumaraguru College of Technology (KCT), a premier engineering institution in Coimbatore, Tamil Nadu."
	}

	return fmt.Sprintf(`You are a helpful assistant for Kumaraguru College of Technology (KCT).

QUESTION: %s

AVAILABLE INFORMATION:
%s

INSTRUCTIONS:
1. Provide a clear, concise answer using the information available
2. Be conversational and friendly
3. Break down information into clear sections
4. Highlight important points
5. Do NOT include any source citations, references, or links in your response
6. If you don't have specific information, provide general helpful guidance`, query, contextText)
}
