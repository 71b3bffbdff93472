package chunker

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// Conservative allow-list: word characters, whitespace and basic
	// punctuation. Everything else is an encoding artifact and is dropped.
	dropRe     = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?\-:;()]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Clean normalizes text for chunking and embedding: strips characters
// outside the allow-list, then collapses whitespace runs and trims.
// Cleaning already-clean text is a no-op.
func Clean(text string) string {
	text = dropRe.ReplaceAllString(text, "")
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// Splitter cuts normalized content into overlapping chunks, preferring
// sentence boundaries near the end of each window.
type Splitter struct {
	size    int
	overlap int
	minLen  int
}

// NewSplitter validates the chunking parameters. An overlap that is not
// strictly smaller than the chunk size would stop the window from ever
// advancing, so it is rejected as a configuration error.
func NewSplitter(size, overlap, minLen int) (*Splitter, error) {
	if size <= 0 {
		return nil, errors.New("chunk size must be positive")
	}
	if overlap < 0 {
		return nil, errors.New("chunk overlap must not be negative")
	}
	if overlap >= size {
		return nil, errors.New("chunk overlap must be smaller than chunk size")
	}
	if minLen < 0 {
		minLen = 0
	}
	return &Splitter{size: size, overlap: overlap, minLen: minLen}, nil
}

// Split produces the chunk sequence for one piece of content. Consecutive
// chunks overlap by the configured count; fragments at or under the minimum
// length are discarded as noise.
func (s *Splitter) Split(content string) []string {
	runes := []rune(content)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + s.size
		if end < len(runes) {
			// Prefer to cut just after a sentence terminal, scanning
			// backward no further than the overlap window.
			limit := start + s.size - s.overlap
			for i := end; i > limit; i-- {
				if isSentenceTerminal(runes[i]) {
					end = i + 1
					break
				}
			}
		}
		sliceEnd := end
		if sliceEnd > len(runes) {
			sliceEnd = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:sliceEnd]))
		if utf8.RuneCountInString(chunk) > s.minLen {
			chunks = append(chunks, chunk)
		}
		// Advance from the proposed end, not the clamped one, so the
		// final partial window terminates the walk.
		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

func isSentenceTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
