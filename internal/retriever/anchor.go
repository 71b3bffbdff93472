package retriever

import "strings"

// Anchor rewrites elliptical queries so they land in the right region of the
// embedding space. It is a pluggable heuristic; tests can swap in a no-op.
type Anchor interface {
	Apply(query string) string
}

// KeywordAnchor prepends a canonical institution phrase unless the query
// already mentions one of the domain keywords (case-insensitive).
type KeywordAnchor struct {
	keywords []string
	phrase   string
}

// NewKeywordAnchor builds the default anchoring strategy.
func NewKeywordAnchor(keywords []string, phrase string) *KeywordAnchor {
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return &KeywordAnchor{keywords: lowered, phrase: phrase}
}

// Apply returns the query unchanged when a domain keyword is present,
// otherwise the anchored form.
func (a *KeywordAnchor) Apply(query string) string {
	lower := strings.ToLower(query)
	for _, k := range a.keywords {
		if strings.Contains(lower, k) {
			return query
		}
	}
	return a.phrase + " " + query
}

// NopAnchor leaves queries untouched.
type NopAnchor struct{}

func (NopAnchor) Apply(query string) string { return query }
