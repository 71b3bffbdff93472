package retriever

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"infobot/internal/chunker"
	"infobot/internal/domain"
	"infobot/internal/embedding"
	"infobot/internal/vectorindex"
)

// Retriever executes semantic search over one corpus build: it normalizes
// and anchors the query, embeds it, asks the index for neighbors and turns
// distances into ranked SearchResults.
type Retriever struct {
	encoder  embedding.Encoder
	index    *vectorindex.FlatIndex
	chunks   []string
	metadata []domain.ChunkMetadata
	anchor   Anchor
	log      *zap.Logger
}

// New wires a retriever over loaded artifacts. The chunk and metadata
// sequences must come from the same build as the index.
func New(encoder embedding.Encoder, index *vectorindex.FlatIndex, chunks []string, metadata []domain.ChunkMetadata, anchor Anchor, log *zap.Logger) *Retriever {
	if anchor == nil {
		anchor = NopAnchor{}
	}
	return &Retriever{
		encoder:  encoder,
		index:    index,
		chunks:   chunks,
		metadata: metadata,
		anchor:   anchor,
		log:      log,
	}
}

// Search returns up to k results ordered by non-increasing relevance.
// An empty result with a nil error means the query simply had no matches;
// a non-nil error means the search subsystem itself failed.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if len(r.chunks) == 0 || r.index == nil {
		return nil, nil
	}
	if k <= 0 {
		k = 5
	}

	// Same normalization as the indexed chunks, for a consistent
	// embedding space.
	query = chunker.Clean(query)
	anchored := r.anchor.Apply(query)
	if anchored != query {
		r.log.Debug("query anchored", zap.String("query", query), zap.String("anchored", anchored))
	}

	vectors, err := r.encoder.Encode(ctx, []string{anchored})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	// Over-fetch so downstream filtering can still yield k usable results.
	searchK := k * 2
	if searchK > len(r.chunks) {
		searchK = len(r.chunks)
	}
	neighbors, err := r.index.Search(vectors[0], searchK)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(neighbors))
	for _, n := range neighbors {
		// An index/metadata mismatch must not crash the query.
		if n.Ordinal < 0 || n.Ordinal >= len(r.chunks) || n.Ordinal >= len(r.metadata) {
			r.log.Warn("neighbor ordinal out of range", zap.Int("ordinal", n.Ordinal))
			continue
		}
		md := r.metadata[n.Ordinal]
		results = append(results, domain.SearchResult{
			Text:            r.chunks[n.Ordinal],
			Relevance:       Relevance(n.Distance),
			Distance:        n.Distance,
			URL:             md.URL,
			Section:         md.Section,
			ContentLength:   md.ContentLength,
			OriginalContent: md.OriginalContent,
			SourceEntry:     md.SourceEntry,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Relevance converts a raw distance into a bounded ranking score:
// strictly decreasing in distance and within (0, 1] for distance >= 0.
func Relevance(distance float32) float64 {
	return 1.0 / (1.0 + float64(distance))
}
