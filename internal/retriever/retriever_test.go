package retriever

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"infobot/internal/domain"
	"infobot/internal/vectorindex"
)

type stubEncoder struct {
	vec       []float32
	lastInput string
	err       error
}

func (s *stubEncoder) Name() string                { return "stub" }
func (s *stubEncoder) Prepare(corpus []string) error { return nil }
func (s *stubEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastInput = texts[0]
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec
	}
	return out, nil
}

func TestKeywordAnchor(t *testing.T) {
	a := NewKeywordAnchor([]string{"KCT", "Kumaraguru", "College", "Technology"},
		"Kumaraguru College of Technology")

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"no keyword gets anchored", "hostel facilities",
			"Kumaraguru College of Technology hostel facilities"},
		{"keyword present unmodified", "KCT hostel facilities", "KCT hostel facilities"},
		{"case insensitive", "kumaraguru fees", "kumaraguru fees"},
		{"keyword as substring counts", "technology programs", "technology programs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Apply(tt.query))
		})
	}
}

func TestRelevance(t *testing.T) {
	assert.Equal(t, 1.0, Relevance(0))
	assert.InDelta(t, 0.5, Relevance(1), 1e-9)
	// strictly decreasing
	prev := Relevance(0)
	for _, d := range []float32{0.1, 0.5, 1, 5, 100} {
		r := Relevance(d)
		assert.Less(t, r, prev)
		assert.Greater(t, r, 0.0)
		prev = r
	}
}

func buildFixture(t *testing.T, n int, special map[int]float32) (*vectorindex.FlatIndex, []string, []domain.ChunkMetadata) {
	t.Helper()
	vectors := make([][]float32, n)
	chunks := make([]string, n)
	metadata := make([]domain.ChunkMetadata, n)
	for i := 0; i < n; i++ {
		v := float32(10)
		if s, ok := special[i]; ok {
			v = s
		}
		vectors[i] = []float32{v}
		chunks[i] = "chunk " + string(rune('a'+i))
		metadata[i] = domain.ChunkMetadata{URL: "https://kct.ac.in", Section: "General", SourceEntry: i}
	}
	index := vectorindex.New()
	require.NoError(t, index.Build("b1", vectors))
	return index, chunks, metadata
}

func TestSearch_RankingScenario(t *testing.T) {
	// Neighbors land at ordinals 9, 5, 2 with distances ~0.05, 0.1, 0.5;
	// with k=2 the final order is ordinal 9 then 5, ordinal 2 dropped.
	index, chunks, metadata := buildFixture(t, 10, map[int]float32{
		5: float32(math.Sqrt(0.1)),
		2: float32(math.Sqrt(0.5)),
		9: float32(math.Sqrt(0.05)),
	})
	enc := &stubEncoder{vec: []float32{0}}
	r := New(enc, index, chunks, metadata, NopAnchor{}, zap.NewNop())

	got, err := r.Search(context.Background(), "KCT hostel", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, chunks[9], got[0].Text)
	assert.Equal(t, chunks[5], got[1].Text)
	assert.InDelta(t, 1/1.05, got[0].Relevance, 1e-3)
	assert.InDelta(t, 1/1.1, got[1].Relevance, 1e-3)
	assert.Equal(t, 9, got[0].SourceEntry)
}

func TestSearch_NormalizesAndAnchorsQuery(t *testing.T) {
	index, chunks, metadata := buildFixture(t, 3, nil)
	enc := &stubEncoder{vec: []float32{0}}
	anchor := NewKeywordAnchor([]string{"KCT"}, "Kumaraguru College of Technology")
	r := New(enc, index, chunks, metadata, anchor, zap.NewNop())

	_, err := r.Search(context.Background(), "  hostel   life ", 2)
	require.NoError(t, err)
	assert.Equal(t, "Kumaraguru College of Technology hostel life", enc.lastInput)

	_, err = r.Search(context.Background(), "KCT hostel life", 2)
	require.NoError(t, err)
	assert.Equal(t, "KCT hostel life", enc.lastInput)
}

func TestSearch_SkipsOutOfRangeOrdinals(t *testing.T) {
	// Metadata shorter than the chunk sequence must not crash the query.
	index, chunks, metadata := buildFixture(t, 3, nil)
	enc := &stubEncoder{vec: []float32{0}}
	r := New(enc, index, chunks, metadata[:2], NopAnchor{}, zap.NewNop())

	got, err := r.Search(context.Background(), "anything", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, res := range got {
		assert.Less(t, res.SourceEntry, 2)
	}
}

func TestSearch_EncoderFailureIsError(t *testing.T) {
	index, chunks, metadata := buildFixture(t, 3, nil)
	enc := &stubEncoder{err: errors.New("model unavailable")}
	r := New(enc, index, chunks, metadata, NopAnchor{}, zap.NewNop())

	got, err := r.Search(context.Background(), "anything", 2)
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestSearch_EmptyCorpus(t *testing.T) {
	r := New(&stubEncoder{vec: []float32{0}}, nil, nil, nil, NopAnchor{}, zap.NewNop())
	got, err := r.Search(context.Background(), "anything", 5)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_AtMostK(t *testing.T) {
	index, chunks, metadata := buildFixture(t, 10, nil)
	enc := &stubEncoder{vec: []float32{0}}
	r := New(enc, index, chunks, metadata, NopAnchor{}, zap.NewNop())

	got, err := r.Search(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Relevance, got[i].Relevance)
	}
}
