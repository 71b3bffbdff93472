package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"infobot/internal/answer"
	"infobot/internal/config"
	"infobot/internal/domain"
	"infobot/internal/embedding/tfidf"
	"infobot/internal/store"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	dataDir := t.TempDir()

	sentence := func(s string, n int) string {
		return strings.TrimSpace(strings.Repeat(s+" ", n))
	}
	raw := `[
		{"content": "` + sentence("The hostel provides furnished rooms with laundry and a vegetarian mess.", 15) + `", "section": "Hostel", "url": "https://kct.ac.in/hostel"},
		{"content": "` + sentence("Admissions for engineering programs open in May and close in June.", 15) + `", "section": "Admissions"},
		{"content": "` + sentence("The central library holds one hundred thousand volumes and digital journals.", 15) + `", "section": "Library"}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "kct.json"), []byte(raw), 0o644))

	return &config.AppConfig{
		DataDir:        dataDir,
		VectorstoreDir: filepath.Join(t.TempDir(), "vectorstore"),
		HistoryDir:     t.TempDir(),
		Chunker:        config.ChunkerConfig{Size: 600, Overlap: 150, MinChunkLen: 100, MinRecordLen: 30},
		Retriever: config.RetrieverConfig{
			TopK:         5,
			Keywords:     []string{"KCT", "Kumaraguru", "College", "Technology"},
			AnchorPhrase: "Kumaraguru College of Technology",
		},
		Generator: config.GeneratorConfig{Type: "extractive", RelevanceThreshold: 0.3},
	}
}

func newTestKB(t *testing.T, cfg *config.AppConfig) *KnowledgeBase {
	t.Helper()
	gen := answer.NewExtractiveGenerator(5, cfg.Generator.RelevanceThreshold)
	return New(cfg, tfidf.NewEncoder(), gen, zap.NewNop())
}

func TestInitialize_BuildsWhenArtifactsMissing(t *testing.T) {
	cfg := testConfig(t)
	kb := newTestKB(t, cfg)

	require.NoError(t, kb.Initialize(context.Background()))

	for _, path := range []string{cfg.ChunksPath(), cfg.IndexPath(), cfg.VocabularyPath()} {
		_, err := os.Stat(path)
		assert.NoError(t, err, "artifact %s should exist after initialization", path)
	}

	// second call is a no-op
	require.NoError(t, kb.Initialize(context.Background()))
}

func TestInitialize_LoadsExistingArtifacts(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, newTestKB(t, cfg).Initialize(context.Background()))

	// a fresh instance over the same directories must load, not rebuild
	fresh := newTestKB(t, cfg)
	require.NoError(t, fresh.Initialize(context.Background()))

	results, err := fresh.Search(context.Background(), "hostel mess", 3)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestInitialize_BuildMismatch(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, newTestKB(t, cfg).Initialize(context.Background()))

	cs, err := store.Load(cfg.ChunksPath())
	require.NoError(t, err)
	cs.BuildID = "stale-build"
	require.NoError(t, store.Save(cfg.ChunksPath(), cs))

	err = newTestKB(t, cfg).Initialize(context.Background())
	assert.ErrorIs(t, err, domain.ErrBuildMismatch)
}

func TestSearch_RankedResults(t *testing.T) {
	cfg := testConfig(t)
	kb := newTestKB(t, cfg)

	results, err := kb.Search(context.Background(), "KCT hostel laundry", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Relevance, results[i].Relevance)
	}
	assert.Equal(t, "Hostel", results[0].Section)
	assert.Contains(t, results[0].Text, "hostel")
}

func TestQueryKnowledgeBase(t *testing.T) {
	cfg := testConfig(t)
	kb := newTestKB(t, cfg)

	got := kb.QueryKnowledgeBase(context.Background(), "what are the hostel facilities")
	assert.NotEmpty(t, got)
	assert.NotEqual(t, answer.Fallback, got)
	assert.Contains(t, strings.ToLower(got), "hostel")
}

func TestQueryKnowledgeBase_EmptyQuery(t *testing.T) {
	cfg := testConfig(t)
	kb := newTestKB(t, cfg)

	assert.Equal(t, answer.Fallback, kb.QueryKnowledgeBase(context.Background(), ""))
	assert.Equal(t, answer.Fallback, kb.QueryKnowledgeBase(context.Background(), "   "))
}

func TestQueryKnowledgeBase_InitFailureFallsBack(t *testing.T) {
	cfg := testConfig(t)
	// empty the data directory so the lazy build cannot succeed
	cfg.DataDir = t.TempDir()
	kb := newTestKB(t, cfg)

	got := kb.QueryKnowledgeBase(context.Background(), "anything at all")
	assert.Equal(t, answer.Fallback, got)
}
