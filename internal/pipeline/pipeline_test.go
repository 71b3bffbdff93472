package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"infobot/internal/config"
	"infobot/internal/domain"
	"infobot/internal/embedding/tfidf"
	"infobot/internal/store"
	"infobot/internal/vectorindex"
)

func defaultChunkerConfig() config.ChunkerConfig {
	return config.ChunkerConfig{Size: 600, Overlap: 150, MinChunkLen: 100, MinRecordLen: 30}
}

func longContent(sentence string, n int) string {
	return strings.TrimSpace(strings.Repeat(sentence+" ", n))
}

func TestBuildChunks_Alignment(t *testing.T) {
	records := []domain.Record{
		{Content: longContent("KCT offers fourteen undergraduate engineering programs.", 20),
			URL: "https://kct.ac.in/programs", Section: "Programs"},
		{Content: longContent("Hostel rooms house two students and include laundry service.", 20),
			URL: "https://kct.ac.in/hostel", Section: "Hostel"},
	}

	chunks, metadata, stats, err := BuildChunks(records, defaultChunkerConfig(), zap.NewNop())
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	require.Len(t, metadata, len(chunks))
	assert.Equal(t, len(chunks), stats.Chunks)
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 0, stats.SkippedShort)

	for i, md := range metadata {
		require.Contains(t, []int{0, 1}, md.SourceEntry)
		assert.Equal(t, records[md.SourceEntry].URL, md.URL)
		assert.Equal(t, records[md.SourceEntry].Section, md.Section)
		assert.Equal(t, len([]rune(chunks[i])), md.ContentLength)
	}
}

func TestBuildChunks_SkipsShortRecords(t *testing.T) {
	records := []domain.Record{
		{Content: "too short to matter"},
		{Content: longContent("Admissions open in May and close in June every academic year.", 20)},
	}

	chunks, _, stats, err := BuildChunks(records, defaultChunkerConfig(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SkippedShort)
	for _, c := range chunks {
		assert.NotContains(t, c, "too short")
	}
}

func TestBuildChunks_MidLengthRecordYieldsNoChunks(t *testing.T) {
	// 50 chars: over the record threshold, under the minimum chunk length.
	records := []domain.Record{{Content: strings.Repeat("A", 50)}}

	chunks, metadata, stats, err := BuildChunks(records, defaultChunkerConfig(), zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Empty(t, metadata)
	assert.Equal(t, 0, stats.SkippedShort)
	assert.Equal(t, 0, stats.Chunks)
}

func TestBuildChunks_PreviewTruncated(t *testing.T) {
	content := longContent("The campus has laboratories workshops and a central library.", 20)
	records := []domain.Record{{Content: content}}

	_, metadata, _, err := BuildChunks(records, defaultChunkerConfig(), zap.NewNop())
	require.NoError(t, err)
	require.NotEmpty(t, metadata)
	preview := metadata[0].OriginalContent
	assert.True(t, strings.HasSuffix(preview, "..."))
	assert.Len(t, []rune(preview), 153)
}

func TestBuildChunks_InvalidChunkerConfig(t *testing.T) {
	cc := config.ChunkerConfig{Size: 100, Overlap: 100, MinChunkLen: 10, MinRecordLen: 30}
	_, _, _, err := BuildChunks([]domain.Record{{Content: strings.Repeat("x", 200)}}, cc, zap.NewNop())
	assert.Error(t, err)
}

func TestRun_WritesAlignedArtifacts(t *testing.T) {
	dataDir := t.TempDir()
	raw := `[
		{"content": "` + longContent("KCT offers fourteen undergraduate engineering programs across disciplines.", 15) + `", "section": "Programs"},
		{"content": "` + longContent("Hostel rooms house two students each and include a laundry service.", 15) + `", "section": "Hostel"}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "kct.json"), []byte(raw), 0o644))

	cfg := &config.AppConfig{
		DataDir:        dataDir,
		VectorstoreDir: filepath.Join(t.TempDir(), "vectorstore"),
		Chunker:        defaultChunkerConfig(),
	}

	stats, err := Run(context.Background(), cfg, tfidf.NewEncoder(), zap.NewNop())
	require.NoError(t, err)
	require.NotEmpty(t, stats.BuildID)
	assert.Greater(t, stats.Chunks, 0)
	assert.Greater(t, stats.Dimension, 0)

	cs, err := store.Load(cfg.ChunksPath())
	require.NoError(t, err)
	index, err := vectorindex.Load(cfg.IndexPath())
	require.NoError(t, err)

	// every artifact of one build carries the same build ID
	assert.Equal(t, stats.BuildID, cs.BuildID)
	assert.Equal(t, stats.BuildID, index.BuildID())
	assert.Equal(t, len(cs.Chunks), index.Len())
	assert.Equal(t, len(cs.Chunks), len(cs.Metadata))

	_, err = os.Stat(cfg.VocabularyPath())
	assert.NoError(t, err)
}

func TestRun_EmptyDataDir(t *testing.T) {
	cfg := &config.AppConfig{
		DataDir:        t.TempDir(),
		VectorstoreDir: t.TempDir(),
		Chunker:        defaultChunkerConfig(),
	}
	_, err := Run(context.Background(), cfg, tfidf.NewEncoder(), zap.NewNop())
	assert.Error(t, err)
}
