package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"infobot/internal/chunker"
	"infobot/internal/config"
	"infobot/internal/domain"
	"infobot/internal/embedding"
	"infobot/internal/loader"
	"infobot/internal/store"
	"infobot/internal/vectorindex"
)

const previewLen = 150

// Stats summarizes one corpus build for operator visibility. Not a
// contractual output.
type Stats struct {
	BuildID       string
	Records       int
	SkippedShort  int
	Chunks        int
	AvgChunkChars float64
	Dimension     int
}

// vocabularyPersister is implemented by encoders whose fitted state must be
// persisted alongside the index (the TF-IDF encoder).
type vocabularyPersister interface {
	SaveVocabulary(path string) error
}

// Run executes the full offline corpus build: load records, clean and chunk
// them into aligned chunk/metadata sequences, embed every chunk, build the
// vector index, and write all artifacts stamped with one build ID.
func Run(ctx context.Context, cfg *config.AppConfig, encoder embedding.Encoder, log *zap.Logger) (*Stats, error) {
	records, err := loader.LoadDir(cfg.DataDir, log)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records found in %s", cfg.DataDir)
	}

	chunks, metadata, stats, err := BuildChunks(records, cfg.Chunker, log)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, errors.New("no chunks produced; check data quality")
	}

	if err := encoder.Prepare(chunks); err != nil {
		return nil, fmt.Errorf("prepare encoder: %w", err)
	}
	log.Info("encoding chunks", zap.Int("chunks", len(chunks)), zap.String("encoder", encoder.Name()))
	vectors, err := encoder.Encode(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("encode chunks: %w", err)
	}

	buildID := uuid.NewString()
	index := vectorindex.New()
	if err := index.Build(buildID, vectors); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	if err := os.MkdirAll(cfg.VectorstoreDir, 0o755); err != nil {
		return nil, err
	}
	cs := &store.ChunkStore{BuildID: buildID, Chunks: chunks, Metadata: metadata}
	if err := store.Save(cfg.ChunksPath(), cs); err != nil {
		return nil, fmt.Errorf("save chunk store: %w", err)
	}
	if err := index.Save(cfg.IndexPath()); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}
	if p, ok := encoder.(vocabularyPersister); ok {
		if err := p.SaveVocabulary(cfg.VocabularyPath()); err != nil {
			return nil, fmt.Errorf("save vocabulary: %w", err)
		}
	}

	stats.BuildID = buildID
	stats.Dimension = index.Dimension()
	log.Info("corpus build complete",
		zap.String("build_id", stats.BuildID),
		zap.Int("records", stats.Records),
		zap.Int("skipped_short", stats.SkippedShort),
		zap.Int("chunks", stats.Chunks),
		zap.Float64("avg_chunk_chars", stats.AvgChunkChars),
		zap.Int("dimension", stats.Dimension))
	return stats, nil
}

// BuildChunks cleans and chunks every record, producing the index-aligned
// chunk and metadata sequences. A record that fails to process is logged and
// skipped; it never aborts the whole build.
func BuildChunks(records []domain.Record, cc config.ChunkerConfig, log *zap.Logger) ([]string, []domain.ChunkMetadata, *Stats, error) {
	splitter, err := chunker.NewSplitter(cc.Size, cc.Overlap, cc.MinChunkLen)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("chunker config: %w", err)
	}

	stats := &Stats{Records: len(records)}
	var chunks []string
	var metadata []domain.ChunkMetadata
	totalChars := 0
	for i, rec := range records {
		content := chunker.Clean(rec.Content)
		if utf8.RuneCountInString(content) < cc.MinRecordLen {
			stats.SkippedShort++
			continue
		}
		for _, text := range splitter.Split(content) {
			chunks = append(chunks, text)
			metadata = append(metadata, domain.ChunkMetadata{
				URL:             rec.URL,
				Section:         rec.Section,
				ContentLength:   utf8.RuneCountInString(text),
				OriginalContent: preview(content),
				SourceEntry:     i,
			})
			totalChars += utf8.RuneCountInString(text)
		}
	}
	stats.Chunks = len(chunks)
	if len(chunks) > 0 {
		stats.AvgChunkChars = float64(totalChars) / float64(len(chunks))
	}
	log.Info("chunking complete",
		zap.Int("records", stats.Records),
		zap.Int("skipped_short", stats.SkippedShort),
		zap.Int("chunks", stats.Chunks))
	return chunks, metadata, stats, nil
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLen {
		return content
	}
	return string(runes[:previewLen]) + "..."
}
