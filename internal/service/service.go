package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"infobot/internal/answer"
	"infobot/internal/config"
	"infobot/internal/domain"
	"infobot/internal/embedding"
	"infobot/internal/pipeline"
	"infobot/internal/retriever"
	"infobot/internal/store"
	"infobot/internal/vectorindex"
)

// KnowledgeBase is the serving-side service object. It owns the loaded
// corpus artifacts as fields (no ambient module state), is constructed once
// at startup and is read-only after Initialize.
type KnowledgeBase struct {
	cfg       *config.AppConfig
	encoder   embedding.Encoder
	generator answer.Generator
	log       *zap.Logger

	mu          sync.Mutex
	retriever   *retriever.Retriever
	initialized bool
}

// New wires an uninitialized knowledge base. Call Initialize before serving.
func New(cfg *config.AppConfig, encoder embedding.Encoder, generator answer.Generator, log *zap.Logger) *KnowledgeBase {
	return &KnowledgeBase{cfg: cfg, encoder: encoder, generator: generator, log: log}
}

// vocabularyLoader is implemented by encoders whose fitted state lives in a
// persisted artifact (the TF-IDF encoder).
type vocabularyLoader interface {
	LoadVocabulary(path string) error
}

// Initialize loads the persisted artifacts; if they are absent it runs the
// corpus build first. Idempotent and safe to call multiple times.
func (kb *KnowledgeBase) Initialize(ctx context.Context) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.initialized {
		return nil
	}
	err := kb.load()
	if errors.Is(err, domain.ErrArtifactMissing) {
		kb.log.Warn("persisted artifacts missing, building corpus", zap.Error(err))
		if _, buildErr := pipeline.Run(ctx, kb.cfg, kb.encoder, kb.log); buildErr != nil {
			return fmt.Errorf("corpus build: %w", buildErr)
		}
		err = kb.load()
	}
	if err != nil {
		return err
	}
	kb.initialized = true
	return nil
}

// load reads chunk store, index and encoder state from disk, validating that
// they all come from the same build.
func (kb *KnowledgeBase) load() error {
	cs, err := store.Load(kb.cfg.ChunksPath())
	if err != nil {
		return err
	}
	index, err := vectorindex.Load(kb.cfg.IndexPath())
	if err != nil {
		return err
	}
	if cs.BuildID != index.BuildID() {
		return fmt.Errorf("%w: chunk store %q vs index %q",
			domain.ErrBuildMismatch, cs.BuildID, index.BuildID())
	}
	if index.Len() != len(cs.Chunks) {
		return fmt.Errorf("%w: %d chunks vs %d vectors",
			domain.ErrBuildMismatch, len(cs.Chunks), index.Len())
	}
	if l, ok := kb.encoder.(vocabularyLoader); ok {
		if err := l.LoadVocabulary(kb.cfg.VocabularyPath()); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: %s", domain.ErrArtifactMissing, kb.cfg.VocabularyPath())
			}
			return err
		}
	}

	anchor := retriever.NewKeywordAnchor(kb.cfg.Retriever.Keywords, kb.cfg.Retriever.AnchorPhrase)
	kb.retriever = retriever.New(kb.encoder, index, cs.Chunks, cs.Metadata, anchor, kb.log)
	kb.log.Info("knowledge base loaded",
		zap.String("build_id", cs.BuildID),
		zap.Int("chunks", len(cs.Chunks)),
		zap.Int("dimension", index.Dimension()))
	return nil
}

// Search exposes ranked retrieval without generation.
func (kb *KnowledgeBase) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if err := kb.Initialize(ctx); err != nil {
		return nil, err
	}
	return kb.retriever.Search(ctx, query, k)
}

// QueryKnowledgeBase answers a user question. It always returns non-empty,
// displayable text: retrieval or generation failures degrade to fallback
// answers instead of surfacing errors at this boundary.
func (kb *KnowledgeBase) QueryKnowledgeBase(ctx context.Context, query string) string {
	if strings.TrimSpace(query) == "" {
		return answer.Fallback
	}
	if err := kb.Initialize(ctx); err != nil {
		kb.log.Error("initialization failed", zap.Error(err))
		return answer.Fallback
	}

	results, err := kb.retriever.Search(ctx, query, kb.cfg.Retriever.TopK)
	if err != nil {
		// Subsystem failure, as opposed to a query with no matches.
		kb.log.Error("search failed", zap.String("query", query), zap.Error(err))
		return answer.Fallback
	}
	if len(results) == 0 {
		return answer.NoMatch
	}

	text, err := kb.generator.Generate(ctx, query, results)
	if err != nil || strings.TrimSpace(text) == "" {
		kb.log.Error("answer generation failed", zap.String("query", query), zap.Error(err))
		return answer.Fallback
	}
	return text
}
