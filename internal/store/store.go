package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"infobot/internal/domain"
)

// ChunkStore is the persisted chunk document: the ordered chunk sequence and
// its parallel metadata sequence from one corpus build. The two sequences
// must stay index-aligned; loading validates that.
type ChunkStore struct {
	BuildID     string                 `json:"build_id"`
	Chunks      []string               `json:"chunks"`
	Metadata    []domain.ChunkMetadata `json:"metadata"`
	TotalChunks int                    `json:"total_chunks"`
}

// Save writes the chunk store as indented JSON, mirroring the layout the
// index blob is built against.
func Save(path string, cs *ChunkStore) error {
	if len(cs.Chunks) != len(cs.Metadata) {
		return fmt.Errorf("chunk/metadata misalignment: %d chunks, %d metadata entries",
			len(cs.Chunks), len(cs.Metadata))
	}
	cs.TotalChunks = len(cs.Chunks)
	data, err := json.MarshalIndent(cs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads and validates a chunk store. A missing file is an
// ErrArtifactMissing; misaligned sequences are rejected.
func Load(path string) (*ChunkStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrArtifactMissing, path)
		}
		return nil, err
	}
	var cs ChunkStore
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("decode chunk store %s: %w", path, err)
	}
	if len(cs.Chunks) == 0 {
		return nil, fmt.Errorf("chunk store %s is empty", path)
	}
	if len(cs.Chunks) != len(cs.Metadata) {
		return nil, fmt.Errorf("chunk store %s misaligned: %d chunks, %d metadata entries",
			path, len(cs.Chunks), len(cs.Metadata))
	}
	return &cs, nil
}
