package domain

import "errors"

// Record is a single raw entry loaded from a data file.
type Record struct {
	Content string `json:"content"`
	URL     string `json:"url"`
	Section string `json:"section"`
}

// ChunkMetadata describes one chunk of a record. The metadata sequence is
// index-aligned with the chunk sequence and the vector index: position i in
// all three refers to the same chunk.
type ChunkMetadata struct {
	URL             string `json:"url"`
	Section         string `json:"section"`
	ContentLength   int    `json:"content_length"`
	OriginalContent string `json:"original_content"`
	SourceEntry     int    `json:"source_entry"`
}

// SearchResult is a retrieved chunk with its ranking scores and the
// metadata fields of its source record merged in.
type SearchResult struct {
	Text            string
	Relevance       float64
	Distance        float32
	URL             string
	Section         string
	ContentLength   int
	OriginalContent string
	SourceEntry     int
}

var (
	// ErrArtifactMissing reports that a required persisted artifact
	// (chunk store or index blob) is absent at load time.
	ErrArtifactMissing = errors.New("persisted artifact missing")

	// ErrBuildMismatch reports that two artifacts carry different build IDs
	// and therefore do not come from the same corpus build.
	ErrBuildMismatch = errors.New("artifact build id mismatch")
)
