package embedding

import "context"

// Encoder maps text to fixed-length vectors. The same encoder instance must
// embed both the corpus chunks and every query, or distances between the two
// are meaningless. Callers should batch chunks into one Encode call.
type Encoder interface {
	Name() string
	// Prepare gives local encoders a chance to fit on the corpus before the
	// first Encode. Remote encoders treat it as a no-op.
	Prepare(corpus []string) error
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}
