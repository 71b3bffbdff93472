package vectorindex

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"sort"

	"infobot/internal/domain"
)

// ErrNotBuilt reports a search against an index that has not been built or
// loaded. Callers treat it as "no results", never as a crash.
var ErrNotBuilt = errors.New("vector index not built")

// Neighbor is one nearest-neighbor hit: the ordinal position of the chunk in
// the build and its squared Euclidean distance from the query.
type Neighbor struct {
	Ordinal  int
	Distance float32
}

// FlatIndex is an exact nearest-neighbor index over float32 vectors. It owns
// no text: vectors are keyed purely by ordinal position, which must match the
// chunk store of the same build. Built once per corpus snapshot and read-only
// afterwards.
type FlatIndex struct {
	buildID   string
	dimension int
	vectors   [][]float32
	built     bool
}

// New creates an empty, unbuilt index.
func New() *FlatIndex { return &FlatIndex{} }

// Build installs the corpus vectors in one shot. There is no incremental
// insert; rebuilding replaces everything.
func (x *FlatIndex) Build(buildID string, vectors [][]float32) error {
	if len(vectors) == 0 {
		return errors.New("no vectors to index")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return errors.New("zero-dimensional vectors")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}
	x.buildID = buildID
	x.dimension = dim
	x.vectors = vectors
	x.built = true
	return nil
}

// BuildID returns the provenance identifier stamped at build time.
func (x *FlatIndex) BuildID() string { return x.buildID }

// Len returns the number of indexed vectors.
func (x *FlatIndex) Len() int { return len(x.vectors) }

// Dimension returns the vector dimensionality of the build.
func (x *FlatIndex) Dimension() int { return x.dimension }

// Search returns up to k neighbors ordered by ascending squared Euclidean
// distance, ties broken by ordinal.
func (x *FlatIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if !x.built {
		return nil, ErrNotBuilt
	}
	if len(query) != x.dimension {
		return nil, fmt.Errorf("query dimension %d, index dimension %d", len(query), x.dimension)
	}
	if k <= 0 {
		return nil, nil
	}
	neighbors := make([]Neighbor, len(x.vectors))
	for i, v := range x.vectors {
		neighbors[i] = Neighbor{Ordinal: i, Distance: squaredL2(query, v)}
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Distance != neighbors[j].Distance {
			return neighbors[i].Distance < neighbors[j].Distance
		}
		return neighbors[i].Ordinal < neighbors[j].Ordinal
	})
	if k > len(neighbors) {
		k = len(neighbors)
	}
	return neighbors[:k], nil
}

// indexBlob is the opaque on-disk form of the index.
type indexBlob struct {
	BuildID   string
	Dimension int
	Vectors   [][]float32
}

// Save writes the index as a binary blob.
func (x *FlatIndex) Save(path string) error {
	if !x.built {
		return ErrNotBuilt
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	blob := indexBlob{BuildID: x.buildID, Dimension: x.dimension, Vectors: x.vectors}
	if err := gob.NewEncoder(f).Encode(&blob); err != nil {
		return fmt.Errorf("encode index %s: %w", path, err)
	}
	return nil
}

// Load reads a previously saved index blob.
func Load(path string) (*FlatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrArtifactMissing, path)
		}
		return nil, err
	}
	defer f.Close()
	var blob indexBlob
	if err := gob.NewDecoder(f).Decode(&blob); err != nil {
		return nil, fmt.Errorf("decode index %s: %w", path, err)
	}
	if len(blob.Vectors) == 0 || blob.Dimension == 0 {
		return nil, fmt.Errorf("index %s is empty", path)
	}
	return &FlatIndex{
		buildID:   blob.BuildID,
		dimension: blob.Dimension,
		vectors:   blob.Vectors,
		built:     true,
	}, nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
