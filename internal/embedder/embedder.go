// Package embedder defines the text embedding boundary and the vector codec
// shared with the store's similarity search.
//
// Vectors are serialised as little-endian float32 blobs, the layout used by
// sqlite-vec, so embeddings written here stay compatible with external
// vector indexes fed from the same database.
package embedder

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
)

// SupportedDims are the embedding sizes the similarity search accepts.
// Queries with other dimensions fall back to a plain limited scan.
var SupportedDims = map[int]bool{
	384:  true,
	768:  true,
	1536: true,
	3072: true,
}

// Embedder turns text into a vector. It is an external collaborator; the
// engine calls it outside any database transaction.
type Embedder interface {
	// Embed returns the embedding for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Path identifies the embedding model (e.g. a model name or HF path).
	// Stored alongside vectors so mixed-model rows never cross-match.
	Path() string
}

// Encode serialises a vector as a little-endian float32 blob.
func Encode(vec []float32) []byte {
	out := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// Decode deserialises a little-endian float32 blob into a vector.
func Decode(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d not a multiple of 4", len(blob))
	}
	out := make([]float32, len(blob)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out, nil
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Mismatched dimensions or zero vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		af := float64(a[i])
		bf := float64(b[i])
		dot += af * bf
		na += af * af
		nb += bf * bf
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
