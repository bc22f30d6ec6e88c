// hashing.go is the built-in embedder: feature-hashed character trigrams.
// No model download, no network, deterministic across runs. Quality is far
// below a real sentence encoder but good enough for local similarity search
// over short annotation texts, and it keeps `annotate search` working out of
// the box.

package embedder

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

// Hashing embeds text by hashing character trigrams into a fixed-size
// vector and L2-normalising it.
type Hashing struct {
	dims int
}

// NewHashing returns a hashing embedder of the given dimension. The
// dimension must be one of SupportedDims.
func NewHashing(dims int) (*Hashing, error) {
	if !SupportedDims[dims] {
		return nil, fmt.Errorf("unsupported embedding dimension %d", dims)
	}
	return &Hashing{dims: dims}, nil
}

var _ Embedder = (*Hashing)(nil)

func (h *Hashing) Path() string {
	return fmt.Sprintf("local/trigram-hash-%d", h.dims)
}

func (h *Hashing) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dims)
	norm := strings.ToLower(strings.Join(strings.Fields(text), " "))
	if norm == "" {
		return vec, nil
	}

	runes := []rune(" " + norm + " ")
	for i := 0; i+3 <= len(runes); i++ {
		f := fnv.New32a()
		f.Write([]byte(string(runes[i : i+3])))
		sum := f.Sum32()
		idx := int(sum) % h.dims
		if idx < 0 {
			idx += h.dims
		}
		// Top bit picks the sign so collisions partially cancel instead of
		// always accumulating.
		if sum&0x80000000 != 0 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var n float64
	for _, v := range vec {
		n += float64(v) * float64(v)
	}
	if n > 0 {
		inv := float32(1 / math.Sqrt(n))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}
