package embedding

import (
	"context"
	"fmt"
)

// Static is a deterministic in-process provider for tests. It maps exact
// image bytes to preset vectors and reports ErrUnavailable for anything
// unknown, mimicking an undecodable image.
type Static struct {
	dim     int
	vectors map[string][]float64

	// Err, when set, makes every Embed call fail with it.
	Err error
}

// NewStatic constructs a Static provider of the given dimensionality.
func NewStatic(dim int) *Static {
	return &Static{dim: dim, vectors: make(map[string][]float64)}
}

// Learn registers image bytes with the vector Embed should return for them.
// Panics if the vector length violates the provider contract; tests should
// fail loudly on that mistake.
func (s *Static) Learn(image []byte, vec []float64) {
	if len(vec) != s.dim {
		panic(fmt.Sprintf("static provider: vector length %d, dim %d", len(vec), s.dim))
	}
	s.vectors[string(image)] = vec
}

func (s *Static) Embed(_ context.Context, image []byte) ([]float64, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	vec, ok := s.vectors[string(image)]
	if !ok {
		return nil, Unavailable(fmt.Errorf("input cannot be decoded as an image"))
	}
	out := make([]float64, len(vec))
	copy(out, vec)
	return out, nil
}

func (s *Static) Dim() int { return s.dim }
