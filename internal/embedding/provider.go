// Package embedding wraps the external signature-embedding model behind an
// explicit interface. The model's architecture and training are not this
// module's business; only its contract is: raw image bytes in, a fixed-length
// float vector out, deterministic for identical input.
//
// The inference service owns canonical preprocessing: resize to 224x224,
// scale channels to [0,1], and invert polarity so ink strokes are
// high-valued. Callers here send the original image bytes untouched.
package embedding

import (
	"context"
	"fmt"

	"signet/pkg/platform/sentinel"
)

// Provider computes a fixed-length embedding for a signature image.
//
// Embed fails with a sentinel.ErrUnavailable-wrapped error when the model
// is not loaded, the service is unreachable, or the bytes cannot be decoded
// as an image. Services translate that into the embedding_unavailable
// domain error.
type Provider interface {
	Embed(ctx context.Context, image []byte) ([]float64, error)

	// Dim is the vector length the provider produces. Fixed for the life of
	// the process; every enrolled row carries a vector of exactly this
	// length.
	Dim() int
}

// Unavailable wraps cause as a provider-unavailable fact. errors.Is against
// sentinel.ErrUnavailable matches the result.
func Unavailable(cause error) error {
	if cause == nil {
		return sentinel.ErrUnavailable
	}
	return fmt.Errorf("%w: %s", sentinel.ErrUnavailable, cause)
}
