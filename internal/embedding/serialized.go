package embedding

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Serialized admits one Embed call at a time. Use it when the underlying
// inference runtime is not safe for concurrent invocation; otherwise the
// provider is invoked concurrently by request workers.
type Serialized struct {
	inner Provider
	sem   *semaphore.Weighted
}

// Serialize wraps inner behind a single-flight queue.
func Serialize(inner Provider) *Serialized {
	return &Serialized{inner: inner, sem: semaphore.NewWeighted(1)}
}

func (s *Serialized) Embed(ctx context.Context, image []byte) ([]float64, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, Unavailable(err)
	}
	defer s.sem.Release(1)
	return s.inner.Embed(ctx, image)
}

func (s *Serialized) Dim() int { return s.inner.Dim() }
