package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// CacheBackend is the key-value surface the cache needs. The Redis client
// wrapper (internal/platform/redis) implements it.
type CacheBackend interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cached memoizes embeddings by image content hash. The provider is
// deterministic for identical input, so a cache hit is exact, not
// approximate. Cache failures degrade to computing the embedding; they are
// logged and never surfaced.
type Cached struct {
	inner   Provider
	backend CacheBackend
	ttl     time.Duration
	logger  *slog.Logger
}

// NewCached wraps inner with a content-addressed cache.
func NewCached(inner Provider, backend CacheBackend, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{inner: inner, backend: backend, ttl: ttl, logger: logger}
}

func (c *Cached) Embed(ctx context.Context, image []byte) ([]float64, error) {
	key := c.key(image)

	if raw, ok, err := c.backend.GetBytes(ctx, key); err != nil {
		c.logger.WarnContext(ctx, "embedding cache read failed", "error", err)
	} else if ok {
		if vec, err := decodeVector(raw, c.inner.Dim()); err == nil {
			return vec, nil
		}
		// Undecodable entry: fall through and overwrite it.
	}

	vec, err := c.inner.Embed(ctx, image)
	if err != nil {
		return nil, err
	}

	if err := c.backend.SetBytes(ctx, key, encodeVector(vec), c.ttl); err != nil {
		c.logger.WarnContext(ctx, "embedding cache write failed", "error", err)
	}
	return vec, nil
}

func (c *Cached) Dim() int { return c.inner.Dim() }

func (c *Cached) key(image []byte) string {
	sum := sha256.Sum256(image)
	return fmt.Sprintf("signet:embedding:%x", sum)
}

func encodeVector(vec []float64) []byte {
	out := make([]byte, 8*len(vec))
	for i, v := range vec {
		binary.BigEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}

func decodeVector(raw []byte, dim int) ([]float64, error) {
	if len(raw) != 8*dim {
		return nil, fmt.Errorf("cached vector has %d bytes, want %d", len(raw), 8*dim)
	}
	vec := make([]float64, dim)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.BigEndian.Uint64(raw[i*8:]))
	}
	return vec, nil
}
