package embedding

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/pkg/platform/sentinel"
)

type mapBackend struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	sets   int
}

func newMapBackend() *mapBackend {
	return &mapBackend{data: make(map[string][]byte)}
}

func (b *mapBackend) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.getErr != nil {
		return nil, false, b.getErr
	}
	value, ok := b.data[key]
	return value, ok, nil
}

func (b *mapBackend) SetBytes(_ context.Context, key string, value []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
	b.sets++
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestCachedProvider(t *testing.T) {
	ctx := context.Background()
	image := []byte("signature-image")
	vector := []float64{1, 2, 3}

	newCached := func(backend CacheBackend) (*Static, *Cached) {
		inner := NewStatic(3)
		inner.Learn(image, vector)
		return inner, NewCached(inner, backend, time.Hour, discardLogger())
	}

	t.Run("miss computes and stores", func(t *testing.T) {
		backend := newMapBackend()
		_, cached := newCached(backend)

		got, err := cached.Embed(ctx, image)
		require.NoError(t, err)
		assert.Equal(t, vector, got)
		assert.Equal(t, 1, backend.sets)
	})

	t.Run("hit skips the provider", func(t *testing.T) {
		backend := newMapBackend()
		inner, cached := newCached(backend)

		_, err := cached.Embed(ctx, image)
		require.NoError(t, err)

		// Break the inner provider; the cached value must still come back.
		inner.Err = errors.New("model crashed")
		got, err := cached.Embed(ctx, image)
		require.NoError(t, err)
		assert.Equal(t, vector, got)
	})

	t.Run("backend failure degrades to computing", func(t *testing.T) {
		backend := newMapBackend()
		backend.getErr = errors.New("redis down")
		_, cached := newCached(backend)

		got, err := cached.Embed(ctx, image)
		require.NoError(t, err)
		assert.Equal(t, vector, got)
	})

	t.Run("provider failure is not cached", func(t *testing.T) {
		backend := newMapBackend()
		_, cached := newCached(backend)

		_, err := cached.Embed(ctx, []byte("unknown-image"))
		require.Error(t, err)
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
		assert.Equal(t, 0, backend.sets)
	})
}

func TestVectorRoundTrip(t *testing.T) {
	vec := []float64{0.25, -1.5, 3.14159, 0}
	decoded, err := decodeVector(encodeVector(vec), len(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)

	_, err = decodeVector([]byte{1, 2, 3}, len(vec))
	require.Error(t, err)
}

func TestSerializedAdmitsOneAtATime(t *testing.T) {
	inner := NewStatic(1)
	inner.Learn([]byte("img"), []float64{1})
	provider := Serialize(inner)

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := provider.Embed(context.Background(), []byte("img"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestSerializedHonorsContext(t *testing.T) {
	inner := NewStatic(1)
	inner.Learn([]byte("img"), []float64{1})
	provider := Serialize(inner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := provider.Embed(ctx, []byte("img"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}
