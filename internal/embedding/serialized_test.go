package embedding

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/pkg/platform/sentinel"
)

// overlapProvider records whether two Embed calls were ever in flight at once.
type overlapProvider struct {
	inFlight   atomic.Int32
	overlapped atomic.Bool
}

func (p *overlapProvider) Embed(context.Context, []byte) ([]float64, error) {
	if p.inFlight.Add(1) > 1 {
		p.overlapped.Store(true)
	}
	time.Sleep(time.Millisecond)
	p.inFlight.Add(-1)
	return []float64{1, 2, 3}, nil
}

func (p *overlapProvider) Dim() int { return 3 }

func TestSerialize_AdmitsOneCallAtATime(t *testing.T) {
	inner := &overlapProvider{}
	s := Serialize(inner)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Embed(ctx, []byte("img"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, inner.overlapped.Load(), "two embeddings ran concurrently through the serialized provider")
	assert.Equal(t, 3, s.Dim())
}

// heldProvider blocks inside Embed until released, keeping the single slot
// occupied.
type heldProvider struct {
	entered chan struct{}
	release chan struct{}
}

func (p *heldProvider) Embed(context.Context, []byte) ([]float64, error) {
	p.entered <- struct{}{}
	<-p.release
	return []float64{1, 2, 3}, nil
}

func (p *heldProvider) Dim() int { return 3 }

func TestSerialize_CancelledWaiterGivesUp(t *testing.T) {
	inner := &heldProvider{entered: make(chan struct{}), release: make(chan struct{})}
	s := Serialize(inner)

	done := make(chan error, 1)
	go func() {
		_, err := s.Embed(context.Background(), []byte("img"))
		done <- err
	}()
	<-inner.entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Embed(ctx, []byte("img"))
	require.ErrorIs(t, err, sentinel.ErrUnavailable)

	close(inner.release)
	require.NoError(t, <-done)
}
