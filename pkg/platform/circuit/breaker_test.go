package circuit

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type BreakerSuite struct {
	suite.Suite
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) TestStartsClosed() {
	b := New("embedding")
	s.False(b.IsOpen())
	s.Equal(StateClosed, b.State())
	s.Equal("embedding", b.Name())
}

func (s *BreakerSuite) TestOpensOnConsecutiveFailures() {
	b := New("embedding", WithFailureThreshold(3))

	for i := 0; i < 2; i++ {
		useFallback, change := b.RecordFailure()
		s.False(useFallback, "failure %d must not trip the breaker", i+1)
		s.False(change.Opened)
	}

	useFallback, change := b.RecordFailure()
	s.True(useFallback)
	s.True(change.Opened, "the threshold failure reports the transition exactly once")
	s.True(b.IsOpen())
}

func (s *BreakerSuite) TestFailuresWhileOpenReportNoTransition() {
	b := New("embedding", WithFailureThreshold(1))
	b.RecordFailure()

	useFallback, change := b.RecordFailure()
	s.True(useFallback)
	s.False(change.Opened)
}

func (s *BreakerSuite) TestClosesOnConsecutiveSuccesses() {
	b := New("embedding", WithFailureThreshold(1), WithSuccessThreshold(2))
	b.RecordFailure()
	s.Require().True(b.IsOpen())

	usePrimary, change := b.RecordSuccess()
	s.False(usePrimary)
	s.False(change.Closed)
	s.True(b.IsOpen())

	usePrimary, change = b.RecordSuccess()
	s.True(usePrimary)
	s.True(change.Closed)
	s.False(b.IsOpen())
}

func (s *BreakerSuite) TestStreaksMustBeConsecutive() {
	s.Run("a success clears accumulated failures", func() {
		b := New("embedding", WithFailureThreshold(3))
		b.RecordFailure()
		b.RecordFailure()
		b.RecordSuccess()

		b.RecordFailure()
		b.RecordFailure()
		s.False(b.IsOpen())
		b.RecordFailure()
		s.True(b.IsOpen())
	})

	s.Run("a failure clears accumulated successes", func() {
		b := New("embedding", WithFailureThreshold(1), WithSuccessThreshold(3))
		b.RecordFailure()

		b.RecordSuccess()
		b.RecordSuccess()
		b.RecordFailure()

		b.RecordSuccess()
		b.RecordSuccess()
		s.True(b.IsOpen())
		b.RecordSuccess()
		s.False(b.IsOpen())
	})
}

func (s *BreakerSuite) TestResetForcesClosed() {
	b := New("embedding", WithFailureThreshold(1))
	b.RecordFailure()
	s.Require().True(b.IsOpen())

	b.Reset()
	s.False(b.IsOpen())
	s.Equal(StateClosed, b.State())
}
