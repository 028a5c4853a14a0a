package circuit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

type BreakerSuite struct {
	suite.Suite
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) open(b *Breaker) {
	for !b.IsOpen() {
		b.RecordFailure()
	}
}

func (s *BreakerSuite) TestDefaults() {
	b := New("audit-kafka")
	s.Equal("audit-kafka", b.Name())
	s.Equal(StateClosed, b.State())
	s.Equal("closed", b.State().String())

	for i := 0; i < 4; i++ {
		useFallback, _ := b.RecordFailure()
		s.False(useFallback)
	}
	useFallback, change := b.RecordFailure()
	s.True(useFallback)
	s.True(change.Opened)
	s.Equal("open", b.State().String())
}

func (s *BreakerSuite) TestOpening() {
	s.Run("opens exactly at the failure threshold", func() {
		b := New("sink", WithFailureThreshold(3))
		for i := 0; i < 2; i++ {
			useFallback, change := b.RecordFailure()
			s.False(useFallback)
			s.False(change.Opened)
		}
		useFallback, change := b.RecordFailure()
		s.True(useFallback)
		s.True(change.Opened)
	})

	s.Run("a success while closed clears the failure count", func() {
		b := New("sink", WithFailureThreshold(3))
		b.RecordFailure()
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		b.RecordFailure()
		s.False(b.IsOpen())
		b.RecordFailure()
		s.True(b.IsOpen())
	})

	s.Run("further failures report no transition", func() {
		b := New("sink", WithFailureThreshold(1))
		s.open(b)
		useFallback, change := b.RecordFailure()
		s.True(useFallback)
		s.False(change.Opened)
	})

	s.Run("non-positive thresholds keep the default", func() {
		b := New("sink", WithFailureThreshold(0))
		for i := 0; i < 4; i++ {
			b.RecordFailure()
		}
		s.False(b.IsOpen())
	})
}

func (s *BreakerSuite) TestClosing() {
	s.Run("closes after consecutive successes", func() {
		b := New("sink", WithFailureThreshold(1), WithSuccessThreshold(2))
		s.open(b)

		usePrimary, change := b.RecordSuccess()
		s.False(usePrimary)
		s.False(change.Closed)

		usePrimary, change = b.RecordSuccess()
		s.True(usePrimary)
		s.True(change.Closed)
		s.Equal(StateClosed, b.State())
	})

	s.Run("a failure while open restarts the success count", func() {
		b := New("sink", WithFailureThreshold(1), WithSuccessThreshold(3))
		s.open(b)
		b.RecordSuccess()
		b.RecordSuccess()
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordSuccess()
		s.True(b.IsOpen())
		b.RecordSuccess()
		s.False(b.IsOpen())
	})

	s.Run("reset closes immediately", func() {
		b := New("sink", WithFailureThreshold(1))
		s.open(b)
		b.Reset()
		s.Equal(StateClosed, b.State())
	})
}

// TestConcurrentRecording is meaningful under -race.
func (s *BreakerSuite) TestConcurrentRecording() {
	b := New("sink", WithFailureThreshold(1000))
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				b.RecordFailure()
			} else {
				b.RecordSuccess()
			}
			_ = b.State()
		}(i)
	}
	wg.Wait()
	s.False(b.IsOpen())
}
