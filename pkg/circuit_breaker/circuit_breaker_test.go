package circuit_breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(clock *fakeClock) *circuitBreaker {
	cb := NewCircuitBreaker(4, time.Minute, 0.5, 2).(*circuitBreaker)
	cb.now = clock.now
	return cb
}

var (
	successfulService = func() error { return nil }
	errService        = errors.New("service error")
	failingService    = func() error { return errService }
)

func Test_circuitBreaker_Call(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		run       func(t *testing.T, cb *circuitBreaker, clock *fakeClock)
		wantState Status
	}{
		{
			name: "stays closed on success",
			run: func(t *testing.T, cb *circuitBreaker, _ *fakeClock) {
				for i := 0; i < 10; i++ {
					require.NoError(t, cb.Call(successfulService))
				}
			},
			wantState: Closed,
		},
		{
			name: "opens after failure ratio",
			run: func(t *testing.T, cb *circuitBreaker, _ *fakeClock) {
				require.ErrorIs(t, cb.Call(failingService), errService)
				require.Equal(t, Closed, cb.State())
				require.ErrorIs(t, cb.Call(failingService), errService)
				require.ErrorIs(t, cb.Call(successfulService), ErrOpenCB)
			},
			wantState: Open,
		},
		{
			name: "half open recovers",
			run: func(t *testing.T, cb *circuitBreaker, clock *fakeClock) {
				_ = cb.Call(failingService)
				_ = cb.Call(failingService)
				clock.advance(2 * time.Minute)
				require.NoError(t, cb.Call(successfulService))
				require.Equal(t, HalfOpen, cb.State())
				require.NoError(t, cb.Call(successfulService))
			},
			wantState: Closed,
		},
		{
			name: "half open failure reopens",
			run: func(t *testing.T, cb *circuitBreaker, clock *fakeClock) {
				_ = cb.Call(failingService)
				_ = cb.Call(failingService)
				clock.advance(2 * time.Minute)
				require.ErrorIs(t, cb.Call(failingService), errService)
				require.ErrorIs(t, cb.Call(successfulService), ErrOpenCB)
			},
			wantState: Open,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
			cb := newTestBreaker(clock)
			tt.run(t, cb, clock)
			require.Equal(t, tt.wantState, cb.State())
		})
	}
}
