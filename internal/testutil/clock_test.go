package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedClock_HoldsStill(t *testing.T) {
	base := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	clock := NewFixedClock(base)

	assert.Equal(t, base, clock.Now())
	assert.Equal(t, base, clock.Now(), "time does not move on its own")
}

func TestFixedClock_AdvanceAndSet(t *testing.T) {
	base := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	clock := NewFixedClock(base)

	assert.Equal(t, base.Add(time.Hour), clock.Advance(time.Hour))
	assert.Equal(t, base.Add(time.Hour), clock.Now())

	clock.Set(base)
	assert.Equal(t, base, clock.Now())
}

func TestFixedClock_Tick(t *testing.T) {
	base := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	clock := NewFixedClock(base)
	tick := clock.Tick(time.Minute)

	assert.Equal(t, base.Add(time.Minute), tick())
	assert.Equal(t, base.Add(2*time.Minute), tick())
}

func TestFixedClock_ConcurrentAdvance(t *testing.T) {
	base := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	clock := NewFixedClock(base)

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
		}()
	}
	wg.Wait()

	assert.Equal(t, base.Add(workers*time.Second), clock.Now())
}
