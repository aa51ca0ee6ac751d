package hotpath

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue[int](4)

	for i := 1; i <= 3; i++ {
		require.True(t, q.TryPush(i))
	}
	assert.Equal(t, 3, q.Len())

	for i := 1; i <= 3; i++ {
		v, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := q.TryPop()
	assert.False(t, ok, "drained queue pops nothing")
}

func TestQueue_FullRejectsPush(t *testing.T) {
	q := NewQueue[int](2)

	require.True(t, q.TryPush(1))
	require.True(t, q.TryPush(2))
	assert.False(t, q.TryPush(3), "full queue rejects rather than blocks")

	v, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.True(t, q.TryPush(3), "pop frees a slot")
}

func TestQueue_CapacityRoundsUp(t *testing.T) {
	assert.Equal(t, 8, NewQueue[int](5).Cap())
	assert.Equal(t, 2, NewQueue[int](0).Cap())
}

func TestQueue_WrapAround(t *testing.T) {
	q := NewQueue[int](2)

	for lap := 0; lap < 10; lap++ {
		require.True(t, q.TryPush(lap))
		v, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, lap, v)
	}
}

func TestQueue_ConcurrentProducersConsumers(t *testing.T) {
	const (
		producers = 4
		consumers = 4
		perProd   = 500
	)
	q := NewQueue[HotPathContext](64)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProd; i++ {
				ctx := HotPathContext{Agent: uint64(p), CorrHash: uint64(p*perProd + i)}
				for !q.TryPush(ctx) {
				}
			}
		}(p)
	}

	var mu sync.Mutex
	received := make(map[uint64]struct{}, producers*perProd)
	done := make(chan struct{})
	var cwg sync.WaitGroup
	for c := 0; c < consumers; c++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				ctx, ok := q.TryPop()
				if !ok {
					select {
					case <-done:
						// Drain whatever the producers finished with.
						if ctx, ok := q.TryPop(); ok {
							mu.Lock()
							received[ctx.CorrHash] = struct{}{}
							mu.Unlock()
							continue
						}
						return
					default:
						continue
					}
				}
				mu.Lock()
				received[ctx.CorrHash] = struct{}{}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	close(done)
	cwg.Wait()

	assert.Len(t, received, producers*perProd, "every pushed context is popped exactly once")
}
