package hotpath

import "sync/atomic"

// InvocationQueue is a bounded multi-producer multi-consumer queue.
// TryPush and TryPop never block: a full queue rejects the push, an
// empty queue returns nothing, and the caller decides what to do next.
//
// Each slot carries a sequence counter; producers and consumers claim a
// position with a compare-and-swap on the head or tail cursor and then
// hand the slot over by advancing its sequence, so no lock is held at
// any point.
type InvocationQueue[T any] struct {
	mask  uint64
	slots []queueSlot[T]
	// head is the next pop position, tail the next push position.
	// Padded apart so producers and consumers do not share a cache line.
	head atomic.Uint64
	_    [56]byte
	tail atomic.Uint64
}

type queueSlot[T any] struct {
	seq atomic.Uint64
	val T
}

// NewQueue creates a queue with at least the requested capacity,
// rounded up to a power of two (minimum 2).
func NewQueue[T any](capacity int) *InvocationQueue[T] {
	size := uint64(2)
	for size < uint64(capacity) {
		size <<= 1
	}
	q := &InvocationQueue[T]{
		mask:  size - 1,
		slots: make([]queueSlot[T], size),
	}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q
}

// TryPush enqueues v, or returns false if the queue is full.
func (q *InvocationQueue[T]) TryPush(v T) bool {
	for {
		pos := q.tail.Load()
		slot := &q.slots[pos&q.mask]
		seq := slot.seq.Load()
		switch diff := int64(seq) - int64(pos); {
		case diff == 0:
			if q.tail.CompareAndSwap(pos, pos+1) {
				slot.val = v
				slot.seq.Store(pos + 1)
				return true
			}
		case diff < 0:
			// The slot has not been consumed since the last lap: full.
			return false
		}
		// Another producer claimed this position; reload and retry.
	}
}

// TryPop dequeues the oldest value, or returns false if the queue is
// empty.
func (q *InvocationQueue[T]) TryPop() (T, bool) {
	for {
		pos := q.head.Load()
		slot := &q.slots[pos&q.mask]
		seq := slot.seq.Load()
		switch diff := int64(seq) - int64(pos+1); {
		case diff == 0:
			if q.head.CompareAndSwap(pos, pos+1) {
				v := slot.val
				var zero T
				slot.val = zero
				slot.seq.Store(pos + q.mask + 1)
				return v, true
			}
		case diff < 0:
			var zero T
			return zero, false
		}
	}
}

// Len returns the approximate number of queued values. Exact only when
// no push or pop is in flight.
func (q *InvocationQueue[T]) Len() int {
	return int(q.tail.Load() - q.head.Load())
}

// Cap returns the queue's capacity.
func (q *InvocationQueue[T]) Cap() int {
	return len(q.slots)
}
