package hotpath

import (
	"sync/atomic"
	"unsafe"
)

// InvocationArena is a bump allocator over a fixed buffer, for the
// transient records of one dispatch batch. Alloc is safe for concurrent
// use: the offset advances with a compare-and-swap, retrying on
// contention. Reset is single-writer only and must not race with Alloc
// or with use of previously returned pointers.
type InvocationArena struct {
	buf []byte
	off atomic.Int64
}

// NewArena creates an arena with the given capacity in bytes.
func NewArena(capacity int) *InvocationArena {
	return &InvocationArena{buf: make([]byte, capacity)}
}

// Alloc reserves aligned space for v, writes it in place, and returns a
// pointer into the arena. Returns nil, false once capacity is
// exhausted; the caller falls back to the regular pipeline.
//
// T must not contain pointers: the backing buffer is opaque to the
// garbage collector.
func Alloc[T any](a *InvocationArena, v T) (*T, bool) {
	size := int64(unsafe.Sizeof(v))
	align := int64(unsafe.Alignof(v))
	for {
		cur := a.off.Load()
		start := (cur + align - 1) &^ (align - 1)
		if start+size > int64(len(a.buf)) {
			return nil, false
		}
		if a.off.CompareAndSwap(cur, start+size) {
			p := (*T)(unsafe.Pointer(&a.buf[start]))
			*p = v
			return p, true
		}
	}
}

// Reset rewinds the arena for the next batch. The caller must guarantee
// that no pointer returned by Alloc is still in use and that no Alloc
// is concurrently in flight.
func (a *InvocationArena) Reset() {
	a.off.Store(0)
}

// Used returns the number of bytes currently allocated.
func (a *InvocationArena) Used() int {
	return int(a.off.Load())
}

// Capacity returns the arena's total size in bytes.
func (a *InvocationArena) Capacity() int {
	return len(a.buf)
}
