package queue

import (
	"math/bits"
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/ardnew/softps2/pkg"
)

// SPSC is a lock-free bounded single-producer single-consumer queue.
//
// The capacity is rounded up to a power of two so index wrap is a mask.
// head and tail grow without bound and are only ever stored by their owning
// side, so neither side can observe a torn index pair. Exactly one goroutine
// (or interrupt context) may call Enqueue and exactly one may call Dequeue.
type SPSC[T any] struct {
	_ cpu.CacheLinePad

	head atomic.Uint64 // Next slot to read, owned by the consumer

	_ cpu.CacheLinePad

	tail atomic.Uint64 // Next slot to write, owned by the producer

	_ cpu.CacheLinePad

	mask  uint64
	slots []T
}

// NewSPSC creates a queue holding at least capacity items.
func NewSPSC[T any](capacity int) (*SPSC[T], error) {
	if capacity < 1 {
		return nil, pkg.ErrInvalidParameter
	}
	size := uint64(1)
	if capacity > 1 {
		size = 1 << bits.Len64(uint64(capacity-1))
	}
	return &SPSC[T]{
		mask:  size - 1,
		slots: make([]T, size),
	}, nil
}

// Enqueue adds an item. Returns false, leaving the queue unchanged, if full.
func (q *SPSC[T]) Enqueue(item T) bool {
	tail := q.tail.Load()
	if tail-q.head.Load() > q.mask {
		return false
	}
	q.slots[tail&q.mask] = item
	q.tail.Store(tail + 1)
	return true
}

// Dequeue removes an item. Returns false without blocking if empty.
func (q *SPSC[T]) Dequeue() (T, bool) {
	var zero T
	head := q.head.Load()
	if head == q.tail.Load() {
		return zero, false
	}
	item := q.slots[head&q.mask]
	q.slots[head&q.mask] = zero
	q.head.Store(head + 1)
	return item, true
}

// Len returns a snapshot of the number of queued items.
func (q *SPSC[T]) Len() int {
	head := q.head.Load() // load head first so tail-head cannot underflow
	return int(q.tail.Load() - head)
}

// IsEmpty reports whether the queue appeared empty at the time of the call.
func (q *SPSC[T]) IsEmpty() bool {
	return q.Len() == 0
}

// Capacity returns the number of items the queue can hold.
func (q *SPSC[T]) Capacity() int {
	return len(q.slots)
}
