package queue

import "github.com/ardnew/softps2/pkg"

// MinCapacity is the smallest ring capacity. One slot is always left empty
// to tell a full ring from an empty one, so a ring of N slots holds N-1 items.
const MinCapacity = 2

// DefaultCapacity is the ring capacity used when none is configured.
const DefaultCapacity = 5

// Policy selects what Enqueue does when the ring is full.
type Policy uint8

// Overrun policies.
const (
	// OverwriteOldest always stores the new item. If that fills the last
	// free slot, the oldest unread item is dropped and Enqueue reports false.
	OverwriteOldest Policy = iota

	// RejectNewest leaves the ring untouched when full and reports false.
	RejectNewest
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case OverwriteOldest:
		return "overwrite-oldest"
	case RejectNewest:
		return "reject-newest"
	default:
		return "unknown"
	}
}

// Ring is a fixed-capacity FIFO shared by one producer and one consumer.
//
// Ring performs no synchronization of its own. Both sides must access it
// from inside the same critical section (see package critical), including
// the index updates.
type Ring[T any] struct {
	slots  []T
	read   int
	write  int
	policy Policy
}

// NewRing creates a ring with the given number of slots. All storage is
// allocated here; Enqueue and Dequeue never allocate.
func NewRing[T any](capacity int, policy Policy) (*Ring[T], error) {
	if capacity < MinCapacity {
		return nil, pkg.ErrInvalidParameter
	}
	return &Ring[T]{
		slots:  make([]T, capacity),
		policy: policy,
	}, nil
}

// Enqueue stores item at the write slot and advances the write index.
//
// The return value is false when the ring is full after the call. Under
// OverwriteOldest the item has still been stored, at the cost of the oldest
// unread item; under RejectNewest it was not stored.
func (r *Ring[T]) Enqueue(item T) bool {
	n := len(r.slots)
	next := (r.write + 1) % n
	if next == r.read && r.policy == RejectNewest {
		return false
	}

	r.slots[r.write] = item
	r.write = next

	if r.write == r.read {
		// Write caught up with read: drop the oldest so the indices again
		// describe N-1 items instead of an empty ring.
		var zero T
		r.slots[r.read] = zero
		r.read = (r.read + 1) % n
		return false
	}
	return true
}

// Dequeue removes and returns the item at the read slot. It returns false
// without blocking when the ring is empty.
func (r *Ring[T]) Dequeue() (T, bool) {
	var zero T
	if r.read == r.write {
		return zero, false
	}
	item := r.slots[r.read]
	r.slots[r.read] = zero
	r.read = (r.read + 1) % len(r.slots)
	return item, true
}

// IsEmpty reports whether the ring holds no items.
func (r *Ring[T]) IsEmpty() bool {
	return r.read == r.write
}

// IsFull reports whether the next Enqueue would overrun.
func (r *Ring[T]) IsFull() bool {
	return (r.write+1)%len(r.slots) == r.read
}

// Len returns the number of unread items.
func (r *Ring[T]) Len() int {
	n := len(r.slots)
	return (r.write - r.read + n) % n
}

// Capacity returns the number of slots, one more than the items it can hold.
func (r *Ring[T]) Capacity() int {
	return len(r.slots)
}

// Policy returns the overrun policy.
func (r *Ring[T]) Policy() Policy {
	return r.policy
}

// Reset discards all items.
func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.slots {
		r.slots[i] = zero
	}
	r.read, r.write = 0, 0
}
