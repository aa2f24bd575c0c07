// Package queue provides the byte queues that carry completed PS/2 frames
// from the edge handler to the consumer.
//
// Three queues are provided, one per scheduling model:
//
//   - [Ring]: an index-pair ring with no internal locking. Producer and
//     consumer both access it inside a critical section
//     (package critical). When it fills up
//     the [Policy] decides whether the oldest item is overwritten (the
//     default) or the newest is rejected.
//   - [SPSC]: a lock-free ring with atomic head and tail indices, sized to a
//     power of two. Safe for exactly one producer and one consumer without a
//     critical section.
//   - [Pipe]: a suspending bounded queue for task-based scheduling. The
//     producer waits while it is full and the consumer waits while it is empty.
//
// # Ring Fullness
//
// A ring of N slots holds at most N-1 items. With [OverwriteOldest], the
// N-th consecutive Enqueue without a Dequeue stores its item, drops the
// oldest unread item, and returns false:
//
//	r, _ := queue.NewRing[byte](5, queue.OverwriteOldest)
//	for b := byte(1); b <= 5; b++ {
//	    r.Enqueue(b) // true, true, true, true, false
//	}
//	r.Dequeue() // 2, true
//
// None of the queues allocate after construction.
package queue
