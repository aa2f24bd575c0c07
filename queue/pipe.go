package queue

import (
	"context"
	"sync"

	"github.com/ardnew/softps2/pkg"
)

// Pipe is a bounded FIFO whose sides suspend instead of failing: Send waits
// while the pipe is full and Receive waits while it is empty.
//
// Wakeups are edge-triggered. A waiter is signalled when the pipe changes
// from full to not-full (or empty to non-empty) and must re-check the ring
// after waking, so a stale or spurious signal is harmless.
type Pipe[T any] struct {
	mutex    sync.Mutex
	ring     *Ring[T]
	closed   bool
	notEmpty chan struct{}
	notFull  chan struct{}
	done     chan struct{} // Closed by Close, replaced by Reopen
}

// NewPipe creates a pipe backed by a ring with the given number of slots.
func NewPipe[T any](capacity int) (*Pipe[T], error) {
	ring, err := NewRing[T](capacity, RejectNewest)
	if err != nil {
		return nil, err
	}
	return &Pipe[T]{
		ring:     ring,
		notEmpty: make(chan struct{}, 1),
		notFull:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// signal wakes at most one waiter without blocking.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Send appends v, suspending while the pipe is full. It returns ctx.Err()
// if the context ends first, or pkg.ErrClosed after Close.
func (p *Pipe[T]) Send(ctx context.Context, v T) error {
	for {
		p.mutex.Lock()
		if p.closed {
			p.mutex.Unlock()
			return pkg.ErrClosed
		}
		if !p.ring.IsFull() {
			p.ring.Enqueue(v)
			p.mutex.Unlock()
			signal(p.notEmpty)
			return nil
		}
		done := p.done
		p.mutex.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
		case <-p.notFull:
		}
	}
}

// TrySend appends v if there is room, without suspending.
func (p *Pipe[T]) TrySend(v T) bool {
	p.mutex.Lock()
	if p.closed || p.ring.IsFull() {
		p.mutex.Unlock()
		return false
	}
	p.ring.Enqueue(v)
	p.mutex.Unlock()
	signal(p.notEmpty)
	return true
}

// Receive removes the oldest item, suspending while the pipe is empty.
// Items sent before Close are still delivered; once the pipe is closed and
// drained Receive returns pkg.ErrClosed.
func (p *Pipe[T]) Receive(ctx context.Context) (T, error) {
	for {
		p.mutex.Lock()
		v, ok := p.ring.Dequeue()
		closed, done := p.closed, p.done
		p.mutex.Unlock()

		if ok {
			signal(p.notFull)
			return v, nil
		}
		if closed {
			var zero T
			return zero, pkg.ErrClosed
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-done:
		case <-p.notEmpty:
		}
	}
}

// TryReceive removes the oldest item if there is one, without suspending.
func (p *Pipe[T]) TryReceive() (T, bool) {
	p.mutex.Lock()
	v, ok := p.ring.Dequeue()
	p.mutex.Unlock()
	if ok {
		signal(p.notFull)
	}
	return v, ok
}

// Len returns the number of queued items.
func (p *Pipe[T]) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.ring.Len()
}

// Close stops further sends and wakes all waiters. Safe to call repeatedly.
func (p *Pipe[T]) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if !p.closed {
		p.closed = true
		close(p.done)
	}
}

// Reopen makes a closed pipe accept sends again. Items still queued are
// kept and delivered first. Reopen must not race with Send or Receive.
func (p *Pipe[T]) Reopen() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.closed {
		p.closed = false
		p.done = make(chan struct{})
	}
}
