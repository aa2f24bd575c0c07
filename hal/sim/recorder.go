package sim

import (
	"context"
	"sync"

	"github.com/ardnew/softps2/hal"
	"github.com/ardnew/softps2/pkg"
)

// Recorder is a hal.Sink that stores every byte written to it and can be
// told to fail upcoming writes.
type Recorder struct {
	mutex    sync.Mutex
	data     []byte
	attempts int
	failNext int
	changed  chan struct{} // Closed and replaced on every write attempt
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{changed: make(chan struct{})}
}

// WriteByte records b, or fails with pkg.ErrSinkWrite if a failure is
// pending.
func (r *Recorder) WriteByte(b byte) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.attempts++
	close(r.changed)
	r.changed = make(chan struct{})

	if r.failNext > 0 {
		r.failNext--
		return pkg.ErrSinkWrite
	}
	r.data = append(r.data, b)
	return nil
}

// FailNext makes the next n writes fail.
func (r *Recorder) FailNext(n int) {
	r.mutex.Lock()
	r.failNext = n
	r.mutex.Unlock()
}

// Bytes returns a copy of the recorded bytes.
func (r *Recorder) Bytes() []byte {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]byte(nil), r.data...)
}

// Attempts returns the number of WriteByte calls, including failed ones.
func (r *Recorder) Attempts() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.attempts
}

// WaitAttempts blocks until at least n writes have been attempted.
func (r *Recorder) WaitAttempts(ctx context.Context, n int) error {
	return r.wait(ctx, func() bool { return r.attempts >= n })
}

// WaitLen blocks until at least n bytes have been recorded.
func (r *Recorder) WaitLen(ctx context.Context, n int) error {
	return r.wait(ctx, func() bool { return len(r.data) >= n })
}

func (r *Recorder) wait(ctx context.Context, done func() bool) error {
	for {
		r.mutex.Lock()
		if done() {
			r.mutex.Unlock()
			return nil
		}
		changed := r.changed
		r.mutex.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// Reset discards recorded bytes and pending failures.
func (r *Recorder) Reset() {
	r.mutex.Lock()
	r.data = nil
	r.attempts = 0
	r.failNext = 0
	r.mutex.Unlock()
}

var _ hal.Sink = (*Recorder)(nil)
