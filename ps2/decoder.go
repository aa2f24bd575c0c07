package ps2

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardnew/softps2/critical"
	"github.com/ardnew/softps2/hal"
	"github.com/ardnew/softps2/pkg"
)

// Lines holds the clock and data line capabilities. They are moved into a
// critical.Cell at setup and afterwards only touched by the edge handler.
type Lines struct {
	Clock hal.ClockLine
	Data  hal.DataLine
}

// Queue carries completed bytes from the edge context to the consumer.
// Neither method may block. Both queue.Ring[byte] and queue.SPSC[byte]
// satisfy it.
type Queue interface {
	Enqueue(b byte) bool
	Dequeue() (byte, bool)
}

// Sender accepts completed bytes in task context and may suspend while the
// queue is full. queue.Pipe[byte] satisfies it.
type Sender interface {
	Send(ctx context.Context, b byte) error
}

// Decoder is the interrupt-driven bit sampler. Its HandleFallingEdge method
// is registered as the clock line's interrupt handler.
type Decoder struct {
	section *critical.Section
	lines   *critical.Cell[Lines]
	queue   *critical.Cell[Queue]
	sampler *Sampler
	stats   Stats
}

// NewDecoder creates an interrupt-mode decoder. The lines and queue cells
// must be guarded by section; the consumer dequeues inside the same section.
func NewDecoder(cfg Config, section *critical.Section, lines *critical.Cell[Lines], queue *critical.Cell[Queue]) (*Decoder, error) {
	if section == nil || lines == nil || queue == nil {
		return nil, pkg.ErrInvalidParameter
	}
	sampler, err := NewSampler(cfg)
	if err != nil {
		return nil, err
	}
	return &Decoder{
		section: section,
		lines:   lines,
		queue:   queue,
		sampler: sampler,
	}, nil
}

// HandleFallingEdge services one falling edge of the clock line.
//
// It runs entirely inside the critical section: sample the data line,
// acknowledge the interrupt, advance the sampler, and enqueue a completed
// byte. It never blocks, allocates, or logs. A byte that hits a full queue
// or fails an enabled check is only counted; the consumer reports counts.
func (d *Decoder) HandleFallingEdge() {
	d.section.Do(func(cs critical.Token) {
		lines := d.lines.Borrow(cs)
		if lines == nil {
			return
		}
		high := lines.Data.IsHigh()
		lines.Clock.ClearInterrupt()

		b, status, done := d.sampler.Sample(high)
		if !done {
			return
		}
		d.stats.frames.Add(1)
		if status != pkg.FrameOK {
			d.stats.rejected.Add(1)
			return
		}
		q := d.queue.Borrow(cs)
		if q == nil || !(*q).Enqueue(b) {
			d.stats.overruns.Add(1)
		}
	})
}

// Reset discards a partially received frame.
func (d *Decoder) Reset() {
	d.section.Do(func(critical.Token) { d.sampler.Reset() })
}

// Stats returns the decoder's counters.
func (d *Decoder) Stats() *Stats {
	return &d.stats
}

// Retry delays after a failed edge wait. The delay doubles per consecutive
// failure and is cleared by the next edge.
const (
	minRetryDelay = time.Millisecond
	maxRetryDelay = 100 * time.Millisecond
)

// Reader is the task-driven bit sampler. It suspends on each falling edge
// instead of being called from an interrupt.
type Reader struct {
	sampler *Sampler
	stats   Stats
}

// NewReader creates a task-mode decoder.
func NewReader(cfg Config) (*Reader, error) {
	sampler, err := NewSampler(cfg)
	if err != nil {
		return nil, err
	}
	return &Reader{sampler: sampler}, nil
}

// Run samples data at every falling edge reported by edges and sends each
// completed byte to out, suspending while out is full.
//
// Run returns ctx.Err() when cancelled and pkg.ErrClosed when the edge
// source or out is closed. An edge source that is not configured or is
// delivering edges elsewhere (pkg.ErrNotConfigured, pkg.ErrInvalidState)
// ends the run with that error. Other edge-wait errors are logged and
// retried after a growing delay.
func (r *Reader) Run(ctx context.Context, edges hal.EdgeWaiter, data hal.DataLine, out Sender) error {
	pkg.LogDebug(pkg.ComponentSampler, "reader started")
	var delay time.Duration
	for {
		if err := edges.WaitFallingEdge(ctx); err != nil {
			switch {
			case ctx.Err() != nil:
				return ctx.Err()
			case errors.Is(err, pkg.ErrClosed):
				return pkg.ErrClosed
			case errors.Is(err, pkg.ErrNotConfigured), errors.Is(err, pkg.ErrInvalidState):
				return fmt.Errorf("wait for falling edge: %w", err)
			}
			delay = min(max(2*delay, minRetryDelay), maxRetryDelay)
			pkg.LogWarn(pkg.ComponentSampler, "error waiting for falling edge",
				"error", err,
				"retry", delay)
			if err := sleep(ctx, delay); err != nil {
				return err
			}
			continue
		}
		delay = 0

		b, status, done := r.sampler.Sample(data.IsHigh())
		if !done {
			continue
		}
		r.stats.frames.Add(1)
		if status != pkg.FrameOK {
			r.stats.rejected.Add(1)
			pkg.LogDebug(pkg.ComponentSampler, "frame rejected",
				"byte", b,
				"status", status.String())
			continue
		}
		if err := out.Send(ctx, b); err != nil {
			return err
		}
	}
}

// Reset discards a partially received frame. It must not be called while
// Run is in progress.
func (r *Reader) Reset() {
	r.sampler.Reset()
}

// Stats returns the reader's counters.
func (r *Reader) Stats() *Stats {
	return &r.stats
}

// sleep waits for d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
