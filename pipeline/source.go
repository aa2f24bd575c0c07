package pipeline

import (
	"context"
	"runtime"
	"time"

	"github.com/ardnew/softps2/critical"
	"github.com/ardnew/softps2/ps2"
	"github.com/ardnew/softps2/queue"
)

// Source yields decoded bytes to the consumer in arrival order.
//
// Next blocks until a byte is available. It returns ctx.Err() when ctx
// ends and pkg.ErrClosed when the producer has finished and every byte has
// been delivered.
type Source interface {
	Next(ctx context.Context) (byte, error)
}

// DefaultIdleInterval is how long a polling source sleeps once spinning
// has not produced a byte.
const DefaultIdleInterval = 200 * time.Microsecond

// spinLimit is the number of empty polls, each followed by a yield, before
// a polling source starts sleeping.
const spinLimit = 64

// poller implements the adaptive wait shared by the polling sources: spin
// with runtime.Gosched for a while, then sleep in idle-sized steps.
type poller struct {
	idle  time.Duration
	empty int
}

func (p *poller) wait(ctx context.Context) error {
	p.empty++
	if p.empty <= spinLimit {
		runtime.Gosched()
		return ctx.Err()
	}
	t := time.NewTimer(p.idle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *poller) reset() { p.empty = 0 }

// RingSource polls a queue shared with an interrupt-mode decoder. Every
// dequeue happens inside the critical section that guards the queue.
type RingSource struct {
	section *critical.Section
	queue   *critical.Cell[ps2.Queue]
	poll    poller
}

// NewRingSource creates a source over the guarded queue cell.
func NewRingSource(section *critical.Section, q *critical.Cell[ps2.Queue], idle time.Duration) *RingSource {
	if idle <= 0 {
		idle = DefaultIdleInterval
	}
	return &RingSource{section: section, queue: q, poll: poller{idle: idle}}
}

// TryNext dequeues one byte if available, without waiting.
func (s *RingSource) TryNext() (b byte, ok bool) {
	s.section.Do(func(cs critical.Token) {
		q := s.queue.Borrow(cs)
		if q == nil {
			return
		}
		b, ok = (*q).Dequeue()
	})
	return b, ok
}

// Next polls until a byte arrives or ctx ends.
func (s *RingSource) Next(ctx context.Context) (byte, error) {
	for {
		if b, ok := s.TryNext(); ok {
			s.poll.reset()
			return b, nil
		}
		if err := s.poll.wait(ctx); err != nil {
			return 0, err
		}
	}
}

// SPSCSource polls a lock-free queue. No critical section is entered.
type SPSCSource struct {
	queue *queue.SPSC[byte]
	poll  poller
}

// NewSPSCSource creates a source over q.
func NewSPSCSource(q *queue.SPSC[byte], idle time.Duration) *SPSCSource {
	if idle <= 0 {
		idle = DefaultIdleInterval
	}
	return &SPSCSource{queue: q, poll: poller{idle: idle}}
}

// Next polls until a byte arrives or ctx ends.
func (s *SPSCSource) Next(ctx context.Context) (byte, error) {
	for {
		if b, ok := s.queue.Dequeue(); ok {
			s.poll.reset()
			return b, nil
		}
		if err := s.poll.wait(ctx); err != nil {
			return 0, err
		}
	}
}

// PipeSource receives from a suspending pipe fed by a task-mode decoder.
type PipeSource struct {
	pipe *queue.Pipe[byte]
}

// NewPipeSource creates a source over p.
func NewPipeSource(p *queue.Pipe[byte]) *PipeSource {
	return &PipeSource{pipe: p}
}

// Next suspends until a byte arrives, ctx ends, or the pipe is closed and
// drained.
func (s *PipeSource) Next(ctx context.Context) (byte, error) {
	return s.pipe.Receive(ctx)
}
