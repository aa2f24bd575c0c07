package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ardnew/softps2/critical"
	"github.com/ardnew/softps2/hal"
	"github.com/ardnew/softps2/keymap"
	"github.com/ardnew/softps2/pkg"
	"github.com/ardnew/softps2/ps2"
	"github.com/ardnew/softps2/queue"
)

// Mode selects how edges reach the decoder and how bytes reach the
// consumer.
type Mode uint8

// Scheduling modes.
const (
	// ModeInterrupt decodes in the HAL's interrupt context and shares a
	// queue.Ring with the consumer under a critical.Section. The consumer
	// polls.
	ModeInterrupt Mode = iota

	// ModeLockFree decodes in interrupt context like ModeInterrupt but
	// hands bytes over through a lock-free queue.SPSC. The consumer polls
	// without taking the critical section. Overruns always reject the
	// newest byte.
	ModeLockFree

	// ModeTask decodes in a goroutine that suspends on each edge and sends
	// bytes through a queue.Pipe. Both sides suspend instead of polling.
	ModeTask
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeInterrupt:
		return "interrupt"
	case ModeLockFree:
		return "lock-free"
	case ModeTask:
		return "task"
	default:
		return "unknown"
	}
}

// ParseMode returns the mode whose String is name.
func ParseMode(name string) (Mode, error) {
	for m := ModeInterrupt; m <= ModeTask; m++ {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("mode %q: %w", name, pkg.ErrInvalidParameter)
}

// Builder configures a Pipeline. Errors from With methods are kept and
// returned by Build.
type Builder struct {
	capacity   int
	mode       Mode
	frame      ps2.Config
	forwarding Forwarding
	policy     queue.Policy
	table      *keymap.Table
	idle       time.Duration
	errors     []error
}

// NewBuilder returns a builder with the reference configuration: a
// five-slot queue, interrupt mode, the standard frame without validation,
// raw forwarding, and overwrite-oldest overruns.
func NewBuilder() *Builder {
	return &Builder{
		capacity:   queue.DefaultCapacity,
		mode:       ModeInterrupt,
		frame:      ps2.DefaultConfig(),
		forwarding: ForwardRaw,
		policy:     queue.OverwriteOldest,
	}
}

// WithCapacity sets the number of queue slots.
func (b *Builder) WithCapacity(n int) *Builder {
	if n < queue.MinCapacity {
		b.errors = append(b.errors, fmt.Errorf("capacity %d: %w", n, pkg.ErrInvalidParameter))
		return b
	}
	b.capacity = n
	return b
}

// WithMode sets the scheduling mode.
func (b *Builder) WithMode(m Mode) *Builder {
	if m > ModeTask {
		b.errors = append(b.errors, fmt.Errorf("mode %d: %w", m, pkg.ErrInvalidParameter))
		return b
	}
	b.mode = m
	return b
}

// WithFrameConfig sets the frame geometry and validation options.
func (b *Builder) WithFrameConfig(cfg ps2.Config) *Builder {
	if err := cfg.Validate(); err != nil {
		b.errors = append(b.errors, err)
		return b
	}
	b.frame = cfg
	return b
}

// WithForwarding sets what is written to the sink.
func (b *Builder) WithForwarding(f Forwarding) *Builder {
	if f > ForwardText {
		b.errors = append(b.errors, fmt.Errorf("forwarding %d: %w", f, pkg.ErrInvalidParameter))
		return b
	}
	b.forwarding = f
	return b
}

// WithPolicy sets the ring overrun policy for ModeInterrupt.
func (b *Builder) WithPolicy(p queue.Policy) *Builder {
	b.policy = p
	return b
}

// WithTable sets the key table used by ForwardKeyMarker.
func (b *Builder) WithTable(t *keymap.Table) *Builder {
	b.table = t
	return b
}

// WithIdleInterval sets how long a polling consumer sleeps when the queue
// stays empty.
func (b *Builder) WithIdleInterval(d time.Duration) *Builder {
	b.idle = d
	return b
}

// Build creates a pipeline that decodes bus and writes to sink.
func (b *Builder) Build(bus hal.BusHAL, sink hal.Sink) (*Pipeline, error) {
	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}
	if bus == nil || sink == nil {
		return nil, pkg.ErrInvalidParameter
	}

	forwarder, err := newForwarder(b.forwarding, b.table)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		bus:        bus,
		mode:       b.mode,
		forwarding: b.forwarding,
		section:    &critical.Section{},
		started:    make(chan struct{}),
	}
	p.lines = critical.NewCell[ps2.Lines](p.section)

	var source Source
	switch b.mode {
	case ModeInterrupt, ModeLockFree:
		qc := critical.NewCell[ps2.Queue](p.section)
		if b.mode == ModeInterrupt {
			ring, err := queue.NewRing[byte](b.capacity, b.policy)
			if err != nil {
				return nil, err
			}
			source = NewRingSource(p.section, qc, b.idle)
			if err := qc.Put(ring); err != nil {
				return nil, err
			}
		} else {
			spsc, err := queue.NewSPSC[byte](b.capacity)
			if err != nil {
				return nil, err
			}
			source = NewSPSCSource(spsc, b.idle)
			if err := qc.Put(spsc); err != nil {
				return nil, err
			}
		}
		p.decoder, err = ps2.NewDecoder(b.frame, p.section, p.lines, qc)
		if err != nil {
			return nil, err
		}
		p.producer = p.decoder.Stats()

	case ModeTask:
		p.pipe, err = queue.NewPipe[byte](b.capacity)
		if err != nil {
			return nil, err
		}
		p.reader, err = ps2.NewReader(b.frame)
		if err != nil {
			return nil, err
		}
		source = NewPipeSource(p.pipe)
		p.producer = p.reader.Stats()
	}

	p.consumer, err = NewConsumer(source, forwarder, sink, p.producer)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Pipeline connects a bus HAL, a decoder, a queue, and a consumer.
type Pipeline struct {
	bus        hal.BusHAL
	mode       Mode
	forwarding Forwarding

	section  *critical.Section
	lines    *critical.Cell[ps2.Lines]
	table    hal.InterruptTable
	decoder  *ps2.Decoder
	reader   *ps2.Reader
	pipe     *queue.Pipe[byte]
	consumer *Consumer
	producer *ps2.Stats

	mutex   sync.Mutex
	running bool
	started chan struct{} // Closed when the current or next run attaches
}

// Mode returns the scheduling mode.
func (p *Pipeline) Mode() Mode { return p.mode }

// Forwarding returns the forwarding mode.
func (p *Pipeline) Forwarding() Forwarding { return p.forwarding }

// Started returns a channel that is closed once the current Run, or the
// next one if none is in progress, has attached to the bus and edges are
// being decoded. Each run that attaches gets a fresh channel afterwards.
func (p *Pipeline) Started() <-chan struct{} {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.started
}

// IsRunning reports whether Run is in progress.
func (p *Pipeline) IsRunning() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.running
}

// ProducerStats returns the decoder's frame, overrun, and rejection counts.
func (p *Pipeline) ProducerStats() ps2.StatsSnapshot { return p.producer.Snapshot() }

// ConsumerStats returns the consumer's counts.
func (p *Pipeline) ConsumerStats() ConsumerStats { return p.consumer.Stats() }

// Run initializes the bus and forwards decoded bytes until ctx is
// cancelled, which is a normal stop and returns nil.
//
// In ModeTask, Run also returns nil once the bus reports pkg.ErrClosed and
// every byte already decoded has been forwarded. In the interrupt modes the
// bus gives no such signal and Run lasts until ctx ends.
//
// A pipeline runs at most once at a time and may be run again after Run
// returns. Bytes decoded but not yet forwarded when a run stops are
// forwarded by the next run.
func (p *Pipeline) Run(ctx context.Context) error {
	p.mutex.Lock()
	if p.running {
		p.mutex.Unlock()
		return pkg.ErrAlreadyRunning
	}
	p.running = true
	started := p.started
	p.mutex.Unlock()

	attached := false
	defer func() {
		p.mutex.Lock()
		p.running = false
		if attached {
			p.started = make(chan struct{})
		}
		p.mutex.Unlock()
	}()

	if err := p.bus.Init(ctx); err != nil && !errors.Is(err, pkg.ErrAlreadyRunning) {
		return fmt.Errorf("init bus: %w", err)
	}

	pkg.LogInfo(pkg.ComponentPipeline, "pipeline started",
		"mode", p.mode.String(),
		"forwarding", p.forwarding.String())

	g, gctx := errgroup.WithContext(ctx)

	switch p.mode {
	case ModeInterrupt, ModeLockFree:
		if err := p.attach(gctx); err != nil {
			return err
		}
		defer p.detach()

	case ModeTask:
		// A previous run closed the pipe on its way out.
		p.pipe.Reopen()
		p.reader.Reset()
		g.Go(func() error {
			defer p.pipe.Close()
			err := p.reader.Run(gctx, p.bus, p.bus.Data(), p.pipe)
			if errors.Is(err, pkg.ErrClosed) {
				pkg.LogDebug(pkg.ComponentPipeline, "bus closed")
				return nil
			}
			return err
		})
	}

	g.Go(func() error { return p.consumer.Run(gctx) })
	attached = true
	close(started)

	err := g.Wait()
	if err != nil && ctx.Err() != nil {
		err = nil
	}

	stats := p.consumer.Stats()
	pkg.LogInfo(pkg.ComponentPipeline, "pipeline stopped",
		"received", stats.Received,
		"written", stats.Written,
		"sinkErrors", stats.SinkErrors,
		"overruns", p.producer.Snapshot().Overruns)
	return err
}

// attach moves the lines into the critical section and starts interrupt
// delivery. A frame left half received by a previous run is discarded.
func (p *Pipeline) attach(ctx context.Context) error {
	p.decoder.Reset()
	if err := p.lines.Put(ps2.Lines{Clock: p.bus.Clock(), Data: p.bus.Data()}); err != nil {
		return err
	}
	if err := p.table.Register(hal.SourceClock, p.decoder.HandleFallingEdge); err != nil {
		p.lines.Take()
		return err
	}
	if err := p.bus.Listen(ctx, &p.table); err != nil {
		p.detach()
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// detach stops handling edges and takes the lines back.
func (p *Pipeline) detach() {
	p.table.Unregister(hal.SourceClock)
	p.lines.Take()
}
