package sim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ardnew/softps2/hal"
	"github.com/ardnew/softps2/pkg"
	"github.com/ardnew/softps2/ps2"
)

// Bus implements hal.BusHAL as a scripted PS/2 device. The test (or demo)
// plays the device side by calling Send or SendLevels; the decoder under
// test sees falling edges exactly as it would on hardware.
//
// Edges are delivered one of two ways, matching the two decoder front
// ends:
//
//   - After Listen, each edge sets the data level and then dispatches
//     hal.SourceClock through the interrupt table on the sending goroutine,
//     which plays the role of interrupt context.
//   - Otherwise each edge is handed to a goroutine blocked in
//     WaitFallingEdge, which latches the data level before returning. The
//     sender blocks until the edge is taken, so no edge is lost.
type Bus struct {
	cfg ps2.Config

	// Line state
	level   atomic.Bool   // Data line, true = high
	cleared atomic.Uint64 // Acknowledged clock interrupts
	edges   chan bool     // Task-mode edge handoff, carries the data level

	// Interrupt delivery
	mutex     sync.RWMutex
	table     *hal.InterruptTable
	listenCtx context.Context // Ends the current Listen
	listenGen uint64          // Bumped by each Listen
	initDone  bool
	interval time.Duration

	closeCh   chan struct{}
	closeOnce sync.Once
}

// New creates a simulated bus that encodes bytes with cfg.
func New(cfg ps2.Config) *Bus {
	b := &Bus{
		cfg:     cfg,
		edges:   make(chan bool),
		closeCh: make(chan struct{}),
	}
	b.level.Store(true)
	return b
}

// SetEdgeInterval sets a delay between consecutive edges. Zero, the
// default, sends edges as fast as the receiver takes them.
func (b *Bus) SetEdgeInterval(d time.Duration) {
	b.mutex.Lock()
	b.interval = d
	b.mutex.Unlock()
}

// Init marks the lines idle (both high).
func (b *Bus) Init(ctx context.Context) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.initDone {
		return pkg.ErrAlreadyRunning
	}
	b.level.Store(true)
	b.initDone = true
	pkg.LogDebug(pkg.ComponentHAL, "sim bus initialized",
		"dataBits", b.cfg.DataBits,
		"frameBits", b.cfg.FrameBits)
	return nil
}

// Clock returns the clock line.
func (b *Bus) Clock() hal.ClockLine { return clockLine{b} }

// Data returns the data line.
func (b *Bus) Data() hal.DataLine { return dataLine{b} }

// Cleared returns the number of acknowledged clock interrupts.
func (b *Bus) Cleared() uint64 { return b.cleared.Load() }

// Listen switches the bus to interrupt delivery through table. Delivery
// reverts to task mode as soon as ctx is cancelled, so a new Listen may
// follow immediately.
func (b *Bus) Listen(ctx context.Context, table *hal.InterruptTable) error {
	if table == nil {
		return pkg.ErrInvalidParameter
	}
	b.mutex.Lock()
	if b.table != nil && b.listenCtx.Err() == nil {
		b.mutex.Unlock()
		return pkg.ErrAlreadyRunning
	}
	b.table = table
	b.listenCtx = ctx
	b.listenGen++
	gen := b.listenGen
	b.mutex.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-b.closeCh:
		}
		b.mutex.Lock()
		if b.listenGen == gen {
			b.table = nil
		}
		b.mutex.Unlock()
	}()
	return nil
}

// listener returns the table of a Listen whose context is still live.
func (b *Bus) listener() *hal.InterruptTable {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	if b.table == nil || b.listenCtx.Err() != nil {
		return nil
	}
	return b.table
}

// WaitFallingEdge blocks until the device side sends the next edge.
func (b *Bus) WaitFallingEdge(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.closeCh:
		return pkg.ErrClosed
	case high := <-b.edges:
		b.level.Store(high)
		return nil
	}
}

// Send transmits each byte as one frame.
func (b *Bus) Send(ctx context.Context, data ...byte) error {
	for _, v := range data {
		if err := b.SendLevels(ctx, b.cfg.Encode(v)...); err != nil {
			return err
		}
	}
	return nil
}

// SendLevels produces one falling edge per level with the data line at
// that level. It allows sending malformed or partial frames.
func (b *Bus) SendLevels(ctx context.Context, levels ...bool) error {
	table := b.listener()
	b.mutex.RLock()
	interval := b.interval
	b.mutex.RUnlock()

	for _, high := range levels {
		if interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-b.closeCh:
				return pkg.ErrClosed
			case <-time.After(interval):
			}
		}

		if table != nil {
			select {
			case <-b.closeCh:
				return pkg.ErrClosed
			default:
			}
			b.level.Store(high)
			if err := table.Dispatch(hal.SourceClock); err != nil {
				return err
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.closeCh:
			return pkg.ErrClosed
		case b.edges <- high:
		}
	}
	return nil
}

// Close ends the simulation. Blocked senders and waiters return
// pkg.ErrClosed.
func (b *Bus) Close() error {
	b.closeOnce.Do(func() {
		close(b.closeCh)
		pkg.LogDebug(pkg.ComponentHAL, "sim bus closed")
	})
	return nil
}

type clockLine struct{ b *Bus }

func (c clockLine) ClearInterrupt() { c.b.cleared.Add(1) }

type dataLine struct{ b *Bus }

func (d dataLine) IsHigh() bool { return d.b.level.Load() }

var _ hal.BusHAL = (*Bus)(nil)
