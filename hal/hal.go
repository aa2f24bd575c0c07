package hal

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ardnew/softps2/pkg"
)

// DataLine reads the instantaneous level of the PS/2 data line.
type DataLine interface {
	// IsHigh returns true if the line is at the high (idle) level.
	IsHigh() bool
}

// ClockLine is the PS/2 clock line as seen from its edge handler.
type ClockLine interface {
	// ClearInterrupt acknowledges the pending falling-edge interrupt so it
	// does not fire again. Must be called once per handled edge.
	ClearInterrupt()
}

// EdgeWaiter suspends the calling task until the next falling edge of the
// clock line.
type EdgeWaiter interface {
	// WaitFallingEdge blocks until a falling edge occurs or the context is
	// cancelled. A stalled clock line blocks indefinitely.
	WaitFallingEdge(ctx context.Context) error
}

// Sink is the outbound byte transmitter (typically a UART).
// A failed write is reported and not retried.
type Sink interface {
	WriteByte(b byte) error
}

// BusHAL defines the Hardware Abstraction Layer for one PS/2 receive port.
//
// The HAL owns the physical clock and data lines. The decoder consumes
// edges from it either as interrupts dispatched through an
// [InterruptTable] (see Listen) or by suspending in WaitFallingEdge; a
// pipeline uses exactly one of the two.
type BusHAL interface {
	EdgeWaiter

	// Init configures the lines: clock as input with falling-edge
	// detection, data as plain input.
	Init(ctx context.Context) error

	// Clock returns the clock line capability.
	Clock() ClockLine

	// Data returns the data line capability.
	Data() DataLine

	// Listen starts delivering clock falling edges to table as
	// SourceClock interrupts. Delivery stops when ctx is cancelled or the
	// HAL is closed.
	Listen(ctx context.Context, table *InterruptTable) error

	// Close releases the lines.
	Close() error
}

// Source identifies an interrupt source.
type Source uint8

// Interrupt sources.
const (
	SourceClock Source = iota // Falling edge on the PS/2 clock line
	SourceUART                // UART transmitter ready (unused by the receive path)

	MaxSources = 4
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceClock:
		return "clock"
	case SourceUART:
		return "uart"
	default:
		return "unknown"
	}
}

// Handler is an interrupt service routine. It runs in interrupt context: it
// must not block, allocate, or log.
type Handler func()

// InterruptTable maps interrupt sources to handlers. It is populated at
// startup and consulted by the HAL each time an interrupt fires.
type InterruptTable struct {
	mutex    sync.RWMutex
	handlers [MaxSources]Handler
	missed   atomic.Uint64
}

// Register installs h for src. A source holds at most one handler.
func (t *InterruptTable) Register(src Source, h Handler) error {
	if int(src) >= MaxSources || h == nil {
		return pkg.ErrInvalidParameter
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.handlers[src] != nil {
		return pkg.ErrHandlerExists
	}
	t.handlers[src] = h
	return nil
}

// Unregister removes the handler for src.
func (t *InterruptTable) Unregister(src Source) {
	if int(src) >= MaxSources {
		return
	}
	t.mutex.Lock()
	t.handlers[src] = nil
	t.mutex.Unlock()
}

// Handler returns the handler registered for src, or nil.
func (t *InterruptTable) Handler(src Source) Handler {
	if int(src) >= MaxSources {
		return nil
	}
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.handlers[src]
}

// Dispatch runs the handler for src. An interrupt with no handler is
// counted and reported as pkg.ErrNoHandler.
func (t *InterruptTable) Dispatch(src Source) error {
	h := t.Handler(src)
	if h == nil {
		t.missed.Add(1)
		return pkg.ErrNoHandler
	}
	h()
	return nil
}

// Missed returns the number of interrupts dispatched with no handler.
func (t *InterruptTable) Missed() uint64 {
	return t.missed.Load()
}
