package linux

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/ardnew/softps2/hal"
	"github.com/ardnew/softps2/pkg"
)

// DefaultPollInterval bounds how long a single WaitForEdge call blocks
// before the context and close state are checked again.
const DefaultPollInterval = 100 * time.Millisecond

// Config names the GPIO lines wired to the PS/2 port.
type Config struct {
	ClockPin     string        // periph pin name, e.g. "GPIO17"
	DataPin      string        // periph pin name, e.g. "GPIO27"
	PollInterval time.Duration // Zero means DefaultPollInterval
}

// HAL implements hal.BusHAL over two periph.io GPIO input pins.
//
// The data line is sampled as soon as the clock edge is reported and the
// sample is latched until the next edge, so a handler or task reading
// Data() sees the level that belonged to its edge.
type HAL struct {
	clock gpio.PinIn
	data  gpio.PinIn
	poll  time.Duration

	sample  atomic.Bool
	cleared atomic.Uint64

	mutex     sync.Mutex
	initDone  bool
	listening bool
	listenCtx context.Context // Ends the running watcher
	watchers  sync.WaitGroup
	closeCh   chan struct{}
	closeOnce sync.Once
}

// New looks up the configured pins in the periph registry. The host
// drivers must already be loaded (periph.io/x/host/v3 Init).
func New(cfg Config) (*HAL, error) {
	clock := gpioreg.ByName(cfg.ClockPin)
	if clock == nil {
		return nil, fmt.Errorf("clock pin %q: %w", cfg.ClockPin, pkg.ErrPinNotFound)
	}
	data := gpioreg.ByName(cfg.DataPin)
	if data == nil {
		return nil, fmt.Errorf("data pin %q: %w", cfg.DataPin, pkg.ErrPinNotFound)
	}
	return NewWithPins(clock, data, cfg.PollInterval), nil
}

// NewWithPins creates a HAL over already resolved pins.
func NewWithPins(clock, data gpio.PinIn, poll time.Duration) *HAL {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	h := &HAL{
		clock:   clock,
		data:    data,
		poll:    poll,
		closeCh: make(chan struct{}),
	}
	h.sample.Store(true)
	return h
}

// Init configures the clock pin for falling-edge detection and the data pin
// as a plain input, both with pull-ups as the bus requires.
func (h *HAL) Init(ctx context.Context) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.initDone {
		return pkg.ErrAlreadyRunning
	}
	if err := h.clock.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return fmt.Errorf("configure clock pin %s: %w", h.clock, err)
	}
	if err := h.data.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return fmt.Errorf("configure data pin %s: %w", h.data, err)
	}
	h.initDone = true

	pkg.LogInfo(pkg.ComponentHAL, "gpio lines configured",
		"clock", h.clock.Name(),
		"data", h.data.Name())
	return nil
}

// Clock returns the clock line.
func (h *HAL) Clock() hal.ClockLine { return clockLine{h} }

// Data returns the data line as latched at the last edge.
func (h *HAL) Data() hal.DataLine { return dataLine{h} }

// WaitFallingEdge blocks until the next falling edge of the clock pin. It
// fails with pkg.ErrInvalidState while Listen is delivering edges.
func (h *HAL) WaitFallingEdge(ctx context.Context) error {
	h.mutex.Lock()
	ready, listening := h.initDone, h.listening
	h.mutex.Unlock()

	switch {
	case !ready:
		return pkg.ErrNotConfigured
	case listening:
		return pkg.ErrInvalidState
	}
	return h.waitEdge(ctx)
}

// waitEdge polls the clock pin in bounded slices and latches the data
// level when an edge arrives.
func (h *HAL) waitEdge(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.closeCh:
			return pkg.ErrClosed
		default:
		}
		if h.clock.WaitForEdge(h.poll) {
			h.sample.Store(h.data.Read() == gpio.High)
			return nil
		}
	}
}

// Listen starts a goroutine that dispatches every falling edge to table as
// hal.SourceClock. It stops when ctx is cancelled or the HAL is closed.
func (h *HAL) Listen(ctx context.Context, table *hal.InterruptTable) error {
	if table == nil {
		return pkg.ErrInvalidParameter
	}

	h.mutex.Lock()
	if h.listening && h.listenCtx.Err() != nil {
		// A cancelled watcher exits within one poll interval.
		h.mutex.Unlock()
		h.watchers.Wait()
		h.mutex.Lock()
	}
	defer h.mutex.Unlock()
	switch {
	case !h.initDone:
		return pkg.ErrNotConfigured
	case h.listening:
		return pkg.ErrAlreadyRunning
	}
	h.listening = true
	h.listenCtx = ctx

	h.watchers.Add(1)
	go func() {
		defer h.watchers.Done()
		defer func() {
			h.mutex.Lock()
			h.listening = false
			h.mutex.Unlock()
		}()

		pkg.LogDebug(pkg.ComponentHAL, "edge watcher started", "clock", h.clock.Name())
		for {
			if err := h.waitEdge(ctx); err != nil {
				pkg.LogDebug(pkg.ComponentHAL, "edge watcher stopped", "reason", err)
				return
			}
			// A missing handler is counted by the table.
			_ = table.Dispatch(hal.SourceClock)
		}
	}()
	return nil
}

// Cleared returns the number of acknowledged clock interrupts.
func (h *HAL) Cleared() uint64 { return h.cleared.Load() }

// Close stops edge delivery and halts both pins.
func (h *HAL) Close() error {
	var err error
	h.closeOnce.Do(func() {
		close(h.closeCh)
		h.watchers.Wait()

		if e := h.clock.Halt(); e != nil {
			err = fmt.Errorf("halt clock pin: %w", e)
		}
		if e := h.data.Halt(); e != nil && err == nil {
			err = fmt.Errorf("halt data pin: %w", e)
		}
		pkg.LogDebug(pkg.ComponentHAL, "gpio lines released")
	})
	return err
}

// clockLine acknowledges edges. periph consumes the edge inside
// WaitForEdge, so acknowledgement is only counted.
type clockLine struct{ h *HAL }

func (c clockLine) ClearInterrupt() { c.h.cleared.Add(1) }

type dataLine struct{ h *HAL }

func (d dataLine) IsHigh() bool { return d.h.sample.Load() }

var _ hal.BusHAL = (*HAL)(nil)
