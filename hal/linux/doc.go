// Package linux implements the PS/2 bus HAL on Linux GPIO lines using
// periph.io.
//
// The clock pin is configured as an input with a pull-up and falling-edge
// detection; the data pin as a plain input with a pull-up. Edges are
// observed with periph's blocking WaitForEdge, polled in bounded slices so
// that context cancellation and Close are noticed.
//
// Linux offers no true interrupt context to user space. Listen emulates one
// with a watcher goroutine that dispatches each edge through the
// hal.InterruptTable; WaitFallingEdge serves the task-mode decoder
// directly. Only one of the two may be active at a time.
//
// # Timing
//
// A PS/2 device clocks at 10 to 16.7 kHz, so each bit is valid for roughly
// 30 to 50 microseconds. The data level is read immediately after the edge
// is reported and latched, but a loaded system can still miss edges. The
// decoder has no timeout to resynchronize on a stalled frame.
//
// # Usage
//
//	if _, err := host.Init(); err != nil {
//	    return err
//	}
//	bus, err := linux.New(linux.Config{ClockPin: "GPIO17", DataPin: "GPIO27"})
//	if err != nil {
//	    return err
//	}
//	defer bus.Close()
package linux
