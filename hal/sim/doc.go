// Package sim implements an in-memory PS/2 bus HAL for tests and demos.
//
// The [Bus] plays the keyboard: Send encodes each byte as a frame (low start
// bit, data LSB first, odd parity, high stop bit) and produces one falling
// edge per bit. SendLevels sends arbitrary levels, which is how tests
// inject bad parity or truncated frames.
//
// # Delivery Modes
//
// After Listen the bus dispatches each edge through a hal.InterruptTable on
// the sending goroutine, standing in for an interrupt controller. Without
// Listen, edges are handed one at a time to WaitFallingEdge. In both modes
// the sender does not return until every edge has been taken.
//
// # Usage
//
//	bus := sim.New(ps2.DefaultConfig())
//	sink := sim.NewRecorder()
//
//	go bus.Send(ctx, 0x1C, 0xF0, 0x1C) // press and release A
//	sink.WaitLen(ctx, 4)               // '0' 'a' '1' 'a'
//
// Close ends the script: a decoder blocked in WaitFallingEdge gets
// pkg.ErrClosed, which a pipeline treats as the end of input.
package sim
