// Package hal defines the Hardware Abstraction Layer for the PS/2 receiver.
//
// The HAL is the boundary between the decoder and the platform. The decoder
// needs only three capabilities from it:
//
//   - read the level of the data line ([DataLine])
//   - learn about each falling edge of the clock line, either as an
//     interrupt ([InterruptTable], [ClockLine]) or by suspending until the
//     edge arrives ([EdgeWaiter])
//   - write one byte at a time to the output transmitter ([Sink])
//
// Pin multiplexing, pull-ups, clock trees, and UART setup belong to the
// platform and happen before the HAL is handed to the pipeline.
//
// # Interrupt Registration
//
// Interrupt entry points are not declared statically. The application
// builds an [InterruptTable] at startup and registers the edge handler for
// [SourceClock]; the HAL dispatches into the table when an edge fires:
//
//	var table hal.InterruptTable
//	table.Register(hal.SourceClock, decoder.HandleFallingEdge)
//	bus.Listen(ctx, &table)
//
// # Implementations
//
//   - [github.com/ardnew/softps2/hal/sim]: scripted in-memory bus for tests
//   - [github.com/ardnew/softps2/hal/linux]: Linux GPIO lines via periph.io
//   - [github.com/ardnew/softps2/hal/uart]: serial port and PTY sinks
package hal
