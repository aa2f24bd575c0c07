// Package ps2 decodes the PS/2 two-wire serial protocol from falling edges of
// the clock line.
//
// A PS/2 device clocks out 11-bit frames: a start bit (low), eight data
// bits least-significant first, an odd parity bit, and a stop bit (high).
// The host samples the data line on every falling clock edge.
//
// # Sampler
//
// [Sampler] is the bit-level state machine. Each call to [Sampler.Sample]
// consumes one edge; the eleventh returns the assembled byte:
//
//	s, _ := ps2.NewSampler(ps2.DefaultConfig())
//	for _, high := range ps2.EncodeFrame(0x1C) {
//	    if b, _, done := s.Sample(high); done {
//	        fmt.Printf("%#02x\n", b) // 0x1c
//	    }
//	}
//
// Parity, start, and stop bits are not checked unless enabled in [Config].
//
// # Scheduling
//
// Two front ends drive the sampler:
//
//   - [Decoder] runs in interrupt context. Its HandleFallingEdge method is
//     registered in a hal.InterruptTable and enqueues completed bytes into a
//     non-blocking [Queue] inside a critical section.
//   - [Reader] runs as a task. It suspends on hal.EdgeWaiter for each edge
//     and hands bytes to a [Sender] that may itself suspend when full.
//
// Neither front end has a timeout: a stalled clock line stops progress until
// the next edge arrives.
package ps2
