// Package pipeline wires a PS/2 bus HAL to an output sink.
//
// A pipeline has three stages:
//
//	clock edge -> decoder -> queue -> consumer -> forwarder -> sink
//
// The decoder (package ps2) turns edges into bytes, the queue (package
// queue) carries them across the boundary between the edge context and the
// consumer, and the forwarder decides what reaches the sink: the raw bytes,
// key transitions framed as a marker and a mapped byte, or typed text.
//
// # Scheduling Modes
//
//   - [ModeInterrupt]: edges arrive through a hal.InterruptTable. Decoder and
//     consumer share a queue.Ring inside a critical.Section; the consumer
//     polls, yielding and then sleeping while the ring is empty.
//   - [ModeLockFree]: as ModeInterrupt but with a queue.SPSC, so the
//     consumer never takes the critical section.
//   - [ModeTask]: a goroutine suspends on each edge and sends bytes through a
//     queue.Pipe; the consumer suspends on the pipe.
//
// Bytes are delivered in arrival order in every mode.
//
// # Usage
//
//	p, err := pipeline.NewBuilder().
//	    WithCapacity(5).
//	    WithMode(pipeline.ModeInterrupt).
//	    WithForwarding(pipeline.ForwardKeyMarker).
//	    Build(bus, sink)
//	if err != nil {
//	    return err
//	}
//	return p.Run(ctx)
//
// # Errors
//
// Nothing downstream of the decoder is fatal. A full queue, a rejected
// frame, an unknown scancode, or a failed sink write is counted, logged by
// the consumer, and skipped.
package pipeline
