// Package uart provides hal.Sink implementations for the decoded byte
// stream.
//
//   - [Port] writes to a serial device through github.com/tarm/serial,
//     115200 8N1 unless configured otherwise.
//   - [PTY] writes to a pseudo-terminal through github.com/aymanbagabas/go-pty,
//     for running the receiver on a host without a serial adapter.
//   - [Writer] adapts any io.Writer, such as os.Stdout.
//
// Every sink issues one write per byte. A failed write returns an error
// wrapping pkg.ErrSinkWrite or the driver's error and is not retried.
package uart
