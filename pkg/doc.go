// Package pkg provides shared utilities for the softps2 decoder.
//
// This package contains common functionality used by the sampler, queues,
// consumer, and HAL implementations, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Size-rotated log files for long-running example binaries
//   - Sentinel error types for frame, queue, and decode errors
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with component context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentConsumer, "byte forwarded", "byte", 0x1C)
//
// Nothing on the interrupt path logs. The edge handler only updates counters,
// and the consumer reports them.
//
// # Errors
//
// Common errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrUnknownScancode) {
//	    // Drop the byte
//	}
package pkg
