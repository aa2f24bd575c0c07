package pkg

import "errors"

// Decoder and pipeline errors.
var (
	// ErrBadStartBit indicates the start bit of a frame was not low.
	ErrBadStartBit = errors.New("bad start bit")

	// ErrBadParity indicates the frame failed the odd parity check.
	ErrBadParity = errors.New("parity error")

	// ErrBadStopBit indicates the stop bit of a frame was not high.
	ErrBadStopBit = errors.New("bad stop bit")

	// ErrOverrun indicates a completed byte overwrote or was refused by a full queue.
	ErrOverrun = errors.New("queue overrun")

	// ErrClosed indicates a line, queue, or event source has been closed.
	ErrClosed = errors.New("closed")

	// ErrUnknownScancode indicates a scancode with no key assigned in Scan Code Set 2.
	ErrUnknownScancode = errors.New("unknown scancode")

	// ErrInvalidState indicates a byte that is not valid in the current decode state.
	ErrInvalidState = errors.New("invalid decode state")

	// ErrKeyboardError indicates the keyboard reported an internal error or buffer overrun.
	ErrKeyboardError = errors.New("keyboard reported error")

	// ErrCellOccupied indicates a guarded cell already holds a resource.
	ErrCellOccupied = errors.New("cell already occupied")

	// ErrNotConfigured indicates the HAL has not been initialized.
	ErrNotConfigured = errors.New("not configured")

	// ErrAlreadyRunning indicates the pipeline or HAL is already running.
	ErrAlreadyRunning = errors.New("already running")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNoHandler indicates an interrupt fired with no registered handler.
	ErrNoHandler = errors.New("no handler registered")

	// ErrHandlerExists indicates an interrupt source already has a handler.
	ErrHandlerExists = errors.New("handler already registered")

	// ErrPinNotFound indicates a named GPIO line does not exist.
	ErrPinNotFound = errors.New("pin not found")

	// ErrSinkWrite indicates the output sink refused a byte.
	ErrSinkWrite = errors.New("sink write failed")
)

// FrameStatus represents the outcome of sampling one PS/2 frame.
type FrameStatus int

// Frame status values.
const (
	FrameOK        FrameStatus = iota // Frame accepted
	FrameBadStart                     // Start bit was high
	FrameBadParity                    // Odd parity mismatch
	FrameBadStop                      // Stop bit was low
)

// String returns a string representation of the frame status.
func (s FrameStatus) String() string {
	switch s {
	case FrameOK:
		return "ok"
	case FrameBadStart:
		return "bad-start"
	case FrameBadParity:
		return "bad-parity"
	case FrameBadStop:
		return "bad-stop"
	default:
		return "unknown"
	}
}

// Error returns the corresponding error for the frame status.
func (s FrameStatus) Error() error {
	switch s {
	case FrameOK:
		return nil
	case FrameBadStart:
		return ErrBadStartBit
	case FrameBadParity:
		return ErrBadParity
	case FrameBadStop:
		return ErrBadStopBit
	default:
		return ErrInvalidState
	}
}
