package ps2

import (
	"fmt"

	"github.com/ardnew/softps2/pkg"
)

// Standard PS/2 frame geometry.
const (
	DefaultDataBits  = 8  // Data bits per frame
	DefaultFrameBits = 11 // Start + 8 data + parity + stop
	MaxFrameBits     = 32
)

// Config describes the frame geometry and which frame bits are validated.
//
// Validation is off by default: a frame with a wrong start bit, parity, or
// stop bit is accepted and its data bits are forwarded as-is.
type Config struct {
	DataBits  int // Data bits per frame, LSB first (1-8)
	FrameBits int // Clock edges per frame, including start, parity, and stop

	CheckStart  bool // Reject frames whose start bit is high
	CheckParity bool // Reject frames failing odd parity
	CheckStop   bool // Reject frames whose stop bit is low
}

// DefaultConfig returns the standard 11-bit PS/2 frame with no validation.
func DefaultConfig() Config {
	return Config{
		DataBits:  DefaultDataBits,
		FrameBits: DefaultFrameBits,
	}
}

// parityBit is the frame position of the parity bit.
func (c Config) parityBit() int { return c.DataBits + 1 }

// stopBit is the frame position of the stop bit.
func (c Config) stopBit() int { return c.DataBits + 2 }

// Validate checks that the geometry is consistent with the enabled checks.
func (c Config) Validate() error {
	if c.DataBits < 1 || c.DataBits > 8 {
		return fmt.Errorf("data bits %d: %w", c.DataBits, pkg.ErrInvalidParameter)
	}
	if c.FrameBits < c.DataBits+1 || c.FrameBits > MaxFrameBits {
		return fmt.Errorf("frame bits %d: %w", c.FrameBits, pkg.ErrInvalidParameter)
	}
	if c.CheckParity && c.FrameBits <= c.parityBit() {
		return fmt.Errorf("parity check needs a parity bit: %w", pkg.ErrInvalidParameter)
	}
	if c.CheckStop && c.FrameBits <= c.stopBit() {
		return fmt.Errorf("stop check needs a stop bit: %w", pkg.ErrInvalidParameter)
	}
	return nil
}

// Encode returns the data-line level sampled at each falling clock edge when
// a device transmits b: a low start bit, the data bits LSB first, an odd
// parity bit, and a high stop bit. Positions past the stop bit are high.
func (c Config) Encode(b byte) []bool {
	levels := make([]bool, c.FrameBits)
	ones := 0
	for i := 0; i < c.FrameBits; i++ {
		switch {
		case i == 0:
			levels[i] = false
		case i <= c.DataBits:
			high := b&(1<<(i-1)) != 0
			if high {
				ones++
			}
			levels[i] = high
		case i == c.parityBit():
			levels[i] = ones%2 == 0
		default:
			levels[i] = true
		}
	}
	return levels
}

// EncodeFrame encodes b as a standard 11-bit PS/2 frame.
func EncodeFrame(b byte) []bool {
	return DefaultConfig().Encode(b)
}
