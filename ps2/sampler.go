package ps2

import (
	"sync/atomic"

	"github.com/ardnew/softps2/pkg"
)

// Sampler reconstructs bytes from the data-line level sampled at successive
// falling edges of the clock line. It is owned by the edge context and is
// not safe for concurrent use.
type Sampler struct {
	cfg Config

	bitCount int  // Edges seen in the current frame
	acc      byte // Data bits shifted in from the MSB end
	ones     int  // High data bits plus parity bit, for odd parity
	start    bool // Level of the start bit
	parity   bool // Level of the parity bit
	stop     bool // Level of the stop bit
}

// NewSampler creates a sampler for the given frame configuration.
func NewSampler(cfg Config) (*Sampler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sampler{cfg: cfg}, nil
}

// Config returns the frame configuration.
func (s *Sampler) Config() Config {
	return s.cfg
}

// BitCount returns the number of edges consumed in the current frame.
func (s *Sampler) BitCount() int {
	return s.bitCount
}

// Sample advances the state machine by one falling edge with the data line
// at the given level. When the edge completes a frame, Sample returns the
// byte, the frame status, and done=true, and the sampler is reset for the
// next frame.
//
// The status is always pkg.FrameOK unless a check is enabled in Config.
func (s *Sampler) Sample(high bool) (b byte, status pkg.FrameStatus, done bool) {
	switch n := s.bitCount; {
	case n == 0:
		s.start = high
	case n <= s.cfg.DataBits:
		s.acc >>= 1
		if high {
			s.acc |= 0x80
			s.ones++
		}
	case n == s.cfg.parityBit():
		s.parity = high
		if high {
			s.ones++
		}
	case n == s.cfg.stopBit():
		s.stop = high
	}
	s.bitCount++

	if s.bitCount < s.cfg.FrameBits {
		return 0, pkg.FrameOK, false
	}

	b = s.acc >> (8 - s.cfg.DataBits)
	status = s.check()
	s.Reset()
	return b, status, true
}

// check validates the completed frame against the enabled checks.
func (s *Sampler) check() pkg.FrameStatus {
	switch {
	case s.cfg.CheckStart && s.start:
		return pkg.FrameBadStart
	case s.cfg.CheckParity && s.ones%2 == 0:
		return pkg.FrameBadParity
	case s.cfg.CheckStop && !s.stop:
		return pkg.FrameBadStop
	}
	return pkg.FrameOK
}

// Reset discards any partially received frame.
func (s *Sampler) Reset() {
	s.bitCount = 0
	s.acc = 0
	s.ones = 0
	s.start, s.parity, s.stop = false, false, false
}

// Stats counts producer-side events. The counters are updated from the
// edge context and may be read from any goroutine.
type Stats struct {
	frames   atomic.Uint64
	overruns atomic.Uint64
	rejected atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Frames   uint64 // Frames completed, valid or not
	Overruns uint64 // Bytes that hit a full queue
	Rejected uint64 // Frames dropped by validation
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Frames:   s.frames.Load(),
		Overruns: s.overruns.Load(),
		Rejected: s.rejected.Load(),
	}
}
