//go:build tinygo

package critical

import "runtime/interrupt"

// Section is a scoped critical section. On a microcontroller the edge
// handler is an interrupt service routine, which must never block, so Do
// masks interrupts on the current core instead of taking a lock. The
// handler itself may call Do: interrupts are already masked there, and
// restoring the saved state leaves them masked.
//
// Sections are not reentrant. Code running inside Do must use the Token it
// was given instead of entering the section again.
type Section struct {
	held bool
}

// Do runs fn with interrupts masked.
// Keep fn short: the edge handler cannot run while it holds the section.
func (s *Section) Do(fn func(cs Token)) {
	state := interrupt.Disable()
	defer interrupt.Restore(state)
	if s.held {
		panic("critical: section entered twice")
	}
	s.held = true
	defer func() { s.held = false }()
	fn(Token{section: s})
}
