//go:build !tinygo

package critical

import "sync"

// Section is a scoped critical section. On a hosted platform edge handlers
// run on ordinary goroutines, so the section is a mutex.
//
// Sections are not reentrant. Code running inside Do must use the Token it
// was given instead of entering the section again.
type Section struct {
	mutex sync.Mutex
}

// Do runs fn with exclusive access to everything guarded by s.
// Keep fn short: the edge handler cannot run while it holds the section.
func (s *Section) Do(fn func(cs Token)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	fn(Token{section: s})
}
