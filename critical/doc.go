// Package critical provides the critical-section discipline shared by the
// PS/2 edge handler and the byte consumer.
//
// The edge handler and the consumer share two resources: the queue of
// completed bytes and the clock/data line handles (the handler clears the
// clock line's pending-interrupt flag). Both are moved into a [Cell] once at
// setup and from then on are only reachable through [Cell.Borrow], which
// requires the [Token] handed out by [Section.Do]:
//
//	var cs critical.Section
//	ring := critical.NewCell[*queue.Ring[byte]](&cs)
//	ring.Put(r)
//
//	cs.Do(func(tok critical.Token) {
//	    if q := ring.Borrow(tok); q != nil {
//	        (*q).Enqueue(b)
//	    }
//	})
//
// Every index update of the queue therefore happens with the section held,
// and neither side can observe a half-updated read/write index pair.
//
// Hosted builds back the section with a mutex. TinyGo builds mask
// interrupts instead, since the edge handler runs as an interrupt service
// routine and must never block.
package critical
