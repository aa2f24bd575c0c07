package critical

import "github.com/ardnew/softps2/pkg"

// Token proves that the holder is executing inside a Section. It can only be
// obtained as the argument of Section.Do, so a Cell cannot be borrowed from
// outside the critical section that guards it.
type Token struct {
	section *Section
}

// Cell holds a resource that is moved in once at setup and afterwards only
// accessed inside the Section that guards it.
type Cell[T any] struct {
	section *Section
	value   T
	present bool
}

// NewCell creates an empty cell guarded by section.
func NewCell[T any](section *Section) *Cell[T] {
	return &Cell[T]{section: section}
}

// Put moves v into the cell. It fails with pkg.ErrCellOccupied if the cell
// already holds a value.
func (c *Cell[T]) Put(v T) error {
	var err error
	c.section.Do(func(Token) {
		if c.present {
			err = pkg.ErrCellOccupied
			return
		}
		c.value = v
		c.present = true
	})
	return err
}

// Take moves the value out of the cell, leaving it empty.
func (c *Cell[T]) Take() (T, bool) {
	var (
		v  T
		ok bool
	)
	c.section.Do(func(Token) {
		v, ok = c.value, c.present
		var zero T
		c.value = zero
		c.present = false
	})
	return v, ok
}

// Borrow returns a pointer to the held value, or nil if the cell is empty.
// The pointer must not outlive the Do call that produced cs.
func (c *Cell[T]) Borrow(cs Token) *T {
	if cs.section != c.section {
		panic("critical: cell borrowed with a token from another section")
	}
	if !c.present {
		return nil
	}
	return &c.value
}
