package vm

import "fmt"

// ---------------------------------------------------------------------------
// Cell: runtime borrow-checked storage for mutable payloads
// ---------------------------------------------------------------------------

// Cell guards a mutable payload. Any number of shared borrows may be active
// at once, or exactly one exclusive borrow. Violating that is a logic error
// in a primitive and panics.
type Cell[T any] struct {
	value   T
	readers int
	writing bool
}

// NewCell returns a cell holding v.
func NewCell[T any](v T) Cell[T] {
	return Cell[T]{value: v}
}

// View calls fn with a shared borrow of the contents.
func (c *Cell[T]) View(fn func(T)) {
	if c.writing {
		panic(fmt.Sprintf("Cell.View: already mutably borrowed (%T)", c.value))
	}
	c.readers++
	defer func() { c.readers-- }()
	fn(c.value)
}

// Update calls fn with an exclusive borrow of the contents.
func (c *Cell[T]) Update(fn func(*T)) {
	if c.writing || c.readers > 0 {
		panic(fmt.Sprintf("Cell.Update: already borrowed (%T)", c.value))
	}
	c.writing = true
	defer func() { c.writing = false }()
	fn(&c.value)
}

// Borrowed reports whether any borrow is active.
func (c *Cell[T]) Borrowed() bool {
	return c.writing || c.readers > 0
}
