// Package collections provides owning containers whose storage lives in a heap managed by an
// allocator.GlobalAllocator rather than in Go-managed memory.
//
// Element types must not contain Go pointers: the garbage collector does not scan heap
// memory, so anything a stored pointer refers to may be collected out from under it.
package collections

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kheap/allocator"
	"github.com/vkngwrapper/kheap/memutils"
	"github.com/vkngwrapper/kheap/memutils/rawmem"
)

// Box owns a single value of type T stored on the heap
type Box[T any] struct {
	alloc  allocator.GlobalAllocator
	ptr    uintptr
	layout memutils.Layout
	zero   *T
}

// NewBox allocates room for a T from alloc and moves value into it
func NewBox[T any](alloc allocator.GlobalAllocator, value T) (*Box[T], error) {
	layout := memutils.LayoutOf[T]()
	box := &Box[T]{alloc: alloc, layout: layout}

	if layout.Size() == 0 {
		box.zero = new(T)
		return box, nil
	}

	box.ptr = alloc.Alloc(layout)
	if box.ptr == 0 {
		return nil, errors.Wrapf(OutOfMemoryError, "boxing %d bytes", layout.Size())
	}

	rawmem.Write(box.ptr, value)
	return box, nil
}

// Get returns a pointer to the boxed value. It is valid until Drop is called.
func (b *Box[T]) Get() *T {
	if b.zero != nil {
		return b.zero
	}
	if b.ptr == 0 {
		panic(errors.AssertionFailedf("use of a dropped box"))
	}
	return rawmem.At[T](b.ptr)
}

// Value returns a copy of the boxed value
func (b *Box[T]) Value() T {
	return *b.Get()
}

// Addr returns the heap address of the boxed value, or 0 for zero-sized types
func (b *Box[T]) Addr() uintptr {
	return b.ptr
}

// Drop releases the box's memory. Dropping a box twice is a no-op.
func (b *Box[T]) Drop() {
	if b.ptr == 0 {
		return
	}

	b.alloc.Dealloc(b.ptr, b.layout)
	b.ptr = 0
}
