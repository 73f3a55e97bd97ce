package collections

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kheap/allocator"
	"github.com/vkngwrapper/kheap/memutils"
	"github.com/vkngwrapper/kheap/memutils/rawmem"
)

type rcBox[T any] struct {
	strong int
	value  T
}

// Rc is a handle to a reference-counted value of type T stored on the heap. Handles are
// created with NewRc and Clone, and each must be released with exactly one call to Drop.
// The count is not atomic: an Rc must not be shared between goroutines.
type Rc[T any] struct {
	alloc allocator.GlobalAllocator
	ptr   uintptr
}

func NewRc[T any](alloc allocator.GlobalAllocator, value T) (Rc[T], error) {
	layout := memutils.LayoutOf[rcBox[T]]()
	ptr := alloc.Alloc(layout)
	if ptr == 0 {
		return Rc[T]{}, errors.Wrapf(OutOfMemoryError, "reference counting %d bytes", layout.Size())
	}

	rawmem.Write(ptr, rcBox[T]{strong: 1, value: value})
	return Rc[T]{alloc: alloc, ptr: ptr}, nil
}

func (r Rc[T]) box() *rcBox[T] {
	if r.ptr == 0 {
		panic(errors.AssertionFailedf("use of a dropped or empty Rc"))
	}
	return rawmem.At[rcBox[T]](r.ptr)
}

// Clone returns a new handle to the same value
func (r Rc[T]) Clone() Rc[T] {
	r.box().strong++
	return r
}

// Get returns a pointer to the shared value. It is valid while this handle is live.
func (r Rc[T]) Get() *T {
	return &r.box().value
}

// StrongCount returns the number of live handles to the value
func (r Rc[T]) StrongCount() int {
	return r.box().strong
}

// Drop releases this handle, freeing the value when it was the last one
func (r *Rc[T]) Drop() {
	box := r.box()
	box.strong--
	if box.strong == 0 {
		r.alloc.Dealloc(r.ptr, memutils.LayoutOf[rcBox[T]]())
	}
	r.ptr = 0
}
