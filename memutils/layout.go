package memutils

import (
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
)

// Layout describes a requested allocation: a size in bytes and a power-of-two alignment.
// The same Layout that was used to obtain memory must be passed back when that memory
// is released.
type Layout struct {
	size  uintptr
	align uintptr
}

// NewLayout validates size and align and produces a Layout. align must be a nonzero power
// of two, and size rounded up to align must not overflow the address space.
func NewLayout(size, align uintptr) (Layout, error) {
	if err := CheckPow2(align, "align"); err != nil {
		return Layout{}, err
	}

	if _, ok := CheckedAlignUp(size, align); !ok {
		return Layout{}, cerrors.Wrapf(LayoutOverflowError, "size %d align %d", size, align)
	}

	return Layout{size: size, align: align}, nil
}

// MustLayout is NewLayout that panics on an invalid layout. It is intended for
// constants and tests.
func MustLayout(size, align uintptr) Layout {
	layout, err := NewLayout(size, align)
	if err != nil {
		panic(err)
	}
	return layout
}

// LayoutOf returns the layout of a single value of type T
func LayoutOf[T any]() Layout {
	var zero T
	return Layout{size: unsafe.Sizeof(zero), align: unsafe.Alignof(zero)}
}

// ArrayLayout returns the layout of count contiguous values of type T
func ArrayLayout[T any](count int) (Layout, error) {
	if count < 0 {
		return Layout{}, cerrors.Newf("negative element count %d", count)
	}

	elem := LayoutOf[T]()
	if elem.size != 0 && uintptr(count) > ^uintptr(0)/elem.size {
		return Layout{}, cerrors.Wrapf(LayoutOverflowError, "%d elements of size %d", count, elem.size)
	}

	return NewLayout(elem.size*uintptr(count), elem.align)
}

func (l Layout) Size() uintptr  { return l.size }
func (l Layout) Align() uintptr { return l.align }

// PadToAlign returns the layout with its size rounded up to a multiple of its alignment
func (l Layout) PadToAlign() Layout {
	return Layout{size: AlignUp(l.size, l.align), align: l.align}
}

// IsZero reports whether l is the zero Layout, which is not a valid request
func (l Layout) IsZero() bool {
	return l.align == 0
}
