package collections

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kheap/allocator"
	"github.com/vkngwrapper/kheap/memutils"
	"github.com/vkngwrapper/kheap/memutils/rawmem"
)

const minVecCapacity = 4

// Vec is a growable array of T stored on the heap. Growing the array moves its contents, so
// pointers and slices obtained from it are invalidated by Push and Reserve.
type Vec[T any] struct {
	alloc    allocator.GlobalAllocator
	ptr      uintptr
	length   int
	capacity int
}

func NewVec[T any](alloc allocator.GlobalAllocator) *Vec[T] {
	vec := &Vec[T]{alloc: alloc}
	if memutils.LayoutOf[T]().Size() == 0 {
		vec.capacity = math.MaxInt
	}
	return vec
}

// WithCapacity returns an empty Vec that can hold capacity elements before it reallocates
func WithCapacity[T any](alloc allocator.GlobalAllocator, capacity int) (*Vec[T], error) {
	vec := NewVec[T](alloc)
	if err := vec.Reserve(capacity); err != nil {
		return nil, err
	}
	return vec, nil
}

// MakeVec returns a Vec holding length zero values of T
func MakeVec[T any](alloc allocator.GlobalAllocator, length int) (*Vec[T], error) {
	if length < 0 {
		return nil, errors.Newf("negative length %d", length)
	}

	vec := NewVec[T](alloc)
	if length == 0 || vec.capacity == math.MaxInt {
		vec.length = length
		return vec, nil
	}

	layout, err := memutils.ArrayLayout[T](length)
	if err != nil {
		return nil, err
	}

	ptr := allocator.AllocZeroed(alloc, layout)
	if ptr == 0 {
		return nil, errors.Wrapf(OutOfMemoryError, "making vec of %d elements", length)
	}

	vec.ptr = ptr
	vec.length = length
	vec.capacity = length
	return vec, nil
}

func (v *Vec[T]) Len() int { return v.length }
func (v *Vec[T]) Cap() int { return v.capacity }

// Reserve makes room for at least additional more elements
func (v *Vec[T]) Reserve(additional int) error {
	if additional < 0 {
		return errors.Newf("negative reservation %d", additional)
	}
	if v.capacity-v.length >= additional {
		return nil
	}

	needed := v.length + additional
	if needed < v.length {
		return errors.Wrapf(memutils.LayoutOverflowError, "vec of %d elements", v.length)
	}
	return v.growTo(max(needed, v.capacity*2, minVecCapacity))
}

func (v *Vec[T]) growTo(capacity int) error {
	newLayout, err := memutils.ArrayLayout[T](capacity)
	if err != nil {
		return err
	}

	var ptr uintptr
	if v.ptr == 0 {
		ptr = v.alloc.Alloc(newLayout)
	} else {
		ptr = allocator.Realloc(v.alloc, v.ptr, v.layout(), newLayout.Size())
	}
	if ptr == 0 {
		return errors.Wrapf(OutOfMemoryError, "growing vec to %d elements", capacity)
	}

	v.ptr = ptr
	v.capacity = capacity
	return nil
}

func (v *Vec[T]) layout() memutils.Layout {
	layout, err := memutils.ArrayLayout[T](v.capacity)
	if err != nil {
		panic(errors.AssertionFailedf("vec capacity %d has no valid layout: %v", v.capacity, err))
	}
	return layout
}

// Push appends value, growing the array if it is full
func (v *Vec[T]) Push(value T) error {
	if v.length == v.capacity {
		if err := v.Reserve(1); err != nil {
			return err
		}
	}

	v.length++
	v.Set(v.length-1, value)
	return nil
}

// Pop removes and returns the last element
func (v *Vec[T]) Pop() (T, bool) {
	var zero T
	if v.length == 0 {
		return zero, false
	}

	value := v.At(v.length - 1)
	v.length--
	return value, true
}

func (v *Vec[T]) At(index int) T {
	return v.Slice()[index]
}

func (v *Vec[T]) Set(index int, value T) {
	v.Slice()[index] = value
}

// Slice returns the live elements. The slice aliases heap memory and must not be used after
// the Vec grows or is dropped.
func (v *Vec[T]) Slice() []T {
	if v.ptr == 0 {
		return make([]T, v.length)
	}
	return rawmem.Slice[T](v.ptr, v.length)
}

// Drop releases the array's memory and leaves an empty Vec
func (v *Vec[T]) Drop() {
	if v.ptr != 0 {
		v.alloc.Dealloc(v.ptr, v.layout())
		v.ptr = 0
		v.capacity = 0
	}
	v.length = 0
}
