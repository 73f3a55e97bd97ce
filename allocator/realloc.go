package allocator

import (
	"github.com/vkngwrapper/kheap/memutils"
	"github.com/vkngwrapper/kheap/memutils/rawmem"
)

// AllocZeroed behaves like GlobalAllocator.Alloc, but clears the returned block
func AllocZeroed(a GlobalAllocator, layout memutils.Layout) uintptr {
	ptr := a.Alloc(layout)
	if ptr != 0 {
		rawmem.Zero(ptr, layout.Size())
	}
	return ptr
}

// Realloc moves the block at ptr, allocated with layout, into a new block of newSize bytes
// with the same alignment. The first min(layout.Size(), newSize) bytes are preserved. On
// success the old block has been released and the new address is returned. On failure 0 is
// returned and the old block is left untouched.
func Realloc(a GlobalAllocator, ptr uintptr, layout memutils.Layout, newSize uintptr) uintptr {
	newLayout, err := memutils.NewLayout(newSize, layout.Align())
	if err != nil {
		return 0
	}

	newPtr := a.Alloc(newLayout)
	if newPtr == 0 {
		return 0
	}

	rawmem.Copy(newPtr, ptr, min(layout.Size(), newSize))
	a.Dealloc(ptr, layout)
	return newPtr
}
