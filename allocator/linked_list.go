package allocator

import (
	"unsafe"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/kheap/memutils"
	"github.com/vkngwrapper/kheap/memutils/rawmem"
)

// freeRegion is written into the first bytes of every free region managed by
// LinkedListAllocator
type freeRegion struct {
	size uintptr
	next uintptr
}

const (
	regionHeaderSize  = unsafe.Sizeof(freeRegion{})
	regionHeaderAlign = unsafe.Alignof(freeRegion{})
)

// LinkedListAllocator is a first-fit allocator that keeps free memory in a singly linked
// list threaded through the free regions themselves. The list is kept in address order and
// address-adjacent free regions are merged as soon as they appear, so the list never
// contains two regions that touch.
//
// Every block handed out is at least regionHeaderSize bytes and regionHeaderAlign aligned, so
// that it can become a free region again when released.
type LinkedListAllocator struct {
	heapBounds

	// head is the address of the lowest free region, or 0
	head        uintptr
	allocations int
	usedBytes   uintptr
}

var _ Strategy = &LinkedListAllocator{}

// NewLinkedListAllocator creates an empty LinkedListAllocator. Init must be called before use.
func NewLinkedListAllocator() *LinkedListAllocator {
	return &LinkedListAllocator{}
}

// Init adds the whole region to the free list. The start of the region is rounded up so
// that a free region header fits; a region too small to hold one header leaves the
// allocator empty.
func (a *LinkedListAllocator) Init(heapStart, heapSize uintptr) {
	a.heapBounds.init(heapStart, heapSize)
	a.head = 0
	a.allocations = 0
	a.usedBytes = 0

	start := memutils.AlignUp(heapStart, regionHeaderAlign)
	end := memutils.AlignDown(a.heapEnd, regionHeaderAlign)
	if start < end && end-start >= regionHeaderSize {
		a.insertRegion(start, end-start)
	}
}

func (a *LinkedListAllocator) Name() string { return "LinkedList" }

func (a *LinkedListAllocator) AllocationCount() int { return a.allocations }

// sizeAlign widens a layout so that the resulting block can hold a freeRegion header once
// it is released. Alloc and Dealloc must agree on this, since Dealloc is only told the
// caller's layout.
func sizeAlign(layout memutils.Layout) (uintptr, uintptr, bool) {
	align := max(layout.Align(), regionHeaderAlign)
	size, ok := memutils.CheckedAlignUp(layout.Size(), regionHeaderAlign)
	if !ok {
		return 0, 0, false
	}
	return max(size, regionHeaderSize), align, true
}

func (a *LinkedListAllocator) Alloc(layout memutils.Layout) uintptr {
	memutils.DebugCheckPow2(layout.Align(), "layout alignment")

	size, align, ok := sizeAlign(layout)
	if !ok {
		return 0
	}

	var prev uintptr
	for current := a.head; current != 0; {
		region := rawmem.At[freeRegion](current)
		next := region.next

		allocStart, ok := a.fitRegion(current, region.size, size, align)
		if ok {
			regionEnd := current + region.size
			allocEnd := allocStart + size

			a.unlink(prev, next)
			if allocStart > current {
				a.insertRegion(current, allocStart-current)
			}
			if regionEnd > allocEnd {
				a.insertRegion(allocEnd, regionEnd-allocEnd)
			}

			a.allocations++
			a.usedBytes += size
			return allocStart
		}

		prev = current
		current = next
	}

	return 0
}

// fitRegion finds where an allocation of size bytes aligned to align would start inside the
// free region [regionStart, regionStart+regionSize). Any slack left in front of or behind the
// allocation must be either empty or large enough to become a free region of its own.
func (a *LinkedListAllocator) fitRegion(regionStart, regionSize, size, align uintptr) (uintptr, bool) {
	regionEnd := regionStart + regionSize

	allocStart, ok := memutils.CheckedAlignUp(regionStart, align)
	if !ok {
		return 0, false
	}

	if front := allocStart - regionStart; front > 0 && front < regionHeaderSize {
		bumped, ok := memutils.CheckedAdd(regionStart, regionHeaderSize)
		if !ok {
			return 0, false
		}
		allocStart, ok = memutils.CheckedAlignUp(bumped, align)
		if !ok {
			return 0, false
		}
	}

	allocEnd, ok := memutils.CheckedAdd(allocStart, size)
	if !ok || allocEnd > regionEnd {
		return 0, false
	}

	if back := regionEnd - allocEnd; back > 0 && back < regionHeaderSize {
		return 0, false
	}

	return allocStart, true
}

func (a *LinkedListAllocator) Dealloc(ptr uintptr, layout memutils.Layout) {
	size, _, ok := sizeAlign(layout)
	if !ok || !a.contains(ptr, size) {
		panicf("linked list allocator received a dealloc for %#x (size %d) outside of the heap", ptr, layout.Size())
	}

	a.insertRegion(ptr, size)
	a.allocations--
	a.usedBytes -= size
}

// unlink removes the region following prev (or the head, if prev is 0), replacing it with next
func (a *LinkedListAllocator) unlink(prev, next uintptr) {
	if prev == 0 {
		a.head = next
		return
	}
	rawmem.At[freeRegion](prev).next = next
}

// insertRegion returns [addr, addr+size) to the free list, keeping the list in address order
// and merging the new region with whichever neighbors it touches.
func (a *LinkedListAllocator) insertRegion(addr, size uintptr) {
	var prev uintptr
	next := a.head
	for next != 0 && next < addr {
		prev = next
		next = rawmem.At[freeRegion](next).next
	}

	if next != 0 && addr+size == next {
		following := rawmem.At[freeRegion](next)
		size += following.size
		next = following.next
	}

	if prev != 0 {
		preceding := rawmem.At[freeRegion](prev)
		if prev+preceding.size == addr {
			preceding.size += size
			preceding.next = next
			return
		}
	}

	rawmem.Write(addr, freeRegion{size: size, next: next})
	if prev == 0 {
		a.head = addr
	} else {
		rawmem.At[freeRegion](prev).next = addr
	}
}

// VisitFreeRegions calls visit for each free region in address order until visit returns false
func (a *LinkedListAllocator) VisitFreeRegions(visit func(addr, size uintptr) bool) {
	for current := a.head; current != 0; {
		region := rawmem.At[freeRegion](current)
		if !visit(current, region.size) {
			return
		}
		current = region.next
	}
}

// FreeRegionsCount returns the number of regions in the free list
func (a *LinkedListAllocator) FreeRegionsCount() int {
	var count int
	a.VisitFreeRegions(func(addr, size uintptr) bool {
		count++
		return true
	})
	return count
}

// SumFreeSize returns the number of bytes in the free list
func (a *LinkedListAllocator) SumFreeSize() uintptr {
	var sum uintptr
	a.VisitFreeRegions(func(addr, size uintptr) bool {
		sum += size
		return true
	})
	return sum
}

func (a *LinkedListAllocator) Validate() error {
	var err error
	var prevEnd uintptr

	a.VisitFreeRegions(func(addr, size uintptr) bool {
		switch {
		case !a.contains(addr, size):
			err = errors.Errorf("free region at %#x with size %d extends outside of the heap [%#x, %#x)", addr, size, a.heapStart, a.heapEnd)
		case addr%regionHeaderAlign != 0:
			err = errors.Errorf("free region at %#x is not aligned to %d", addr, regionHeaderAlign)
		case size < regionHeaderSize:
			err = errors.Errorf("free region at %#x has size %d, which cannot hold a region header", addr, size)
		case prevEnd > addr:
			err = errors.Errorf("free region at %#x overlaps or precedes the previous region, which ends at %#x", addr, prevEnd)
		case prevEnd == addr:
			err = errors.Errorf("free region at %#x is adjacent to the previous region but was not merged", addr)
		}

		prevEnd = addr + size
		return err == nil
	})

	if err != nil {
		return err
	}

	if a.allocations < 0 {
		return errors.Errorf("allocation count is negative: %d", a.allocations)
	}

	return nil
}

func (a *LinkedListAllocator) AddStatistics(stats *memutils.Statistics) {
	stats.HeapBytes += int(a.HeapSize())
	stats.AllocationCount += a.allocations
	stats.AllocationBytes += int(a.usedBytes)
}

func (a *LinkedListAllocator) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	a.AddStatistics(&stats.Statistics)

	a.VisitFreeRegions(func(addr, size uintptr) bool {
		stats.AddFreeRegion(int(size))
		return true
	})
}

func (a *LinkedListAllocator) WriteJSON(json *jwriter.ObjectState) {
	a.writeBoundsJSON(json, a.Name())
	json.Name("Allocations").Int(a.allocations)
	json.Name("UsedBytes").Int(int(a.usedBytes))

	regions := json.Name("FreeRegions").Array()
	a.VisitFreeRegions(func(addr, size uintptr) bool {
		region := regions.Object()
		region.Name("Offset").Int(int(addr - a.heapStart))
		region.Name("Size").Int(int(size))
		region.End()
		return true
	})
	regions.End()
}
