package allocator

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/kheap/memutils"
)

// BumpAllocator is a monotonic allocator. Every allocation advances a single pointer
// through the heap, and memory is only reclaimed all at once, when the number of live
// allocations drops back to zero.
//
// Alloc and Dealloc are O(1) and there is no per-block bookkeeping, but a single
// long-lived allocation pins the entire heap. It is useful as a baseline and for
// batch workloads that free everything together.
type BumpAllocator struct {
	heapBounds

	// next is the first unused byte of the heap
	next        uintptr
	allocations int
}

var _ Strategy = &BumpAllocator{}

// NewBumpAllocator creates an empty BumpAllocator. Init must be called before use.
func NewBumpAllocator() *BumpAllocator {
	return &BumpAllocator{}
}

// Init prepares the allocator to hand out memory from [heapStart, heapStart+heapSize)
func (a *BumpAllocator) Init(heapStart, heapSize uintptr) {
	a.heapBounds.init(heapStart, heapSize)
	a.next = heapStart
	a.allocations = 0
}

func (a *BumpAllocator) Name() string { return "Bump" }

// AllocationCount returns the number of allocations that have not been deallocated
func (a *BumpAllocator) AllocationCount() int { return a.allocations }

// Next returns the address the next allocation will be aligned up from
func (a *BumpAllocator) Next() uintptr { return a.next }

func (a *BumpAllocator) Alloc(layout memutils.Layout) uintptr {
	memutils.DebugCheckPow2(layout.Align(), "layout alignment")

	allocStart, ok := memutils.CheckedAlignUp(a.next, layout.Align())
	if !ok {
		return 0
	}

	allocEnd, ok := memutils.CheckedAdd(allocStart, layout.Size())
	if !ok || allocEnd > a.heapEnd {
		return 0
	}

	a.next = allocEnd
	a.allocations++
	return allocStart
}

// Dealloc only counts. The block's bytes are not reusable until every allocation has
// been released, at which point the whole heap is reclaimed.
func (a *BumpAllocator) Dealloc(ptr uintptr, layout memutils.Layout) {
	if a.allocations == 0 {
		panicf("bump allocator received a dealloc for %#x with no live allocations", ptr)
	}

	a.allocations--
	if a.allocations == 0 {
		a.next = a.heapStart
	}
}

func (a *BumpAllocator) Validate() error {
	if a.next < a.heapStart || a.next > a.heapEnd {
		return errors.Errorf("next pointer %#x is outside of the heap [%#x, %#x)", a.next, a.heapStart, a.heapEnd)
	}

	if a.allocations < 0 {
		return errors.Errorf("allocation count is negative: %d", a.allocations)
	}

	if a.allocations == 0 && a.next != a.heapStart {
		return errors.Errorf("there are no live allocations, but the next pointer %#x was not reset to the heap start %#x", a.next, a.heapStart)
	}

	return nil
}

func (a *BumpAllocator) AddStatistics(stats *memutils.Statistics) {
	stats.HeapBytes += int(a.HeapSize())
	stats.AllocationCount += a.allocations
	stats.AllocationBytes += int(a.next - a.heapStart)
}

func (a *BumpAllocator) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	a.AddStatistics(&stats.Statistics)

	if remaining := int(a.heapEnd - a.next); remaining > 0 {
		stats.AddFreeRegion(remaining)
	}
}

func (a *BumpAllocator) WriteJSON(json *jwriter.ObjectState) {
	a.writeBoundsJSON(json, a.Name())
	json.Name("Allocations").Int(a.allocations)
	json.Name("UsedBytes").Int(int(a.next - a.heapStart))
	json.Name("UnusedBytes").Int(int(a.heapEnd - a.next))
}
