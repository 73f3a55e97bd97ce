package allocator

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/kheap/memutils"
)

// GlobalAllocator is the contract every consumer of heap memory depends on. It is
// implemented by synchronized handles (see the heap package), never by a bare Strategy.
type GlobalAllocator interface {
	// Alloc returns the address of a block satisfying layout, or 0 if the request cannot be
	// satisfied. The returned address is always a multiple of layout.Align().
	Alloc(layout memutils.Layout) uintptr
	// Dealloc releases a block previously returned by Alloc. layout must be identical to the
	// layout that was passed to Alloc for ptr; anything else is undefined behavior and is
	// not detected.
	Dealloc(ptr uintptr, layout memutils.Layout)
}

// Strategy is the unsynchronized state of one heap allocation algorithm. All methods
// assume the caller has exclusive access to the Strategy.
type Strategy interface {
	memutils.Validatable

	// Init hands the strategy the heap region [heapStart, heapStart+heapSize). The region
	// must be mapped, writable and unused, and Init must be called exactly once.
	Init(heapStart, heapSize uintptr)
	// HeapStart returns the first byte of the region passed to Init
	HeapStart() uintptr
	// HeapSize returns the size in bytes of the region passed to Init
	HeapSize() uintptr

	// Alloc behaves like GlobalAllocator.Alloc
	Alloc(layout memutils.Layout) uintptr
	// Dealloc behaves like GlobalAllocator.Dealloc
	Dealloc(ptr uintptr, layout memutils.Layout)

	// Name identifies the algorithm in diagnostics
	Name() string
	// AllocationCount returns the number of live allocations
	AllocationCount() int

	// AddStatistics sums this strategy's statistics into stats
	AddStatistics(stats *memutils.Statistics)
	// AddDetailedStatistics sums this strategy's detailed statistics into stats. This may
	// walk every free list and should be kept off hot paths.
	AddDetailedStatistics(stats *memutils.DetailedStatistics)
	// WriteJSON populates a json object with the strategy's internal layout
	WriteJSON(json *jwriter.ObjectState)
}

// heapBounds is shared by every Strategy implementation in this package
type heapBounds struct {
	heapStart uintptr
	heapEnd   uintptr
}

func (b *heapBounds) init(heapStart, heapSize uintptr) {
	end, ok := memutils.CheckedAdd(heapStart, heapSize)
	if !ok {
		panicf("heap region at %#x with size %d overflows the address space", heapStart, heapSize)
	}

	b.heapStart = heapStart
	b.heapEnd = end
}

func (b *heapBounds) HeapStart() uintptr { return b.heapStart }
func (b *heapBounds) HeapSize() uintptr  { return b.heapEnd - b.heapStart }

func (b *heapBounds) contains(addr, size uintptr) bool {
	end, ok := memutils.CheckedAdd(addr, size)
	return ok && addr >= b.heapStart && end <= b.heapEnd
}

func (b *heapBounds) writeBoundsJSON(json *jwriter.ObjectState, name string) {
	json.Name("Strategy").String(name)
	json.Name("HeapStart").String(fmt.Sprintf("%#x", b.heapStart))
	json.Name("HeapBytes").Int(int(b.HeapSize()))
}
