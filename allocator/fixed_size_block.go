package allocator

import (
	"unsafe"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/kheap/memutils"
	"github.com/vkngwrapper/kheap/memutils/rawmem"
)

// blockNode is written into every block parked on a size class free list
type blockNode struct {
	next uintptr
}

// FixedSizeBlockAllocator rounds small requests up to one of a fixed set of block sizes and
// keeps a separate free list per size. Freed blocks go onto the list for their class and are
// handed straight back out to the next request of that class, so the common case is a
// single pointer swap in either direction.
//
// Requests larger than the largest class, and class requests that find their list empty,
// are served by an embedded LinkedListAllocator. Blocks never migrate between classes: a
// freed 16-byte block cannot satisfy a 64-byte request, and class blocks are never returned
// to the fallback allocator.
type FixedSizeBlockAllocator struct {
	classes   SizeClasses
	listHeads []uintptr
	cached    []int
	fallback  *LinkedListAllocator

	allocations int
	liveBytes   uintptr
}

var _ Strategy = &FixedSizeBlockAllocator{}

// NewFixedSizeBlockAllocator creates an empty FixedSizeBlockAllocator using the provided
// size classes. Init must be called before use.
func NewFixedSizeBlockAllocator(classes SizeClasses) *FixedSizeBlockAllocator {
	if classes.Len() == 0 {
		panicf("fixed size block allocator requires at least one size class")
	}

	return &FixedSizeBlockAllocator{
		classes:   classes,
		listHeads: make([]uintptr, classes.Len()),
		cached:    make([]int, classes.Len()),
		fallback:  NewLinkedListAllocator(),
	}
}

// Init hands the whole region to the fallback allocator. Size class lists start out empty
// and are populated as blocks are freed.
func (a *FixedSizeBlockAllocator) Init(heapStart, heapSize uintptr) {
	a.fallback.Init(heapStart, heapSize)
	for i := range a.listHeads {
		a.listHeads[i] = 0
		a.cached[i] = 0
	}
	a.allocations = 0
	a.liveBytes = 0
}

func (a *FixedSizeBlockAllocator) HeapStart() uintptr { return a.fallback.HeapStart() }
func (a *FixedSizeBlockAllocator) HeapSize() uintptr  { return a.fallback.HeapSize() }

func (a *FixedSizeBlockAllocator) Name() string { return "FixedSizeBlock" }

func (a *FixedSizeBlockAllocator) AllocationCount() int { return a.allocations }

// SizeClasses returns the classes this allocator was created with
func (a *FixedSizeBlockAllocator) SizeClasses() SizeClasses { return a.classes }

// Fallback exposes the allocator used for oversized requests and empty class lists
func (a *FixedSizeBlockAllocator) Fallback() *LinkedListAllocator { return a.fallback }

// CachedBlocks returns the number of freed blocks waiting on the list for class index
func (a *FixedSizeBlockAllocator) CachedBlocks(index int) int { return a.cached[index] }

func (a *FixedSizeBlockAllocator) Alloc(layout memutils.Layout) uintptr {
	memutils.DebugCheckPow2(layout.Align(), "layout alignment")

	index := a.classes.ListIndex(layout)
	if index == NoSizeClass {
		ptr := a.fallback.Alloc(layout)
		if ptr != 0 {
			size, _, _ := sizeAlign(layout)
			a.allocations++
			a.liveBytes += size
		}
		return ptr
	}

	blockSize := a.classes.BlockSize(index)

	var ptr uintptr
	if head := a.listHeads[index]; head != 0 {
		a.listHeads[index] = rawmem.Read[blockNode](head).next
		a.cached[index]--
		ptr = head
	} else {
		// Class sizes are powers of two, so the block size is a valid alignment
		ptr = a.fallback.Alloc(memutils.MustLayout(blockSize, blockSize))
	}

	if ptr != 0 {
		a.allocations++
		a.liveBytes += a.blockFootprint(index)
	}
	return ptr
}

// blockFootprint is the number of fallback bytes a block of class index occupies. Classes
// smaller than a free region header take a full header's worth from the fallback.
func (a *FixedSizeBlockAllocator) blockFootprint(index int) uintptr {
	blockSize := a.classes.BlockSize(index)
	size, _, _ := sizeAlign(memutils.MustLayout(blockSize, blockSize))
	return size
}

func (a *FixedSizeBlockAllocator) Dealloc(ptr uintptr, layout memutils.Layout) {
	index := a.classes.ListIndex(layout)
	if index == NoSizeClass {
		size, _, _ := sizeAlign(layout)
		a.fallback.Dealloc(ptr, layout)
		a.allocations--
		a.liveBytes -= size
		return
	}

	blockSize := a.classes.BlockSize(index)
	if unsafe.Sizeof(blockNode{}) > blockSize || unsafe.Alignof(blockNode{}) > blockSize {
		panicf("size class %d cannot hold a free list node of %d bytes", blockSize, unsafe.Sizeof(blockNode{}))
	}

	rawmem.Write(ptr, blockNode{next: a.listHeads[index]})
	a.listHeads[index] = ptr
	a.cached[index]++
	a.allocations--
	a.liveBytes -= a.blockFootprint(index)
}

// visitClassList calls visit for each block on the free list for class index
func (a *FixedSizeBlockAllocator) visitClassList(index int, visit func(addr uintptr) bool) {
	for current := a.listHeads[index]; current != 0; current = rawmem.Read[blockNode](current).next {
		if !visit(current) {
			return
		}
	}
}

func (a *FixedSizeBlockAllocator) Validate() error {
	if err := a.fallback.Validate(); err != nil {
		return errors.Wrap(err, "fallback allocator")
	}

	for index := 0; index < a.classes.Len(); index++ {
		blockSize := a.classes.BlockSize(index)

		var err error
		var count int
		a.visitClassList(index, func(addr uintptr) bool {
			count++
			switch {
			case addr%blockSize != 0:
				err = errors.Errorf("block at %#x on the %d-byte list is not aligned to its class", addr, blockSize)
			case !a.fallback.contains(addr, blockSize):
				err = errors.Errorf("block at %#x on the %d-byte list is outside of the heap", addr, blockSize)
			case count > a.cached[index]:
				err = errors.Errorf("the %d-byte list has more blocks than the %d recorded", blockSize, a.cached[index])
			}
			return err == nil
		})

		if err != nil {
			return err
		}

		if count != a.cached[index] {
			return errors.Errorf("the %d-byte list has %d blocks, but %d were recorded", blockSize, count, a.cached[index])
		}
	}

	if a.allocations < 0 {
		return errors.Errorf("allocation count is negative: %d", a.allocations)
	}

	return nil
}

func (a *FixedSizeBlockAllocator) AddStatistics(stats *memutils.Statistics) {
	stats.HeapBytes += int(a.HeapSize())
	stats.AllocationCount += a.allocations
	stats.AllocationBytes += int(a.liveBytes)
}

func (a *FixedSizeBlockAllocator) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	a.AddStatistics(&stats.Statistics)

	a.fallback.VisitFreeRegions(func(addr, size uintptr) bool {
		stats.AddFreeRegion(int(size))
		return true
	})

	for index, count := range a.cached {
		footprint := int(a.blockFootprint(index))
		for i := 0; i < count; i++ {
			stats.AddCachedBlock(footprint)
		}
	}
}

func (a *FixedSizeBlockAllocator) WriteJSON(json *jwriter.ObjectState) {
	a.fallback.writeBoundsJSON(json, a.Name())
	json.Name("Allocations").Int(a.allocations)
	json.Name("UsedBytes").Int(int(a.liveBytes))

	classes := json.Name("SizeClasses").Array()
	for index := 0; index < a.classes.Len(); index++ {
		class := classes.Object()
		class.Name("BlockSize").Int(int(a.classes.BlockSize(index)))
		class.Name("CachedBlocks").Int(a.cached[index])
		class.End()
	}
	classes.End()

	fallback := json.Name("Fallback").Object()
	a.fallback.WriteJSON(&fallback)
	fallback.End()
}
