package heap

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kheap/allocator"
)

const (
	// HeapStart is the virtual address reserved for the kernel heap
	HeapStart uintptr = 0x_4444_4444_0000
	// HeapSize is the number of bytes mapped for the kernel heap
	HeapSize uintptr = 100 * 1024
)

// StrategyKind selects one of the heap strategies in the allocator package
type StrategyKind uint32

const (
	StrategyFixedSizeBlock StrategyKind = iota
	StrategyLinkedList
	StrategyBump
)

var strategyKindMapping = map[StrategyKind]string{
	StrategyFixedSizeBlock: "FixedSizeBlock",
	StrategyLinkedList:     "LinkedList",
	StrategyBump:           "Bump",
}

func (k StrategyKind) String() string {
	return strategyKindMapping[k]
}

// NewStrategy creates an empty strategy of the requested kind. Fixed size block strategies
// use allocator.DefaultBlockSizes.
func NewStrategy(kind StrategyKind) (allocator.Strategy, error) {
	switch kind {
	case StrategyFixedSizeBlock:
		classes, err := allocator.NewSizeClasses(allocator.DefaultBlockSizes...)
		if err != nil {
			return nil, err
		}
		return allocator.NewFixedSizeBlockAllocator(classes), nil
	case StrategyLinkedList:
		return allocator.NewLinkedListAllocator(), nil
	case StrategyBump:
		return allocator.NewBumpAllocator(), nil
	}

	return nil, errors.Newf("unknown heap strategy %d", kind)
}

// globalHeap is the process-wide allocator. It is built around an empty strategy and becomes
// usable once InitHeap has mapped the heap region and initialized it.
var globalHeap = NewLocked[allocator.Strategy](
	allocator.NewFixedSizeBlockAllocator(allocator.MustSizeClasses(allocator.DefaultBlockSizes...)),
)

// Global returns the process-wide heap. Every consumer of heap memory should allocate through
// it, so that the strategy can be swapped without touching call sites.
func Global() *Locked[allocator.Strategy] {
	return globalHeap
}
