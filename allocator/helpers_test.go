package allocator_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/kheap/allocator"
	"github.com/vkngwrapper/kheap/internal/hostmem"
	"github.com/vkngwrapper/kheap/memutils"
	"github.com/vkngwrapper/kheap/memutils/rawmem"
)

// newTestHeap maps a page-aligned region of host memory, outside of the Go heap, to run a
// strategy over. The region is unmapped when the test finishes.
func newTestHeap(t testing.TB, size uintptr) uintptr {
	start, release, err := hostmem.Map(size)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, release())
	})
	return start
}

func newStrategy(t testing.TB, strategy allocator.Strategy, size uintptr) allocator.Strategy {
	strategy.Init(newTestHeap(t, size), size)
	require.NoError(t, strategy.Validate())
	return strategy
}

type liveBlock struct {
	ptr     uintptr
	layout  memutils.Layout
	pattern byte
}

func requireNoOverlap(t *testing.T, live []liveBlock, ptr uintptr, layout memutils.Layout) {
	for _, other := range live {
		if layout.Size() == 0 || other.layout.Size() == 0 {
			continue
		}
		overlaps := ptr < other.ptr+other.layout.Size() && other.ptr < ptr+layout.Size()
		require.Falsef(t, overlaps, "block at %#x (size %d) overlaps live block at %#x (size %d)", ptr, layout.Size(), other.ptr, other.layout.Size())
	}
}

func fill(block liveBlock) {
	view := rawmem.Bytes(block.ptr, block.layout.Size())
	for i := range view {
		view[i] = block.pattern
	}
}

func requireFilled(t *testing.T, block liveBlock) {
	view := rawmem.Bytes(block.ptr, block.layout.Size())
	for i, b := range view {
		require.Equalf(t, block.pattern, b, "byte %d of block at %#x was overwritten", i, block.ptr)
	}
}

// exerciseRandomly performs a reproducible mix of allocations and frees against strategy,
// checking alignment, overlap, data integrity and internal consistency along the way.
func exerciseRandomly(t *testing.T, strategy allocator.Strategy, seed int64, steps int, maxSize uintptr) {
	rng := rand.New(rand.NewSource(seed))
	var live []liveBlock

	for step := 0; step < steps; step++ {
		if len(live) > 0 && rng.Intn(3) == 0 {
			index := rng.Intn(len(live))
			block := live[index]
			requireFilled(t, block)

			strategy.Dealloc(block.ptr, block.layout)
			live[index] = live[len(live)-1]
			live = live[:len(live)-1]
		} else {
			size := uintptr(rng.Intn(int(maxSize)) + 1)
			align := uintptr(1) << rng.Intn(8)
			layout := memutils.MustLayout(size, align)

			ptr := strategy.Alloc(layout)
			if ptr == 0 {
				continue
			}

			require.Zerof(t, ptr%align, "block at %#x is not aligned to %d", ptr, align)
			require.Truef(t, ptr >= strategy.HeapStart() && ptr+size <= strategy.HeapStart()+strategy.HeapSize(),
				"block at %#x (size %d) is outside of the heap", ptr, size)
			requireNoOverlap(t, live, ptr, layout)

			block := liveBlock{ptr: ptr, layout: layout, pattern: byte(step)}
			fill(block)
			live = append(live, block)
		}

		require.NoError(t, strategy.Validate())
		require.Equal(t, len(live), strategy.AllocationCount())
	}

	for _, block := range live {
		requireFilled(t, block)
		strategy.Dealloc(block.ptr, block.layout)
	}
	require.NoError(t, strategy.Validate())
	require.Equal(t, 0, strategy.AllocationCount())
}
