package allocator_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/kheap/allocator"
	"github.com/vkngwrapper/kheap/memutils"
)

func TestBumpBasicAlloc(t *testing.T) {
	bump := allocator.NewBumpAllocator()
	start := newTestHeap(t, 1024)
	bump.Init(start, 1024)

	first := bump.Alloc(memutils.MustLayout(3, 1))
	require.Equal(t, start, first)

	second := bump.Alloc(memutils.MustLayout(8, 8))
	require.Equal(t, start+8, second)
	require.Equal(t, start+16, bump.Next())
	require.Equal(t, 2, bump.AllocationCount())

	var stats memutils.DetailedStatistics
	stats.Clear()
	bump.AddDetailedStatistics(&stats)
	require.Equal(t, memutils.Statistics{
		HeapBytes:       1024,
		AllocationCount: 2,
		AllocationBytes: 16,
	}, stats.Statistics)
	require.Equal(t, 1, stats.FreeRegionCount)
	require.Equal(t, 1008, stats.FreeRegionSizeMax)

	require.NoError(t, bump.Validate())
}

func TestBumpResetsWhenAllFreed(t *testing.T) {
	bump := allocator.NewBumpAllocator()
	start := newTestHeap(t, 4096)
	bump.Init(start, 4096)

	layout := memutils.MustLayout(24, 8)
	var ptrs []uintptr
	for i := 0; i < 10; i++ {
		ptr := bump.Alloc(layout)
		require.NotZero(t, ptr)
		ptrs = append(ptrs, ptr)
	}

	for i, ptr := range ptrs {
		bump.Dealloc(ptr, layout)
		if i < len(ptrs)-1 {
			// Memory is only reclaimed once every allocation is gone
			require.NotEqual(t, start, bump.Next())
		}
	}

	require.Equal(t, start, bump.Next())
	require.Equal(t, start, bump.Alloc(layout))
	require.NoError(t, bump.Validate())
}

func TestBumpExhaustion(t *testing.T) {
	bump := allocator.NewBumpAllocator()
	start := newTestHeap(t, 256)
	bump.Init(start, 256)

	layout := memutils.MustLayout(64, 64)
	for i := 0; i < 4; i++ {
		require.NotZero(t, bump.Alloc(layout))
	}

	require.Zero(t, bump.Alloc(layout))
	require.Zero(t, bump.Alloc(memutils.MustLayout(1, 1)))
	require.Equal(t, 4, bump.AllocationCount())
}

func TestBumpOverflowingRequestFails(t *testing.T) {
	bump := allocator.NewBumpAllocator()
	start := newTestHeap(t, 256)
	bump.Init(start, 256)

	require.NotZero(t, bump.Alloc(memutils.MustLayout(8, 8)))

	huge := memutils.MustLayout(^uintptr(0)-16, 1)
	require.Zero(t, bump.Alloc(huge))

	hugeAlign := memutils.MustLayout(1, ^uintptr(0)>>1+1)
	require.Zero(t, bump.Alloc(hugeAlign))

	require.Equal(t, 1, bump.AllocationCount())
	require.NoError(t, bump.Validate())
}

func TestBumpDeallocWithoutAllocationPanics(t *testing.T) {
	bump := allocator.NewBumpAllocator()
	start := newTestHeap(t, 256)
	bump.Init(start, 256)

	require.Panics(t, func() {
		bump.Dealloc(start, memutils.MustLayout(8, 8))
	})
}

func TestBumpRandomized(t *testing.T) {
	bump := newStrategy(t, allocator.NewBumpAllocator(), 64*1024)
	exerciseRandomly(t, bump, 1, 2000, 128)
}
