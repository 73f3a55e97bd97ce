//go:build linux

package heap_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/kheap/allocator"
	"github.com/vkngwrapper/kheap/collections"
	"github.com/vkngwrapper/kheap/heap"
	"github.com/vkngwrapper/kheap/memutils"
	"github.com/vkngwrapper/kheap/paging"
	"golang.org/x/exp/slog"
)

// TestGlobalHeap boots the process-wide heap at its fixed virtual address and runs it through
// the workloads a freshly booted kernel puts on it. Global can only be initialized once per
// process, so every check that needs it lives here.
func TestGlobalHeap(t *testing.T) {
	mapper := paging.NewHostMapper()
	frames := paging.NewBootInfoFrameAllocator([]paging.MemoryRegion{
		{Start: 0, End: 0x100000, Usable: false},
		{Start: 0x100000, End: 0x800000, Usable: true},
	})

	require.False(t, heap.Global().Initialized())
	require.NoError(t, heap.InitHeap(slog.Default(), mapper, frames, heap.CreateOptions{}))
	require.True(t, heap.Global().Initialized())

	pages := int((heap.HeapSize + paging.PageSize - 1) / paging.PageSize)
	require.Equal(t, pages, mapper.MappedPages())
	require.Equal(t, pages, frames.AllocatedFrames())

	flags, ok := mapper.Flags(paging.ContainingAddress(heap.HeapStart))
	require.True(t, ok)
	require.Equal(t, paging.PageTablePresent|paging.PageTableWritable, flags)

	var alloc allocator.GlobalAllocator = heap.Global()

	t.Run("SimpleAllocation", func(t *testing.T) {
		first, err := collections.NewBox[uint64](alloc, 41)
		require.NoError(t, err)
		second, err := collections.NewBox[uint64](alloc, 13)
		require.NoError(t, err)

		require.NotEqual(t, first.Addr(), second.Addr())
		require.Equal(t, uint64(41), first.Value())
		require.Equal(t, uint64(13), second.Value())

		first.Drop()
		second.Drop()
	})

	t.Run("LargeVec", func(t *testing.T) {
		const n = 1000
		vec := collections.NewVec[uint64](alloc)
		for i := uint64(0); i < n; i++ {
			require.NoError(t, vec.Push(i))
		}

		var sum uint64
		for _, value := range vec.Slice() {
			sum += value
		}
		require.Equal(t, uint64((n-1)*n/2), sum)
		vec.Drop()
	})

	t.Run("ManyBoxes", func(t *testing.T) {
		for i := uint64(0); i < uint64(heap.HeapSize); i++ {
			box, err := collections.NewBox[uint64](alloc, i)
			if err != nil {
				t.Fatalf("box %d: %v", i, err)
			}
			if box.Value() != i {
				t.Fatalf("box %d holds %d", i, box.Value())
			}
			box.Drop()
		}
	})

	t.Run("OversizedGoesToFallback", func(t *testing.T) {
		layout := memutils.MustLayout(4096, 64)
		ptr := alloc.Alloc(layout)
		require.NotZero(t, ptr)
		require.Zero(t, ptr%64)
		require.True(t, ptr >= heap.HeapStart && ptr+layout.Size() <= heap.HeapStart+heap.HeapSize)
		alloc.Dealloc(ptr, layout)
	})

	require.NoError(t, heap.Global().LogLeaks(slog.Default()))
	require.Equal(t, 0, heap.Global().Statistics().AllocationCount)

	require.Panics(t, func() {
		heap.Global().Init(heap.HeapStart, heap.HeapSize)
	})
}
