package heap_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/kheap/allocator"
	"github.com/vkngwrapper/kheap/heap"
	"github.com/vkngwrapper/kheap/internal/hostmem"
)

// newTestHeap maps a page-aligned region of host memory outside of the Go heap. It is
// unmapped when the test finishes.
func newTestHeap(t testing.TB, size uintptr) uintptr {
	start, release, err := hostmem.Map(size)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, release())
	})
	return start
}

func newTestLocked(t testing.TB, kind heap.StrategyKind, size uintptr) *heap.Locked[allocator.Strategy] {
	strategy, err := heap.NewStrategy(kind)
	if err != nil {
		t.Fatal(err)
	}

	locked := heap.NewLocked(strategy)
	locked.Init(newTestHeap(t, size), size)
	return locked
}

type recordingTarget struct {
	calls     int
	heapStart uintptr
	heapSize  uintptr
}

func (r *recordingTarget) Init(heapStart, heapSize uintptr) {
	r.calls++
	r.heapStart = heapStart
	r.heapSize = heapSize
}
