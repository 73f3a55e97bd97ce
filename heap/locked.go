package heap

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/kheap/allocator"
	"github.com/vkngwrapper/kheap/internal/utils"
	"github.com/vkngwrapper/kheap/memutils"
	"golang.org/x/exp/slog"
)

// Locked wraps a heap strategy in a spin lock so that a single shared value can serve
// allocation requests from anywhere. It implements allocator.GlobalAllocator.
//
// The lock is not reentrant. Code that can interrupt a lock holder, such as an interrupt
// handler, must never allocate through the same Locked value: the holder cannot run again
// to release the lock, so the system deadlocks.
//
// A Locked value has a two phase lifecycle. It is constructed around an empty strategy,
// Init is called exactly once with the heap bounds, and only then may memory be allocated.
// Allocating before Init or calling Init twice panics.
type Locked[A allocator.Strategy] struct {
	mutex       utils.SpinMutex
	inner       A
	initialized bool
}

var _ allocator.GlobalAllocator = &Locked[allocator.Strategy]{}

// NewLocked wraps inner, which must not have been initialized yet
func NewLocked[A allocator.Strategy](inner A) *Locked[A] {
	return &Locked[A]{inner: inner}
}

// Lock busy-waits for exclusive access to the strategy and returns it. The strategy must not
// be used after the matching call to Unlock.
func (l *Locked[A]) Lock() A {
	l.mutex.Lock()
	return l.inner
}

func (l *Locked[A]) Unlock() {
	l.mutex.Unlock()
}

// Init hands the strategy its heap region [heapStart, heapStart+heapSize)
func (l *Locked[A]) Init(heapStart, heapSize uintptr) {
	inner := l.Lock()
	defer l.Unlock()

	if l.initialized {
		panic(errors.AssertionFailedf("heap was already initialized at %#x", inner.HeapStart()))
	}

	inner.Init(heapStart, heapSize)
	l.initialized = true
	memutils.DebugValidate(inner)
}

// Initialized reports whether Init has been called
func (l *Locked[A]) Initialized() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return l.initialized
}

func (l *Locked[A]) Alloc(layout memutils.Layout) uintptr {
	inner := l.Lock()
	defer l.Unlock()

	l.requireInitialized("alloc")
	ptr := inner.Alloc(layout)
	memutils.DebugValidate(inner)
	return ptr
}

func (l *Locked[A]) Dealloc(ptr uintptr, layout memutils.Layout) {
	inner := l.Lock()
	defer l.Unlock()

	l.requireInitialized("dealloc")
	inner.Dealloc(ptr, layout)
	memutils.DebugValidate(inner)
}

func (l *Locked[A]) requireInitialized(operation string) {
	if !l.initialized {
		panic(errors.AssertionFailedf("heap %s before the heap was initialized", operation))
	}
}

// Statistics returns a snapshot of the strategy's statistics
func (l *Locked[A]) Statistics() memutils.Statistics {
	inner := l.Lock()
	defer l.Unlock()

	var stats memutils.Statistics
	inner.AddStatistics(&stats)
	return stats
}

// DetailedStatistics returns a snapshot of the strategy's detailed statistics. This walks
// every free list while holding the lock.
func (l *Locked[A]) DetailedStatistics() memutils.DetailedStatistics {
	inner := l.Lock()
	defer l.Unlock()

	var stats memutils.DetailedStatistics
	stats.Clear()
	inner.AddDetailedStatistics(&stats)
	return stats
}

// BuildStatsString renders the heap's statistics as JSON. When detailed is true, the
// strategy's internal layout (free regions, size class lists) is included as well.
func (l *Locked[A]) BuildStatsString(detailed bool) string {
	stats := l.DetailedStatistics()

	writer := jwriter.NewWriter()
	root := writer.Object()

	total := root.Name("Total").Object()
	total.Name("HeapBytes").Int(stats.HeapBytes)
	total.Name("AllocationCount").Int(stats.AllocationCount)
	total.Name("AllocationBytes").Int(stats.AllocationBytes)
	total.Name("FreeBytes").Int(stats.FreeBytes())
	total.Name("FreeRegionCount").Int(stats.FreeRegionCount)
	if stats.FreeRegionCount > 0 {
		total.Name("FreeRegionSizeMin").Int(stats.FreeRegionSizeMin)
		total.Name("FreeRegionSizeMax").Int(stats.FreeRegionSizeMax)
	}
	total.Name("CachedBlockCount").Int(stats.CachedBlockCount)
	total.Name("CachedBlockBytes").Int(stats.CachedBlockBytes)
	total.End()

	if detailed {
		inner := l.Lock()
		strategy := root.Name("Strategy").Object()
		inner.WriteJSON(&strategy)
		strategy.End()
		l.Unlock()
	}

	root.End()
	return string(writer.Bytes())
}

// LogLeaks reports live allocations through logger and returns an error if there are any.
// Kernel heaps are never torn down, so this is meant for tests and diagnostics.
func (l *Locked[A]) LogLeaks(logger *slog.Logger) error {
	stats := l.Statistics()
	if stats.AllocationCount == 0 {
		return nil
	}

	inner := l.Lock()
	name := inner.Name()
	l.Unlock()

	logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] live heap allocations",
		slog.String("strategy", name),
		slog.Int("count", stats.AllocationCount),
		slog.Int("bytes", stats.AllocationBytes),
	)
	return errors.Newf("%d allocations were not freed", stats.AllocationCount)
}
