package memutils

import "math"

// Statistics summarizes the state of a heap strategy. Byte counts include the internal waste
// introduced by the strategy (size class rounding, minimum region sizes), so AllocationBytes
// is what the strategy considers taken, not what callers asked for.
type Statistics struct {
	HeapBytes       int
	AllocationCount int
	AllocationBytes int
}

func (s *Statistics) Clear() {
	s.HeapBytes = 0
	s.AllocationCount = 0
	s.AllocationBytes = 0
}

// FreeBytes is the portion of the heap not counted as allocated
func (s *Statistics) FreeBytes() int {
	return s.HeapBytes - s.AllocationBytes
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.HeapBytes += other.HeapBytes
	s.AllocationCount += other.AllocationCount
	s.AllocationBytes += other.AllocationBytes
}

type DetailedStatistics struct {
	Statistics
	FreeRegionCount   int
	FreeRegionSizeMin int
	FreeRegionSizeMax int
	CachedBlockCount  int
	CachedBlockBytes  int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.FreeRegionCount = 0
	s.FreeRegionSizeMin = math.MaxInt
	s.FreeRegionSizeMax = 0
	s.CachedBlockCount = 0
	s.CachedBlockBytes = 0
}

func (s *DetailedStatistics) AddFreeRegion(size int) {
	s.FreeRegionCount++

	if size < s.FreeRegionSizeMin {
		s.FreeRegionSizeMin = size
	}

	if size > s.FreeRegionSizeMax {
		s.FreeRegionSizeMax = size
	}
}

// AddCachedBlock records a block parked on a size class free list. Cached blocks are
// free for reuse by their own class only.
func (s *DetailedStatistics) AddCachedBlock(size int) {
	s.CachedBlockCount++
	s.CachedBlockBytes += size
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.FreeRegionCount += other.FreeRegionCount
	s.CachedBlockCount += other.CachedBlockCount
	s.CachedBlockBytes += other.CachedBlockBytes

	if other.FreeRegionSizeMin < s.FreeRegionSizeMin {
		s.FreeRegionSizeMin = other.FreeRegionSizeMin
	}

	if other.FreeRegionSizeMax > s.FreeRegionSizeMax {
		s.FreeRegionSizeMax = other.FreeRegionSizeMax
	}
}
