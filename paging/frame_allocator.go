package paging

// MemoryRegion is a range of physical memory [Start, End) reported by the bootloader
type MemoryRegion struct {
	Start  uint64
	End    uint64
	Usable bool
}

// BootInfoFrameAllocator hands out the frames of the usable regions in a boot memory map, in
// ascending order. Frames given back through DeallocateFrame are handed out again before any
// new frame.
type BootInfoFrameAllocator struct {
	regions []MemoryRegion

	regionIndex int
	nextFrame   uint64
	recycled    []PhysFrame
	allocated   int
}

var (
	_ FrameAllocator   = &BootInfoFrameAllocator{}
	_ FrameDeallocator = &BootInfoFrameAllocator{}
)

// NewBootInfoFrameAllocator creates a frame allocator over memoryMap. Regions that are not
// usable are skipped, and usable regions are trimmed to whole frames.
func NewBootInfoFrameAllocator(memoryMap []MemoryRegion) *BootInfoFrameAllocator {
	frameSize := uint64(PageSize)

	var usable []MemoryRegion
	for _, region := range memoryMap {
		if !region.Usable {
			continue
		}

		start := (region.Start + frameSize - 1) &^ (frameSize - 1)
		end := region.End &^ (frameSize - 1)
		if start < end {
			usable = append(usable, MemoryRegion{Start: start, End: end, Usable: true})
		}
	}

	allocator := &BootInfoFrameAllocator{regions: usable}
	if len(usable) > 0 {
		allocator.nextFrame = usable[0].Start
	}
	return allocator
}

func (a *BootInfoFrameAllocator) AllocateFrame() (PhysFrame, bool) {
	if count := len(a.recycled); count > 0 {
		frame := a.recycled[count-1]
		a.recycled = a.recycled[:count-1]
		a.allocated++
		return frame, true
	}

	for a.regionIndex < len(a.regions) {
		region := a.regions[a.regionIndex]
		if a.nextFrame < region.End {
			frame := PhysFrame{start: a.nextFrame}
			a.nextFrame += uint64(PageSize)
			a.allocated++
			return frame, true
		}

		a.regionIndex++
		if a.regionIndex < len(a.regions) {
			a.nextFrame = a.regions[a.regionIndex].Start
		}
	}

	return PhysFrame{}, false
}

func (a *BootInfoFrameAllocator) DeallocateFrame(frame PhysFrame) {
	a.recycled = append(a.recycled, frame)
	a.allocated--
}

// AllocatedFrames returns the number of frames currently handed out
func (a *BootInfoFrameAllocator) AllocatedFrames() int {
	return a.allocated
}
