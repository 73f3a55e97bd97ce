// Package paging describes the virtual memory capabilities the heap depends on: a mapper that
// installs page table entries and a frame allocator that hands out physical frames. The heap
// never manipulates page tables itself; it only asks these collaborators to back its region.
package paging

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// PageSize is the size in bytes of a page and of a physical frame
const PageSize uintptr = 4096

var (
	// ErrFrameAllocationFailed is returned when a frame allocator runs out of frames while
	// backing a range of pages
	ErrFrameAllocationFailed = errors.New("frame allocation failed")
	// ErrPageAlreadyMapped is returned when mapping a page that already has a frame
	ErrPageAlreadyMapped = errors.New("page is already mapped")
	// ErrPageNotMapped is returned when unmapping or translating a page with no frame
	ErrPageNotMapped = errors.New("page is not mapped")
)

// Page is a page-aligned virtual address range of PageSize bytes
type Page struct {
	start uintptr
}

// ContainingAddress returns the page that addr falls inside of
func ContainingAddress(addr uintptr) Page {
	return Page{start: addr &^ (PageSize - 1)}
}

// PageFromStartAddress returns the page starting at addr, or an error if addr is not page aligned
func PageFromStartAddress(addr uintptr) (Page, error) {
	if addr%PageSize != 0 {
		return Page{}, errors.Newf("address %#x is not page aligned", addr)
	}
	return Page{start: addr}, nil
}

func (p Page) StartAddress() uintptr { return p.start }

func (p Page) String() string {
	return fmt.Sprintf("Page[%#x]", p.start)
}

// PageRangeInclusive returns every page from start through end, in ascending order
func PageRangeInclusive(start, end Page) []Page {
	if end.start < start.start {
		return nil
	}

	pages := make([]Page, 0, (end.start-start.start)/PageSize+1)
	for addr := start.start; ; addr += PageSize {
		pages = append(pages, Page{start: addr})
		if addr == end.start {
			break
		}
	}
	return pages
}

// PhysFrame is a PageSize-aligned range of physical memory
type PhysFrame struct {
	start uint64
}

// FrameContainingAddress returns the physical frame that addr falls inside of
func FrameContainingAddress(addr uint64) PhysFrame {
	return PhysFrame{start: addr &^ uint64(PageSize-1)}
}

func (f PhysFrame) StartAddress() uint64 { return f.start }

func (f PhysFrame) String() string {
	return fmt.Sprintf("PhysFrame[%#x]", f.start)
}

// PageTableFlags are the permission bits of a page table entry
type PageTableFlags uint64

const (
	PageTablePresent PageTableFlags = 1 << iota
	PageTableWritable
	PageTableUserAccessible
	PageTableWriteThrough
	PageTableNoCache
	PageTableNoExecute PageTableFlags = 1 << 63
)

var pageTableFlagsMapping = []struct {
	flag PageTableFlags
	name string
}{
	{PageTablePresent, "Present"},
	{PageTableWritable, "Writable"},
	{PageTableUserAccessible, "UserAccessible"},
	{PageTableWriteThrough, "WriteThrough"},
	{PageTableNoCache, "NoCache"},
	{PageTableNoExecute, "NoExecute"},
}

func (f PageTableFlags) String() string {
	if f == 0 {
		return "None"
	}

	var names []string
	for _, entry := range pageTableFlagsMapping {
		if f&entry.flag != 0 {
			names = append(names, entry.name)
		}
	}
	return strings.Join(names, "|")
}

// FrameAllocator hands out unused physical frames
type FrameAllocator interface {
	// AllocateFrame returns an unused frame, or false if physical memory is exhausted
	AllocateFrame() (PhysFrame, bool)
}

// FrameDeallocator accepts frames back from a consumer that no longer needs them
type FrameDeallocator interface {
	DeallocateFrame(frame PhysFrame)
}

// Mapper installs virtual to physical translations
type Mapper interface {
	// MapTo maps page to frame with the provided flags. frames may be used to allocate
	// intermediate page tables.
	MapTo(page Page, frame PhysFrame, flags PageTableFlags, frames FrameAllocator) error
}

// Unmapper removes virtual to physical translations
type Unmapper interface {
	// Unmap removes the mapping for page and returns the frame it was mapped to
	Unmap(page Page) (PhysFrame, error)
}
