package paging

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/kheap/internal/hostmem"
)

// HostMapper backs virtual pages with anonymous memory from the host operating system, placed
// at exactly the requested virtual address. It keeps its own page table recording which frame
// each page was mapped to, so translations and unmapping behave as they would against real
// page tables. Pages that were never mapped are inaccessible. Mapping requires linux; on
// other hosts MapTo fails with hostmem.ErrUnsupported.
type HostMapper struct {
	mutex sync.Mutex
	table *swiss.Map[Page, mapping]
}

type mapping struct {
	frame PhysFrame
	flags PageTableFlags
}

var (
	_ Mapper   = &HostMapper{}
	_ Unmapper = &HostMapper{}
)

func NewHostMapper() *HostMapper {
	return &HostMapper{
		table: swiss.NewMap[Page, mapping](64),
	}
}

func (m *HostMapper) MapTo(page Page, frame PhysFrame, flags PageTableFlags, frames FrameAllocator) error {
	if flags&PageTablePresent == 0 {
		return errors.Newf("mapping %s without the Present flag", page)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if existing, ok := m.table.Get(page); ok {
		return errors.Wrapf(ErrPageAlreadyMapped, "%s is mapped to %s", page, existing.frame)
	}

	if err := hostmem.MapFixed(page.StartAddress(), PageSize, flags&PageTableWritable != 0); err != nil {
		return errors.Wrapf(err, "failed to back %s", page)
	}

	m.table.Put(page, mapping{frame: frame, flags: flags})
	return nil
}

func (m *HostMapper) Unmap(page Page) (PhysFrame, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	existing, ok := m.table.Get(page)
	if !ok {
		return PhysFrame{}, errors.Wrapf(ErrPageNotMapped, "unmapping %s", page)
	}

	if err := hostmem.Unmap(page.StartAddress(), PageSize); err != nil {
		return PhysFrame{}, errors.Wrapf(err, "failed to release %s", page)
	}

	m.table.Delete(page)
	return existing.frame, nil
}

// Translate returns the physical address addr is mapped to
func (m *HostMapper) Translate(addr uintptr) (uint64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	page := ContainingAddress(addr)
	existing, ok := m.table.Get(page)
	if !ok {
		return 0, errors.Wrapf(ErrPageNotMapped, "translating %#x", addr)
	}
	return existing.frame.StartAddress() + uint64(addr-page.StartAddress()), nil
}

// Flags returns the flags page was mapped with
func (m *HostMapper) Flags(page Page) (PageTableFlags, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	existing, ok := m.table.Get(page)
	return existing.flags, ok
}

// MappedPages returns the number of pages currently mapped
func (m *HostMapper) MappedPages() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.table.Count()
}

// UnmapAll releases every page this mapper has mapped, returning the frames to frames if it
// is not nil
func (m *HostMapper) UnmapAll(frames FrameDeallocator) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	var pages []Page
	m.table.Iter(func(page Page, _ mapping) bool {
		pages = append(pages, page)
		return false
	})

	var result error
	for _, page := range pages {
		existing, _ := m.table.Get(page)
		if err := hostmem.Unmap(page.StartAddress(), PageSize); err != nil {
			result = errors.CombineErrors(result, errors.Wrapf(err, "failed to release %s", page))
			continue
		}

		m.table.Delete(page)
		if frames != nil {
			frames.DeallocateFrame(existing.frame)
		}
	}

	return result
}
