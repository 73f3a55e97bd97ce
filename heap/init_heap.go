package heap

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kheap/paging"
	"golang.org/x/exp/slog"
)

// Initializer is the part of a heap handle that InitHeap needs
type Initializer interface {
	Init(heapStart, heapSize uintptr)
}

// CreateOptions contains optional settings for InitHeap. It is valid to leave all fields blank.
type CreateOptions struct {
	// Start is the virtual address of the first byte of the heap. It must be page aligned.
	// Defaults to HeapStart.
	Start uintptr
	// Size is the size of the heap in bytes. Defaults to HeapSize.
	Size uintptr
	// Target is the heap handle to initialize once the region is mapped. Defaults to Global().
	Target Initializer
}

// InitHeap backs the heap region with physical memory and initializes the heap over it.
//
// Every page of the region is given its own frame from frames and mapped present and
// writable through mapper. If any frame or mapping cannot be obtained, InitHeap returns an
// error and the heap is not initialized. Pages mapped before the failure are unmapped again
// when mapper implements paging.Unmapper, and their frames are returned when frames
// implements paging.FrameDeallocator.
//
// InitHeap must be called once per heap, before the first allocation.
func InitHeap(logger *slog.Logger, mapper paging.Mapper, frames paging.FrameAllocator, options CreateOptions) error {
	if logger == nil {
		logger = slog.New(discardHandler{})
	}

	start := options.Start
	if start == 0 {
		start = HeapStart
	}

	size := options.Size
	if size == 0 {
		size = HeapSize
	}

	var target Initializer = Global()
	if options.Target != nil {
		target = options.Target
	}

	if start%paging.PageSize != 0 {
		return errors.Newf("heap start %#x is not page aligned", start)
	}

	end := start + size - 1
	if end < start {
		return errors.Newf("heap at %#x with size %d overflows the address space", start, size)
	}

	pages := paging.PageRangeInclusive(paging.ContainingAddress(start), paging.ContainingAddress(end))
	flags := paging.PageTablePresent | paging.PageTableWritable

	mapped := make([]paging.Page, 0, len(pages))
	for _, page := range pages {
		frame, ok := frames.AllocateFrame()
		if !ok {
			err := errors.Wrapf(paging.ErrFrameAllocationFailed, "backing %s, %d of %d pages mapped", page, len(mapped), len(pages))
			rollbackMappings(logger, mapper, frames, mapped)
			return err
		}

		if err := mapper.MapTo(page, frame, flags, frames); err != nil {
			if deallocator, ok := frames.(paging.FrameDeallocator); ok {
				deallocator.DeallocateFrame(frame)
			}
			rollbackMappings(logger, mapper, frames, mapped)
			return errors.Wrapf(err, "mapping %s to %s", page, frame)
		}

		mapped = append(mapped, page)
	}

	target.Init(start, size)

	logger.Debug("heap initialized",
		slog.String("start", pages[0].String()),
		slog.Int("pages", len(pages)),
		slog.Int("size", int(size)),
	)
	return nil
}

// rollbackMappings undoes a partially mapped heap so that no half-backed region is left behind
func rollbackMappings(logger *slog.Logger, mapper paging.Mapper, frames paging.FrameAllocator, mapped []paging.Page) {
	logger.Error("heap initialization failed", slog.Int("mappedPages", len(mapped)))

	unmapper, ok := mapper.(paging.Unmapper)
	if !ok {
		if len(mapped) > 0 {
			logger.Error("mapper cannot unmap, leaving pages of the failed heap mapped", slog.Int("pages", len(mapped)))
		}
		return
	}

	deallocator, _ := frames.(paging.FrameDeallocator)
	for i := len(mapped) - 1; i >= 0; i-- {
		frame, err := unmapper.Unmap(mapped[i])
		if err != nil {
			logger.LogAttrs(context.Background(), slog.LevelError, "error attempting to unmap heap page after initialization failure",
				slog.String("page", mapped[i].String()),
				slog.Any("error", err))
			continue
		}

		if deallocator != nil {
			deallocator.DeallocateFrame(frame)
		}
	}
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }
