package heap_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/kheap/heap"
	"github.com/vkngwrapper/kheap/paging"
	"github.com/vkngwrapper/kheap/paging/mocks"
	"go.uber.org/mock/gomock"
)

const mockHeapStart uintptr = 0x_5555_0000_0000

type reclaimingFrames struct {
	*mocks.MockFrameAllocator
	*mocks.MockFrameDeallocator
}

type unmappingMapper struct {
	*mocks.MockMapper
	*mocks.MockUnmapper
}

func testPages(count int) []paging.Page {
	return paging.PageRangeInclusive(
		paging.ContainingAddress(mockHeapStart),
		paging.ContainingAddress(mockHeapStart+uintptr(count-1)*paging.PageSize),
	)
}

func testFrame(index int) paging.PhysFrame {
	return paging.FrameContainingAddress(0x200000 + uint64(index)*uint64(paging.PageSize))
}

func TestInitHeapMapsEveryPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	mapper := mocks.NewMockMapper(ctrl)
	frames := mocks.NewMockFrameAllocator(ctrl)
	target := &recordingTarget{}

	pages := testPages(3)
	var previous *gomock.Call
	for index, page := range pages {
		allocate := frames.EXPECT().AllocateFrame().Return(testFrame(index), true)
		if previous != nil {
			allocate.After(previous)
		}
		previous = mapper.EXPECT().
			MapTo(page, testFrame(index), paging.PageTablePresent|paging.PageTableWritable, frames).
			Return(nil).
			After(allocate)
	}

	err := heap.InitHeap(nil, mapper, frames, heap.CreateOptions{
		Start:  mockHeapStart,
		Size:   3 * paging.PageSize,
		Target: target,
	})
	require.NoError(t, err)
	require.Equal(t, 1, target.calls)
	require.Equal(t, mockHeapStart, target.heapStart)
	require.Equal(t, 3*paging.PageSize, target.heapSize)
}

func TestInitHeapPartialPageIsMapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	mapper := mocks.NewMockMapper(ctrl)
	frames := mocks.NewMockFrameAllocator(ctrl)
	target := &recordingTarget{}

	frames.EXPECT().AllocateFrame().Return(testFrame(0), true).Times(2)
	mapper.EXPECT().MapTo(gomock.Any(), testFrame(0), gomock.Any(), gomock.Any()).Return(nil).Times(2)

	err := heap.InitHeap(nil, mapper, frames, heap.CreateOptions{
		Start:  mockHeapStart,
		Size:   paging.PageSize + 1,
		Target: target,
	})
	require.NoError(t, err)
	require.Equal(t, paging.PageSize+1, target.heapSize)
}

func TestInitHeapFrameExhaustionRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	mapper := unmappingMapper{mocks.NewMockMapper(ctrl), mocks.NewMockUnmapper(ctrl)}
	frames := reclaimingFrames{mocks.NewMockFrameAllocator(ctrl), mocks.NewMockFrameDeallocator(ctrl)}
	target := &recordingTarget{}

	pages := testPages(4)
	gomock.InOrder(
		frames.MockFrameAllocator.EXPECT().AllocateFrame().Return(testFrame(0), true),
		mapper.MockMapper.EXPECT().MapTo(pages[0], testFrame(0), gomock.Any(), gomock.Any()).Return(nil),
		frames.MockFrameAllocator.EXPECT().AllocateFrame().Return(testFrame(1), true),
		mapper.MockMapper.EXPECT().MapTo(pages[1], testFrame(1), gomock.Any(), gomock.Any()).Return(nil),
		frames.MockFrameAllocator.EXPECT().AllocateFrame().Return(paging.PhysFrame{}, false),

		mapper.MockUnmapper.EXPECT().Unmap(pages[1]).Return(testFrame(1), nil),
		frames.MockFrameDeallocator.EXPECT().DeallocateFrame(testFrame(1)),
		mapper.MockUnmapper.EXPECT().Unmap(pages[0]).Return(testFrame(0), nil),
		frames.MockFrameDeallocator.EXPECT().DeallocateFrame(testFrame(0)),
	)

	err := heap.InitHeap(nil, mapper, frames, heap.CreateOptions{
		Start:  mockHeapStart,
		Size:   4 * paging.PageSize,
		Target: target,
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, paging.ErrFrameAllocationFailed))
	require.Equal(t, 0, target.calls)
}

func TestInitHeapMapErrorReturnsFrame(t *testing.T) {
	ctrl := gomock.NewController(t)
	mapper := mocks.NewMockMapper(ctrl)
	frames := reclaimingFrames{mocks.NewMockFrameAllocator(ctrl), mocks.NewMockFrameDeallocator(ctrl)}
	target := &recordingTarget{}

	pages := testPages(2)
	gomock.InOrder(
		frames.MockFrameAllocator.EXPECT().AllocateFrame().Return(testFrame(0), true),
		mapper.EXPECT().MapTo(pages[0], testFrame(0), gomock.Any(), gomock.Any()).Return(paging.ErrPageAlreadyMapped),
		frames.MockFrameDeallocator.EXPECT().DeallocateFrame(testFrame(0)),
	)

	err := heap.InitHeap(nil, mapper, frames, heap.CreateOptions{
		Start:  mockHeapStart,
		Size:   2 * paging.PageSize,
		Target: target,
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, paging.ErrPageAlreadyMapped))
	require.Equal(t, 0, target.calls)
}

func TestInitHeapRejectsBadRegions(t *testing.T) {
	ctrl := gomock.NewController(t)
	mapper := mocks.NewMockMapper(ctrl)
	frames := mocks.NewMockFrameAllocator(ctrl)
	target := &recordingTarget{}

	err := heap.InitHeap(nil, mapper, frames, heap.CreateOptions{
		Start:  mockHeapStart + 8,
		Size:   paging.PageSize,
		Target: target,
	})
	require.Error(t, err)

	err = heap.InitHeap(nil, mapper, frames, heap.CreateOptions{
		Start:  ^uintptr(0) - paging.PageSize + 1,
		Size:   2 * paging.PageSize,
		Target: target,
	})
	require.Error(t, err)
	require.Equal(t, 0, target.calls)
}
