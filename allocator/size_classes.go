package allocator

import (
	"sort"
	"unsafe"

	cerrors "github.com/cockroachdb/errors"
	"github.com/vkngwrapper/kheap/memutils"
)

// DefaultBlockSizes are the size classes used by the global heap. Each size doubles as the
// alignment of blocks in its class, which is why they must all be powers of two.
var DefaultBlockSizes = []uintptr{8, 16, 32, 64, 128, 256, 512, 1024, 2048}

// NoSizeClass is returned by SizeClasses.ListIndex for requests that no class can serve
const NoSizeClass = -1

var (
	// SizeClassOrderError is returned when size classes are not strictly ascending
	SizeClassOrderError = cerrors.New("size classes must be strictly ascending")
	// SizeClassTooSmallError is returned when a size class cannot hold a free list node
	SizeClassTooSmallError = cerrors.New("size class cannot hold a free list node")
)

// SizeClasses is an ordered set of power-of-two block sizes. A block in class i is
// sizes[i] bytes long and aligned to sizes[i].
type SizeClasses struct {
	sizes []uintptr
}

// NewSizeClasses validates sizes and produces a SizeClasses. Every size must be a power of
// two, large enough and aligned enough to hold a free list node, and greater than the one
// before it.
func NewSizeClasses(sizes ...uintptr) (SizeClasses, error) {
	if len(sizes) == 0 {
		return SizeClasses{}, cerrors.New("at least one size class is required")
	}

	for i, size := range sizes {
		if err := memutils.CheckPow2(size, "size class"); err != nil {
			return SizeClasses{}, err
		}

		if size < unsafe.Sizeof(blockNode{}) || size < unsafe.Alignof(blockNode{}) {
			return SizeClasses{}, cerrors.Wrapf(SizeClassTooSmallError, "size class %d is smaller than %d bytes", size, unsafe.Sizeof(blockNode{}))
		}

		if i > 0 && size <= sizes[i-1] {
			return SizeClasses{}, cerrors.Wrapf(SizeClassOrderError, "size class %d follows %d", size, sizes[i-1])
		}
	}

	copied := make([]uintptr, len(sizes))
	copy(copied, sizes)
	return SizeClasses{sizes: copied}, nil
}

// MustSizeClasses is NewSizeClasses that panics on invalid input
func MustSizeClasses(sizes ...uintptr) SizeClasses {
	classes, err := NewSizeClasses(sizes...)
	if err != nil {
		panic(err)
	}
	return classes
}

// Len returns the number of classes
func (c SizeClasses) Len() int { return len(c.sizes) }

// BlockSize returns the block size (and alignment) of class index
func (c SizeClasses) BlockSize(index int) uintptr { return c.sizes[index] }

// Largest returns the block size of the biggest class
func (c SizeClasses) Largest() uintptr { return c.sizes[len(c.sizes)-1] }

// ListIndex picks the smallest class whose blocks can hold layout. A block must be at least
// as large as both the requested size and the requested alignment, because the class size
// is also the block's alignment. Returns NoSizeClass when the request is larger than the
// largest class.
func (c SizeClasses) ListIndex(layout memutils.Layout) int {
	required := max(layout.Size(), layout.Align())

	index := sort.Search(len(c.sizes), func(i int) bool {
		return c.sizes[i] >= required
	})
	if index == len(c.sizes) {
		return NoSizeClass
	}
	return index
}
