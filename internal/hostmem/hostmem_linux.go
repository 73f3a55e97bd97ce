//go:build linux

package hostmem

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// MapFixed maps size bytes of anonymous memory at exactly addr. It fails rather than
// replace memory that is already mapped there.
func MapFixed(addr, size uintptr, writable bool) error {
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}

	flags := unix.MAP_PRIVATE | unix.MAP_ANONYMOUS | unix.MAP_FIXED_NOREPLACE
	ptr, err := unix.MmapPtr(-1, 0, unsafe.Pointer(addr), size, prot, flags)
	if err != nil {
		return errors.Wrapf(err, "mmap at %#x", addr)
	}

	// Kernels older than 4.17 ignore MAP_FIXED_NOREPLACE and treat addr as a hint
	if uintptr(ptr) != addr {
		_ = unix.MunmapPtr(ptr, size)
		return errors.Newf("host placed the mapping at %#x instead of %#x", uintptr(ptr), addr)
	}

	return nil
}
