//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

// Package hostmem obtains anonymous memory directly from the host operating system. The
// memory lives outside of the Go heap, so it can be addressed by raw uintptr values and
// handed to the heap strategies without being moved or collected.
package hostmem

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// Map returns the address of a fresh page-aligned, zeroed, read-write region of at least
// size bytes, along with a function that releases it
func Map(size uintptr) (uintptr, func() error, error) {
	if size == 0 {
		return 0, nil, errors.New("cannot map an empty region")
	}

	ptr, err := unix.MmapPtr(-1, 0, nil, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "mmap of %d bytes", size)
	}

	addr := uintptr(ptr)
	released := false
	release := func() error {
		if released {
			return nil
		}
		released = true
		return Unmap(addr, size)
	}
	return addr, release, nil
}

// Unmap returns [addr, addr+size) to the host
func Unmap(addr, size uintptr) error {
	if err := unix.MunmapPtr(unsafe.Pointer(addr), size); err != nil {
		return errors.Wrapf(err, "munmap at %#x", addr)
	}
	return nil
}
