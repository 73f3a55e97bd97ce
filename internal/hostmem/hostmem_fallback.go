//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

// Package hostmem obtains anonymous memory directly from the host operating system. The
// memory lives outside of the Go heap, so it can be addressed by raw uintptr values and
// handed to the heap strategies without being moved or collected.
package hostmem

func Map(size uintptr) (uintptr, func() error, error) {
	return 0, nil, ErrUnsupported
}

func Unmap(addr, size uintptr) error {
	return ErrUnsupported
}
