//go:build !linux

package hostmem

func MapFixed(addr, size uintptr, writable bool) error {
	return ErrUnsupported
}
