// Package rawmem is the only place in this module that turns raw heap addresses into Go
// pointers. Heap strategies keep their free-list nodes inside the memory they manage, so
// they need to read and write small structs at arbitrary addresses.
//
// Every function here trusts its caller: the address must lie inside memory that is mapped,
// writable, not tracked by the Go garbage collector as holding pointers, and suitably
// aligned for T. Values stored through this package must not contain Go pointers.
package rawmem

import "unsafe"

// At reinterprets addr as a *T
func At[T any](addr uintptr) *T {
	return (*T)(unsafe.Pointer(addr))
}

// Write stores value at addr, overwriting whatever bytes were there
func Write[T any](addr uintptr, value T) {
	*(*T)(unsafe.Pointer(addr)) = value
}

// Read loads a T from addr
func Read[T any](addr uintptr) T {
	return *(*T)(unsafe.Pointer(addr))
}

// Bytes returns a byte slice aliasing [addr, addr+size)
func Bytes(addr, size uintptr) []byte {
	if size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}

// Slice returns a []T of length count aliasing memory starting at addr
func Slice[T any](addr uintptr, count int) []T {
	if count == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(addr)), count)
}

// Zero clears [addr, addr+size)
func Zero(addr, size uintptr) {
	clear(Bytes(addr, size))
}

// Copy moves size bytes from src to dst. The ranges may overlap.
func Copy(dst, src, size uintptr) {
	copy(Bytes(dst, size), Bytes(src, size))
}
