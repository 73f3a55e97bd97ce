package memutils

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint | ~uintptr
}

// CheckPow2 returns PowerOfTwoError if number is zero or not a power of two
func CheckPow2[T Number](number T, name string) error {
	if number == 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// AlignUp rounds addr up to the next multiple of alignment, which must be a power of two.
// The result wraps if addr is within alignment-1 of the top of the address space; use
// CheckedAlignUp when addr is not trusted.
func AlignUp(addr uintptr, alignment uintptr) uintptr {
	return (addr + alignment - 1) &^ (alignment - 1)
}

func AlignDown(addr uintptr, alignment uintptr) uintptr {
	return addr &^ (alignment - 1)
}

// CheckedAlignUp is AlignUp that reports false instead of wrapping past the top of the address space
func CheckedAlignUp(addr uintptr, alignment uintptr) (uintptr, bool) {
	bumped, ok := CheckedAdd(addr, alignment-1)
	if !ok {
		return 0, false
	}
	return bumped &^ (alignment - 1), true
}

// CheckedAdd returns a+b and false if the sum overflows uintptr
func CheckedAdd(a, b uintptr) (uintptr, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}
