package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

// LayoutOverflowError is returned from NewLayout when the requested size, rounded up to its alignment,
// does not fit in the address space
var LayoutOverflowError error = errors.New("layout size overflows the address space")
