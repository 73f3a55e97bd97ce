package allocator

import "github.com/cockroachdb/errors"

// panicf halts the current operation on a broken allocator invariant. These are
// programming or configuration errors, never out-of-memory conditions, which are
// reported by returning 0 from Alloc.
func panicf(format string, args ...any) {
	panic(errors.AssertionFailedf(format, args...))
}
