package collections

import "github.com/pkg/errors"

// OutOfMemoryError is returned when the allocator backing a collection cannot satisfy a request
var OutOfMemoryError error = errors.New("heap allocation failed: out of memory")
