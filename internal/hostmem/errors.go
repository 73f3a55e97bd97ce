package hostmem

import "github.com/pkg/errors"

// ErrUnsupported is returned on hosts without anonymous memory mapping, or without fixed
// address mapping for MapFixed
var ErrUnsupported error = errors.New("host memory mapping is not supported on this platform")
