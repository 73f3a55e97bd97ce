//go:build linux

package hostmem_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/kheap/internal/hostmem"
	"github.com/vkngwrapper/kheap/memutils/rawmem"
)

const fixedTestAddress uintptr = 0x_2222_2220_0000

func TestMapFixedPlacesMemoryAtAddress(t *testing.T) {
	require.NoError(t, hostmem.MapFixed(fixedTestAddress, 2*4096, true))

	rawmem.Write[uint64](fixedTestAddress+4096, 0xfeed)
	require.Equal(t, uint64(0xfeed), rawmem.Read[uint64](fixedTestAddress+4096))

	// Existing mappings are never replaced
	require.Error(t, hostmem.MapFixed(fixedTestAddress+4096, 4096, true))

	require.NoError(t, hostmem.Unmap(fixedTestAddress, 2*4096))
	require.NoError(t, hostmem.MapFixed(fixedTestAddress, 4096, false))
	require.NoError(t, hostmem.Unmap(fixedTestAddress, 4096))
}
