package machine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocatorFirstFit(t *testing.T) {
	a := newAllocator(10, 20)
	first, err := a.alloc(3)
	require.NoError(t, err)
	require.Equal(t, byte(10), first)

	second, err := a.alloc(2)
	require.NoError(t, err)
	require.Equal(t, byte(13), second)

	a.free(first, 3)
	third, err := a.alloc(3)
	require.NoError(t, err)
	require.Equal(t, byte(10), third, "freed run should be reused first-fit")
}

func TestAllocatorOutOfMemory(t *testing.T) {
	a := newAllocator(10, 15)
	_, err := a.alloc(5)
	require.NoError(t, err)
	_, err = a.alloc(1)
	require.ErrorContains(t, err, "out of memory")
}

func TestAllocatorAllFree(t *testing.T) {
	a := newAllocator(10, 20)
	require.True(t, a.allFree())
	addr, err := a.alloc(4)
	require.NoError(t, err)
	require.False(t, a.allFree())
	a.free(addr, 4)
	require.True(t, a.allFree())
}
