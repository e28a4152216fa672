package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArenaAllocator(t *testing.T) {
	arena := NewArenaAllocator[int, int](2)
	nodes := make([]*Node[int, int], 0, 8)
	for i := 0; i < 8; i++ {
		node, err := arena.Alloc()
		require.NoError(t, err)
		nodes = append(nodes, node)
	}
	// 2 + 4 + 8 slots, 8 carved
	require.Len(t, arena.chunks, 3)
	require.Equal(t, 8, arena.Cap())

	nodes[3].key = 3
	arena.Free(nodes[3])
	require.Equal(t, 0, nodes[3].key)
	node, err := arena.Alloc()
	require.NoError(t, err)
	require.Same(t, nodes[3], node)
	require.Equal(t, 8, arena.Cap())
}

func TestArenaAllocator_ChunkCap(t *testing.T) {
	arena := NewArenaAllocator[int, int](maxArenaChunkSize)
	for i := 0; i < maxArenaChunkSize+1; i++ {
		_, err := arena.Alloc()
		require.NoError(t, err)
	}
	require.Len(t, arena.chunks, 2)
	require.Len(t, arena.chunks[1], maxArenaChunkSize)
	require.Equal(t, defaultArenaChunkSize, len(NewArenaAllocator[int, int](-1).chunks[0]))
}

func TestPoolAllocator(t *testing.T) {
	alloc := NewPoolAllocator[int, string]()
	node, err := alloc.Alloc()
	require.NoError(t, err)
	require.NotNil(t, node)
	node.key, node.val = 1, "a"
	alloc.Free(node)
	require.Equal(t, "", node.val)
}

func TestLimitedAllocator(t *testing.T) {
	alloc := NewLimitedAllocator[int, int](NewArenaAllocator[int, int](0), 2)
	a, err := alloc.Alloc()
	require.NoError(t, err)
	_, err = alloc.Alloc()
	require.NoError(t, err)
	_, err = alloc.Alloc()
	require.ErrorIs(t, err, ErrAllocationFailure)
	require.Equal(t, int64(2), alloc.Live())

	alloc.Free(a)
	require.Equal(t, int64(1), alloc.Live())
	_, err = alloc.Alloc()
	require.NoError(t, err)

	alloc.SetLimit(0)
	_, err = alloc.Alloc()
	require.ErrorIs(t, err, ErrAllocationFailure)
}
