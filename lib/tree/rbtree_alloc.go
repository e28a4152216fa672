package tree

import (
	"sync"
)

// NodeAllocator is the storage boundary of a tree. The tree fills an
// allocated node completely before linking it, and frees a node only
// after it is unlinked.
type NodeAllocator[K any, V any] interface {
	Alloc() (*Node[K, V], error)
	Free(node *Node[K, V])
}

type heapAllocator[K any, V any] struct{}

func (heapAllocator[K, V]) Alloc() (*Node[K, V], error) {
	return new(Node[K, V]), nil
}

func (heapAllocator[K, V]) Free(node *Node[K, V]) {
	// Drop the references, so a stale handle can't reach the tree.
	*node = Node[K, V]{}
}

func NewHeapAllocator[K any, V any]() NodeAllocator[K, V] {
	return heapAllocator[K, V]{}
}

type poolAllocator[K any, V any] struct {
	pool *sync.Pool
}

func (p *poolAllocator[K, V]) Alloc() (*Node[K, V], error) {
	return p.pool.Get().(*Node[K, V]), nil
}

func (p *poolAllocator[K, V]) Free(node *Node[K, V]) {
	*node = Node[K, V]{}
	p.pool.Put(node)
}

// NewPoolAllocator recycles freed nodes through a sync.Pool. It is the only
// allocator that may be shared by trees living in different goroutines.
func NewPoolAllocator[K any, V any]() NodeAllocator[K, V] {
	return &poolAllocator[K, V]{
		pool: &sync.Pool{
			New: func() any {
				return new(Node[K, V])
			},
		},
	}
}

const (
	defaultArenaChunkSize = 64
	maxArenaChunkSize     = 1 << 16
)

// ArenaAllocator carves nodes out of contiguous chunks and keeps a free
// list of released slots. Chunks are never returned while the arena lives.
type ArenaAllocator[K any, V any] struct {
	chunks [][]Node[K, V]
	next   int
	free   []*Node[K, V]
}

func NewArenaAllocator[K any, V any](chunkSize int) *ArenaAllocator[K, V] {
	if chunkSize <= 0 {
		chunkSize = defaultArenaChunkSize
	}
	return &ArenaAllocator[K, V]{
		chunks: [][]Node[K, V]{make([]Node[K, V], chunkSize)},
	}
}

func (arena *ArenaAllocator[K, V]) Alloc() (*Node[K, V], error) {
	if n := len(arena.free); n > 0 {
		node := arena.free[n-1]
		arena.free[n-1] = nil
		arena.free = arena.free[:n-1]
		return node, nil
	}
	last := arena.chunks[len(arena.chunks)-1]
	if arena.next >= len(last) {
		// double size increase
		growth := len(last) << 1
		if growth > maxArenaChunkSize {
			growth = maxArenaChunkSize
		}
		last = make([]Node[K, V], growth)
		arena.chunks = append(arena.chunks, last)
		arena.next = 0
	}
	node := &last[arena.next]
	arena.next++
	return node, nil
}

func (arena *ArenaAllocator[K, V]) Free(node *Node[K, V]) {
	*node = Node[K, V]{}
	arena.free = append(arena.free, node)
}

// Cap is the number of slots carved so far, live or free.
func (arena *ArenaAllocator[K, V]) Cap() int {
	total := 0
	for i := 0; i < len(arena.chunks)-1; i++ {
		total += len(arena.chunks[i])
	}
	return total + arena.next
}

// LimitedAllocator fails with ErrAllocationFailure once limit nodes are live.
type LimitedAllocator[K any, V any] struct {
	base  NodeAllocator[K, V]
	limit int64
	live  int64
}

func NewLimitedAllocator[K any, V any](base NodeAllocator[K, V], limit int64) *LimitedAllocator[K, V] {
	if base == nil {
		base = NewHeapAllocator[K, V]()
	}
	return &LimitedAllocator[K, V]{
		base:  base,
		limit: limit,
	}
}

func (l *LimitedAllocator[K, V]) Alloc() (*Node[K, V], error) {
	if l.live >= l.limit {
		return nil, ErrAllocationFailure
	}
	node, err := l.base.Alloc()
	if err != nil {
		return nil, err
	}
	l.live++
	return node, nil
}

func (l *LimitedAllocator[K, V]) Free(node *Node[K, V]) {
	l.live--
	l.base.Free(node)
}

func (l *LimitedAllocator[K, V]) Live() int64 {
	return l.live
}

// SetLimit changes the limit, live nodes above it stay.
func (l *LimitedAllocator[K, V]) SetLimit(limit int64) {
	l.limit = limit
}
