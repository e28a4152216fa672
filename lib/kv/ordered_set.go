package kv

import (
	"iter"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
)

// OrderedSet is an OrderedMap without payload.
type OrderedSet[K any] struct {
	tree tree.RBTree[K, struct{}]
}

func NewOrderedSet[K any](cmp infra.Comparator[K], opts ...tree.RBTreeOpt[K, struct{}]) *OrderedSet[K] {
	return &OrderedSet[K]{
		tree: tree.NewRBTree[K, struct{}](cmp, opts...),
	}
}

func NewOrderedSetOf[K infra.OrderedKey](opts ...tree.RBTreeOpt[K, struct{}]) *OrderedSet[K] {
	return NewOrderedSet[K](infra.OrderedKeyCmp[K], opts...)
}

func (s *OrderedSet[K]) Len() int64 {
	return s.tree.Len()
}

func (s *OrderedSet[K]) Empty() bool {
	return s.tree.Len() == 0
}

func (s *OrderedSet[K]) cursor(node *tree.Node[K, struct{}]) tree.Cursor[K, struct{}] {
	return tree.NewCursor[K, struct{}](s.tree.RootSlot(), node)
}

func (s *OrderedSet[K]) Insert(key K) (tree.Cursor[K, struct{}], bool, error) {
	node, inserted, err := s.tree.Insert(key, struct{}{})
	if err != nil {
		return s.End(), false, err
	}
	return s.cursor(node), inserted, nil
}

func (s *OrderedSet[K]) InsertAll(keys ...K) error {
	for _, k := range keys {
		if _, _, err := s.tree.Insert(k, struct{}{}); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderedSet[K]) Find(key K) tree.Cursor[K, struct{}] {
	return s.cursor(s.tree.Find(key))
}

func (s *OrderedSet[K]) Contains(key K) bool {
	return s.tree.Find(key) != nil
}

func (s *OrderedSet[K]) Count(key K) int {
	if s.Contains(key) {
		return 1
	}
	return 0
}

func (s *OrderedSet[K]) Erase(key K) int {
	if s.tree.Erase(key) {
		return 1
	}
	return 0
}

func (s *OrderedSet[K]) EraseAt(c tree.Cursor[K, struct{}]) tree.Cursor[K, struct{}] {
	if c.IsEnd() {
		return c
	}
	next := c
	next.Next()
	s.tree.EraseNode(c.Node())
	return next
}

func (s *OrderedSet[K]) EraseRange(first, last tree.Cursor[K, struct{}]) tree.Cursor[K, struct{}] {
	for !first.IsEnd() && !first.Equal(last) {
		first = s.EraseAt(first)
	}
	return first
}

func (s *OrderedSet[K]) LowerBound(key K) tree.Cursor[K, struct{}] {
	return s.cursor(s.tree.LowerBound(key))
}

func (s *OrderedSet[K]) UpperBound(key K) tree.Cursor[K, struct{}] {
	return s.cursor(s.tree.UpperBound(key))
}

func (s *OrderedSet[K]) EqualRange(key K) (tree.Cursor[K, struct{}], tree.Cursor[K, struct{}]) {
	return s.LowerBound(key), s.UpperBound(key)
}

func (s *OrderedSet[K]) Begin() tree.Cursor[K, struct{}] {
	return s.tree.Begin()
}

func (s *OrderedSet[K]) End() tree.Cursor[K, struct{}] {
	return s.tree.End()
}

func (s *OrderedSet[K]) All() iter.Seq[K] {
	return func(yield func(K) bool) {
		for c := s.Begin(); !c.IsEnd(); {
			k := c.Key()
			c.Next()
			if !yield(k) {
				return
			}
		}
	}
}

func (s *OrderedSet[K]) Backward() iter.Seq[K] {
	return func(yield func(K) bool) {
		c := s.End()
		for c.Prev(); !c.IsEnd(); {
			k := c.Key()
			c.Prev()
			if !yield(k) {
				return
			}
		}
	}
}

func (s *OrderedSet[K]) Keys() []K {
	keys := make([]K, 0, s.Len())
	for k := range s.All() {
		keys = append(keys, k)
	}
	return keys
}

func (s *OrderedSet[K]) Min() (K, bool) {
	node := s.tree.Smallest()
	if node == nil {
		return *new(K), false
	}
	return node.Key(), true
}

func (s *OrderedSet[K]) Max() (K, bool) {
	node := s.tree.Largest()
	if node == nil {
		return *new(K), false
	}
	return node.Key(), true
}

func (s *OrderedSet[K]) Clear() {
	s.tree.Clear()
}

func (s *OrderedSet[K]) Swap(other *OrderedSet[K]) error {
	if other == nil {
		return tree.ErrForeignTree
	}
	return s.tree.Swap(other.tree)
}

func (s *OrderedSet[K]) Clone() (*OrderedSet[K], error) {
	t, err := s.tree.Clone()
	if err != nil {
		return nil, err
	}
	return &OrderedSet[K]{tree: t}, nil
}

func (s *OrderedSet[K]) Equal(other *OrderedSet[K]) bool {
	if other == nil || s.Len() != other.Len() {
		return false
	}
	return s.Compare(other) == 0
}

// Compare orders two sets lexicographically by this set's comparator. A
// set that is a prefix of the other is the smaller one.
func (s *OrderedSet[K]) Compare(other *OrderedSet[K]) int {
	if other == nil {
		other = &OrderedSet[K]{tree: tree.NewRBTree[K, struct{}](s.tree.Compare)}
	}
	c1, c2 := s.Begin(), other.Begin()
	for ; !c1.IsEnd() && !c2.IsEnd(); c1.Next() {
		if res := s.tree.Compare(c1.Key(), c2.Key()); res < 0 {
			return -1
		} else if res > 0 {
			return 1
		}
		c2.Next()
	}
	switch {
	case c1.IsEnd() && c2.IsEnd():
		return 0
	case c1.IsEnd():
		return -1
	default:
		return 1
	}
}
