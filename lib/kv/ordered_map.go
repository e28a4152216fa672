package kv

import (
	"fmt"
	"iter"

	"github.com/samber/lo"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
)

// OrderedMap keeps unique keys in the order of its comparator. It is not
// safe for concurrent use.
type OrderedMap[K any, V any] struct {
	tree tree.RBTree[K, V]
}

func NewOrderedMap[K any, V any](cmp infra.Comparator[K], opts ...tree.RBTreeOpt[K, V]) *OrderedMap[K, V] {
	return &OrderedMap[K, V]{
		tree: tree.NewRBTree[K, V](cmp, opts...),
	}
}

func NewOrderedMapOf[K infra.OrderedKey, V any](opts ...tree.RBTreeOpt[K, V]) *OrderedMap[K, V] {
	return NewOrderedMap[K, V](infra.OrderedKeyCmp[K], opts...)
}

func (m *OrderedMap[K, V]) Len() int64 {
	return m.tree.Len()
}

func (m *OrderedMap[K, V]) Empty() bool {
	return m.tree.Len() == 0
}

func (m *OrderedMap[K, V]) cursor(node *tree.Node[K, V]) tree.Cursor[K, V] {
	return tree.NewCursor[K, V](m.tree.RootSlot(), node)
}

// Insert adds the entry if the key is absent. An existing entry is kept
// as is and its cursor is returned with false.
func (m *OrderedMap[K, V]) Insert(key K, val V) (tree.Cursor[K, V], bool, error) {
	node, inserted, err := m.tree.Insert(key, val)
	if err != nil {
		return m.End(), false, err
	}
	return m.cursor(node), inserted, nil
}

// InsertEntries stops at the first allocation failure, the entries before
// it stay inserted. lo.Entry needs comparable keys, so it is not a method.
func InsertEntries[K comparable, V any](m *OrderedMap[K, V], entries ...lo.Entry[K, V]) error {
	for _, e := range entries {
		if _, _, err := m.tree.Insert(e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	if node := m.tree.Find(key); node != nil {
		return node.Val(), true
	}
	return *new(V), false
}

func (m *OrderedMap[K, V]) At(key K) (V, error) {
	node := m.tree.Find(key)
	if node == nil {
		return *new(V), fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}
	return node.Val(), nil
}

// Index returns the value slot of key, adding a zero value first if the
// key is absent. The pointer stays valid until the key is erased.
func (m *OrderedMap[K, V]) Index(key K) (*V, error) {
	node, _, err := m.tree.Insert(key, *new(V))
	if err != nil {
		return nil, err
	}
	return node.ValRef(), nil
}

func (m *OrderedMap[K, V]) Find(key K) tree.Cursor[K, V] {
	return m.cursor(m.tree.Find(key))
}

func (m *OrderedMap[K, V]) Contains(key K) bool {
	return m.tree.Find(key) != nil
}

func (m *OrderedMap[K, V]) Count(key K) int {
	if m.Contains(key) {
		return 1
	}
	return 0
}

func (m *OrderedMap[K, V]) Erase(key K) int {
	if m.tree.Erase(key) {
		return 1
	}
	return 0
}

// EraseAt erases the entry under c and returns the cursor to the next
// entry. Erasing at the end position does nothing.
func (m *OrderedMap[K, V]) EraseAt(c tree.Cursor[K, V]) tree.Cursor[K, V] {
	if c.IsEnd() {
		return c
	}
	next := c
	next.Next()
	m.tree.EraseNode(c.Node())
	return next
}

// EraseRange erases [first, last) and returns last.
func (m *OrderedMap[K, V]) EraseRange(first, last tree.Cursor[K, V]) tree.Cursor[K, V] {
	for !first.IsEnd() && !first.Equal(last) {
		first = m.EraseAt(first)
	}
	return first
}

func (m *OrderedMap[K, V]) LowerBound(key K) tree.Cursor[K, V] {
	return m.cursor(m.tree.LowerBound(key))
}

func (m *OrderedMap[K, V]) UpperBound(key K) tree.Cursor[K, V] {
	return m.cursor(m.tree.UpperBound(key))
}

func (m *OrderedMap[K, V]) EqualRange(key K) (tree.Cursor[K, V], tree.Cursor[K, V]) {
	return m.LowerBound(key), m.UpperBound(key)
}

func (m *OrderedMap[K, V]) Begin() tree.Cursor[K, V] {
	return m.tree.Begin()
}

func (m *OrderedMap[K, V]) End() tree.Cursor[K, V] {
	return m.tree.End()
}

// All yields the entries in ascending key order. Erasing the yielded key
// while iterating is allowed.
func (m *OrderedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for c := m.Begin(); !c.IsEnd(); {
			k, v := c.Key(), c.Val()
			c.Next()
			if !yield(k, v) {
				return
			}
		}
	}
}

func (m *OrderedMap[K, V]) Backward() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		c := m.End()
		for c.Prev(); !c.IsEnd(); {
			k, v := c.Key(), c.Val()
			c.Prev()
			if !yield(k, v) {
				return
			}
		}
	}
}

func (m *OrderedMap[K, V]) Keys() []K {
	keys := make([]K, 0, m.Len())
	for k := range m.All() {
		keys = append(keys, k)
	}
	return keys
}

func (m *OrderedMap[K, V]) Values() []V {
	vals := make([]V, 0, m.Len())
	for _, v := range m.All() {
		vals = append(vals, v)
	}
	return vals
}

func (m *OrderedMap[K, V]) Min() (K, V, bool) {
	node := m.tree.Smallest()
	if node == nil {
		return *new(K), *new(V), false
	}
	return node.Key(), node.Val(), true
}

func (m *OrderedMap[K, V]) Max() (K, V, bool) {
	node := m.tree.Largest()
	if node == nil {
		return *new(K), *new(V), false
	}
	return node.Key(), node.Val(), true
}

func (m *OrderedMap[K, V]) Clear() {
	m.tree.Clear()
}

// Swap exchanges the contents in O(1). Cursors keep pointing at their
// entries, which now belong to the other map.
func (m *OrderedMap[K, V]) Swap(other *OrderedMap[K, V]) error {
	if other == nil {
		return tree.ErrForeignTree
	}
	return m.tree.Swap(other.tree)
}

func (m *OrderedMap[K, V]) Clone() (*OrderedMap[K, V], error) {
	t, err := m.tree.Clone()
	if err != nil {
		return nil, err
	}
	return &OrderedMap[K, V]{tree: t}, nil
}

// EqualFunc reports whether both maps hold the same keys, under this
// map's comparator, with values equal by eq.
func (m *OrderedMap[K, V]) EqualFunc(other *OrderedMap[K, V], eq func(V, V) bool) bool {
	if other == nil || m.Len() != other.Len() {
		return false
	}
	c1, c2 := m.Begin(), other.Begin()
	for ; !c1.IsEnd(); c1.Next() {
		if m.tree.Compare(c1.Key(), c2.Key()) != 0 || !eq(c1.Val(), c2.Val()) {
			return false
		}
		c2.Next()
	}
	return true
}
