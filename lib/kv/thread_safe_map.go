package kv

import (
	"io"
	"sync"

	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

// threadSafeMap guards an OrderedMap with a RWMutex, so the listings come
// out in key order.
type threadSafeMap[K comparable, V any] struct {
	lock           sync.RWMutex
	items          *OrderedMap[K, V]
	cmp            infra.Comparator[K]
	isClosableItem bool
}

func (t *threadSafeMap[K, V]) AddOrUpdate(key K, obj V) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.items == nil {
		return ErrMapClosed
	}
	ref, err := t.items.Index(key)
	if err != nil {
		return err
	}
	*ref = obj
	return nil
}

func (t *threadSafeMap[K, V]) Replace(items map[K]V) error {
	replaced := NewOrderedMap[K, V](t.cmp)
	for k, v := range items {
		if _, _, err := replaced.Insert(k, v); err != nil {
			return err
		}
	}

	t.lock.Lock()
	defer t.lock.Unlock()
	t.items = replaced
	return nil
}

func (t *threadSafeMap[K, V]) Delete(key K) (V, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.items == nil {
		return *new(V), ErrMapClosed
	}
	c := t.items.Find(key)
	if c.IsEnd() {
		return *new(V), ErrKeyNotFound
	}
	val := c.Val()
	t.items.EraseAt(c)
	return val, nil
}

func (t *threadSafeMap[K, V]) Get(key K) (item V, exists bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	if t.items == nil {
		return
	}
	return t.items.Get(key)
}

func (t *threadSafeMap[K, V]) Len() int64 {
	t.lock.RLock()
	defer t.lock.RUnlock()
	if t.items == nil {
		return 0
	}
	return t.items.Len()
}

func (t *threadSafeMap[K, V]) ListKeys(filters ...SafeStoreKeyFilterFunc[K]) []K {
	realFilters := make([]SafeStoreKeyFilterFunc[K], 0, len(filters))
	for _, filter := range filters {
		if filter != nil {
			realFilters = append(realFilters, filter)
		}
	}
	if len(realFilters) == 0 {
		realFilters = append(realFilters, defaultAllKeysFilter[K])
	}

	t.lock.RLock()
	defer t.lock.RUnlock()
	if t.items == nil {
		return []K{}
	}

	keys := make([]K, 0, t.items.Len())
	for key := range t.items.All() {
		for _, filter := range realFilters {
			if filter(key) {
				keys = append(keys, key)
				break
			}
		}
	}
	return keys
}

// ListValues returns the values of keys in key order, or all values if no
// key is given. Absent keys are skipped.
func (t *threadSafeMap[K, V]) ListValues(keys ...K) (items []V) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	if t.items == nil {
		return []V{}
	}
	if len(keys) == 0 {
		return t.items.Values()
	}

	wanted := NewOrderedSet[K](t.cmp)
	_ = wanted.InsertAll(keys...)
	values := make([]V, 0, wanted.Len())
	for key := range wanted.All() {
		if v, ok := t.items.Get(key); ok {
			values = append(values, v)
		}
	}
	return values
}

// Purge drops all items and closes those implementing io.Closer. The map
// refuses writes afterwards.
func (t *threadSafeMap[K, V]) Purge() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.items == nil {
		return nil
	}

	var merr error
	if t.isClosableItem {
		for _, item := range t.items.All() {
			if closer, ok := any(item).(io.Closer); ok && closer != nil {
				merr = multierr.Append(merr, closer.Close())
			}
		}
	}
	t.items.Clear()
	t.items = nil
	return merr
}

type ThreadSafeMapOption[K comparable, V any] func(*threadSafeMap[K, V])

// WithThreadSafeMapCloseableItemCheck closes io.Closer items on Purge.
func WithThreadSafeMapCloseableItemCheck[K comparable, V any]() ThreadSafeMapOption[K, V] {
	return func(m *threadSafeMap[K, V]) {
		m.isClosableItem = true
	}
}

func NewThreadSafeMap[K infra.OrderedKey, V any](opts ...ThreadSafeMapOption[K, V]) ThreadSafeStorer[K, V] {
	m := &threadSafeMap[K, V]{
		items: NewOrderedMapOf[K, V](),
		cmp:   infra.OrderedKeyCmp[K],
	}
	for _, o := range opts {
		o(m)
	}
	return m
}
