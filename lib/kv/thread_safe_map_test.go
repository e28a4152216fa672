package kv

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func genStrKeys(n int) []string {
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		keys = append(keys, fmt.Sprintf("key-%05d", i))
	}
	return keys
}

func TestThreadSafeMap_SimpleCRUD(t *testing.T) {
	keys := genStrKeys(10000)
	vals := make([]int, 0, len(keys))
	m := make(map[string]int, len(keys))
	_m := NewThreadSafeMap[string, int]()
	for i, key := range keys {
		m[key] = i
		vals = append(vals, i)
	}
	require.NoError(t, _m.Replace(m))
	require.Equal(t, int64(len(keys)), _m.Len())

	// keys are generated in ascending order already
	require.Equal(t, keys, _m.ListKeys())
	require.Equal(t, vals, _m.ListValues())
	require.Equal(t, []int{3, 7}, _m.ListValues(keys[7], keys[3], "absent"))
	require.Equal(t, []string{"key-00001", "key-00010"}, _m.ListKeys(func(key string) bool {
		return key == "key-00010" || key == "key-00001"
	}))

	i := 1001
	res, exists := _m.Get(keys[i])
	require.True(t, exists)
	require.Equal(t, i, res)

	res, err := _m.Delete(keys[i])
	require.NoError(t, err)
	require.Equal(t, i, res)
	_, err = _m.Delete(keys[i])
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, _m.AddOrUpdate(keys[i], i))
	require.NoError(t, _m.AddOrUpdate(keys[i], i))
	require.Equal(t, keys, _m.ListKeys())
	require.Equal(t, vals, _m.ListValues())

	require.NoError(t, _m.Purge())
	require.Equal(t, int64(0), _m.Len())
	require.Empty(t, _m.ListKeys())
	require.Empty(t, _m.ListValues())
	require.ErrorIs(t, _m.AddOrUpdate("a", 1), ErrMapClosed)
	_, err = _m.Delete("a")
	require.ErrorIs(t, err, ErrMapClosed)
	_, exists = _m.Get("a")
	require.False(t, exists)
	require.NoError(t, _m.Purge())
}

type testCloser struct {
	closed bool
	err    error
}

func (c *testCloser) Close() error {
	c.closed = true
	return c.err
}

func TestThreadSafeMap_PurgeClosable(t *testing.T) {
	errClose := errors.New("close failure")
	a, b := &testCloser{}, &testCloser{err: errClose}
	m := NewThreadSafeMap[int, *testCloser](WithThreadSafeMapCloseableItemCheck[int, *testCloser]())
	require.NoError(t, m.AddOrUpdate(1, a))
	require.NoError(t, m.AddOrUpdate(2, b))
	require.ErrorIs(t, m.Purge(), errClose)
	require.True(t, a.closed)
	require.True(t, b.closed)

	c := &testCloser{}
	m = NewThreadSafeMap[int, *testCloser]()
	require.NoError(t, m.AddOrUpdate(1, c))
	require.NoError(t, m.Purge())
	require.False(t, c.closed)
}

func TestThreadSafeMap_Concurrent(t *testing.T) {
	m := NewThreadSafeMap[string, int]()
	const workers, per = 8, 500
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < per; i++ {
				key := strconv.Itoa(w) + "-" + strconv.Itoa(i)
				_ = m.AddOrUpdate(key, i)
				if i%5 == 0 {
					_, _ = m.Delete(key)
				}
				_, _ = m.Get(key)
				_ = m.ListKeys(func(key string) bool { return strings.HasPrefix(key, "0-") })
			}
		}(w)
	}
	wg.Wait()
	require.Equal(t, int64(workers*per*4/5), m.Len())
}

func BenchmarkStringThreadSafeMap(b *testing.B) {
	keys := genStrKeys(1 << 12)
	m := NewThreadSafeMap[string, int]()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := keys[i&(len(keys)-1)]
		_ = m.AddOrUpdate(key, i)
		_, _ = m.Get(key)
	}
}
