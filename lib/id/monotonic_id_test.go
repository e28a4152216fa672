package id

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMonotonicNonZeroID(t *testing.T) {
	gen, err := MonotonicNonZeroID()
	require.NoError(t, err)
	prev := uint64(0)
	for i := 0; i < 1000; i++ {
		n := gen.Number()
		require.Greater(t, n, prev)
		prev = n
	}
	s, err := strconv.ParseUint(gen.Str(), 10, 64)
	require.NoError(t, err)
	require.Equal(t, prev+1, s)
}

func TestMonotonicNonZeroID_Concurrent(t *testing.T) {
	gen, err := MonotonicNonZeroID()
	require.NoError(t, err)

	const workers, per = 8, 1000
	var (
		wg   sync.WaitGroup
		lock sync.Mutex
		seen = make(map[uint64]struct{}, workers*per)
	)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			local := make([]uint64, 0, per)
			for i := 0; i < per; i++ {
				local = append(local, gen.Number())
			}
			lock.Lock()
			defer lock.Unlock()
			for _, n := range local {
				seen[n] = struct{}{}
			}
		}()
	}
	wg.Wait()
	require.Len(t, seen, workers*per)
	_, zero := seen[0]
	require.False(t, zero)
}

func TestMonotonicNonZeroID_Overflow(t *testing.T) {
	gen, err := MonotonicNonZeroIDFrom(^uint64(0) - 1)
	require.NoError(t, err)
	require.Equal(t, ^uint64(0), gen.Number())
	require.Equal(t, "1", gen.Str())
	require.Equal(t, uint64(2), gen.Number())
}
