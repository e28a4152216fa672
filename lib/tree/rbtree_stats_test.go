package tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRBTreeStats(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	tree := NewOrderedRBTree[int, int](WithRBTreeStats[int, int]("stats-test"))
	for i := 0; i < 16; i++ {
		_, err := tree.Add(i, i)
		require.NoError(t, err)
	}
	require.True(t, tree.Erase(3))
	clone, err := tree.Clone()
	require.NoError(t, err)
	clone.Clear()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != RBTreeStatsName {
			continue
		}
		for _, m := range sm.Metrics {
			data, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, m.Name)
			for _, dp := range data.DataPoints {
				v, ok := dp.Attributes.Value("xtree.rbtree.name")
				require.True(t, ok)
				require.Equal(t, "stats-test", v.AsString())
				sums[m.Name] += dp.Value
			}
		}
	}
	require.Equal(t, int64(16), sums["xtree.rbtree.insert.count"])
	require.Equal(t, int64(16), sums["xtree.rbtree.erase.count"])
	require.Equal(t, int64(15), sums["xtree.rbtree.size"])
	require.Greater(t, sums["xtree.rbtree.rotate.count"], int64(0))
}

func collectRBTreeSizes(t *testing.T, reader sdkmetric.Reader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	sizes := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != RBTreeStatsName {
			continue
		}
		for _, m := range sm.Metrics {
			if m.Name != "xtree.rbtree.size" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				v, _ := dp.Attributes.Value("xtree.rbtree.name")
				sizes[v.AsString()] += dp.Value
			}
		}
	}
	return sizes
}

func TestRBTreeStats_Swap(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		_ = provider.Shutdown(context.Background())
	})

	fill := func(tree RBTree[int, int], n int) {
		for i := 0; i < n; i++ {
			_, _, err := tree.Insert(i, i)
			require.NoError(t, err)
		}
	}
	a := NewOrderedRBTree[int, int](WithRBTreeStats[int, int]("swap-a"))
	b := NewOrderedRBTree[int, int](WithRBTreeStats[int, int]("swap-b"))
	plain := NewOrderedRBTree[int, int]()
	fill(a, 5)
	fill(b, 2)
	fill(plain, 9)

	require.NoError(t, a.Swap(plain))
	require.Equal(t, int64(9), a.Len())
	require.Equal(t, map[string]int64{"swap-a": 9, "swap-b": 2}, collectRBTreeSizes(t, reader))

	require.NoError(t, a.Swap(b))
	require.Equal(t, map[string]int64{"swap-a": 2, "swap-b": 9}, collectRBTreeSizes(t, reader))

	a.Clear()
	require.True(t, b.Erase(0))
	require.Equal(t, map[string]int64{"swap-a": 0, "swap-b": 8}, collectRBTreeSizes(t, reader))
}

func TestRBTreeStats_Nil(t *testing.T) {
	var stats *rbTreeStats
	stats.RecordInsert()
	stats.RecordErase(1)
	stats.RecordRotate()
	stats.RecordClone(1)
	stats.RecordResize(1)
}
