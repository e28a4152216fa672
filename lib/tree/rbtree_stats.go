package tree

import (
	"context"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	RBTreeStatsName = "xtree/rbtree"
)

type rbTreeStats struct {
	attrs       metric.MeasurementOption
	insertCount metric.Int64Counter
	eraseCount  metric.Int64Counter
	rotateCount metric.Int64Counter
	size        metric.Int64UpDownCounter
}

func (stats *rbTreeStats) RecordInsert() {
	if stats == nil {
		return
	}
	stats.insertCount.Add(context.Background(), 1, stats.attrs)
	stats.size.Add(context.Background(), 1, stats.attrs)
}

func (stats *rbTreeStats) RecordErase(n int64) {
	if stats == nil || n <= 0 {
		return
	}
	stats.eraseCount.Add(context.Background(), n, stats.attrs)
	stats.size.Add(context.Background(), -n, stats.attrs)
}

func (stats *rbTreeStats) RecordRotate() {
	if stats == nil {
		return
	}
	stats.rotateCount.Add(context.Background(), 1, stats.attrs)
}

// RecordClone accounts the nodes of a fresh clone that shares these stats.
func (stats *rbTreeStats) RecordClone(n int64) {
	if stats == nil || n <= 0 {
		return
	}
	stats.size.Add(context.Background(), n, stats.attrs)
}

// RecordResize moves the size by delta, for node graphs handed over by
// another tree.
func (stats *rbTreeStats) RecordResize(delta int64) {
	if stats == nil || delta == 0 {
		return
	}
	stats.size.Add(context.Background(), delta, stats.attrs)
}

func newRBTreeStats(name string) *rbTreeStats {
	meter := otel.Meter(RBTreeStatsName)
	return &rbTreeStats{
		attrs: metric.WithAttributeSet(attribute.NewSet(
			attribute.String("xtree.rbtree.name", name),
		)),
		insertCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xtree.rbtree.insert.count",
			metric.WithDescription("The number of nodes linked into the rbtree."),
		)),
		eraseCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xtree.rbtree.erase.count",
			metric.WithDescription("The number of nodes unlinked from the rbtree."),
		)),
		rotateCount: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"xtree.rbtree.rotate.count",
			metric.WithDescription("The number of rotations done by rebalancing."),
		)),
		size: lo.Must[metric.Int64UpDownCounter](meter.Int64UpDownCounter(
			"xtree.rbtree.size",
			metric.WithDescription("The number of live nodes in the rbtree."),
		)),
	}
}
