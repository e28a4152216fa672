package observability

import (
	"context"
	"runtime"
	"strings"
	"sync"

	"github.com/samber/lo"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	xruntime "github.com/benz9527/xtree/lib/runtime"
)

var (
	once sync.Once
)

type appStats struct {
	ctx              context.Context
	shutdownCallback func(ctx context.Context) error
	attrs            metric.MeasurementOption
	goroutines       metric.Int64ObservableUpDownCounter
	processes        metric.Int64ObservableUpDownCounter
}

func (stats *appStats) waitForShutdown() {
	if stats == nil || stats.shutdownCallback == nil {
		return
	}
	go func() {
		<-stats.ctx.Done()
		_ = stats.shutdownCallback(context.Background())
	}()
}

func envAttributes(env xruntime.Env) metric.MeasurementOption {
	attrs := []attribute.KeyValue{
		attribute.String("xtree.app.platform", env.Platform()),
	}
	if len(env.ContainerID) > 0 {
		attrs = append(attrs, attribute.String("xtree.app.container.id", env.ContainerID))
	}
	return metric.WithAttributes(attrs...)
}

func appStatsName(name string) string {
	builder := &strings.Builder{}
	builder.WriteString("xtree/app/")
	if len(strings.TrimSpace(name)) > 0 {
		builder.WriteString(name)
	} else {
		builder.WriteString("default")
	}
	return builder.String()
}

// InitAppStats registers the process gauges and the otel runtime metrics
// once per process. The exporter is shut down when ctx is done.
func InitAppStats(ctx context.Context, name string, exporter *MetricsExporter) {
	once.Do(func() {
		meter := otel.Meter(
			appStatsName(name),
			metric.WithInstrumentationVersion(otelruntime.Version()),
		)
		stats := &appStats{
			ctx:   ctx,
			attrs: envAttributes(xruntime.LoadEnv()),
		}
		stats.goroutines = lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
			"xtree.app.goroutines",
			metric.WithDescription(`The application goroutines' info.`),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				ob.Observe(int64(runtime.NumGoroutine()), stats.attrs)
				return nil
			}),
		))
		stats.processes = lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
			"xtree.app.processes",
			metric.WithDescription(`The application processes' info.`),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				ob.Observe(int64(runtime.GOMAXPROCS(0)), stats.attrs)
				return nil
			}),
		))
		if exporter != nil {
			stats.shutdownCallback = exporter.Shutdown
		}
		_ = otelruntime.Start()
		stats.waitForShutdown()
	})
}
