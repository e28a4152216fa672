package observability

// https://opentelemetry.io/docs/languages/go/exporters/

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"
)

var ErrUnknownExporter = errors.New("[observability] unknown metrics exporter")

type ExporterType uint8

const (
	ConsoleExporter ExporterType = iota
	PrometheusExporter
	_exporterMax
)

func (typ ExporterType) String() string {
	switch typ {
	case ConsoleExporter:
		return "console"
	case PrometheusExporter:
		return "prometheus"
	default:
	}
	return "unknown"
}

func ParseExporterType(name string) (ExporterType, error) {
	for typ := ConsoleExporter; typ < _exporterMax; typ++ {
		if typ.String() == name {
			return typ, nil
		}
	}
	return _exporterMax, ErrUnknownExporter
}

type exporterCfg struct {
	interval time.Duration
	timeout  time.Duration
	writer   io.Writer
	registry *promclient.Registry
}

type ExporterOption func(*exporterCfg)

func WithConsoleInterval(interval, timeout time.Duration) ExporterOption {
	return func(cfg *exporterCfg) {
		if interval > 0 {
			cfg.interval = interval
		}
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

func WithConsoleWriter(w io.Writer) ExporterOption {
	return func(cfg *exporterCfg) {
		if w != nil {
			cfg.writer = w
		}
	}
}

func WithPrometheusRegistry(reg *promclient.Registry) ExporterOption {
	return func(cfg *exporterCfg) {
		if reg != nil {
			cfg.registry = reg
		}
	}
}

// MetricsExporter owns the global meter provider it installed.
type MetricsExporter struct {
	typ      ExporterType
	shutdown func(ctx context.Context) error
	registry *promclient.Registry
}

func (e *MetricsExporter) Type() ExporterType {
	return e.typ
}

func (e *MetricsExporter) Shutdown(ctx context.Context) error {
	if e == nil || e.shutdown == nil {
		return nil
	}
	return e.shutdown(ctx)
}

// Handler serves the scrape endpoint of the prometheus exporter. The
// console exporter has nothing to scrape.
func (e *MetricsExporter) Handler() http.Handler {
	if e == nil || e.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

func InitMetricsExporter(typ ExporterType, opts ...ExporterOption) (*MetricsExporter, error) {
	cfg := &exporterCfg{
		interval: 10 * time.Second,
		timeout:  5 * time.Second,
		writer:   os.Stdout,
	}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}

	switch typ {
	case ConsoleExporter:
		shutdown, err := newConsoleMetricsExporter(cfg.interval, cfg.timeout,
			stdoutmetric.WithWriter(cfg.writer),
		)
		if err != nil {
			return nil, err
		}
		return &MetricsExporter{typ: typ, shutdown: shutdown}, nil
	case PrometheusExporter:
		if cfg.registry == nil {
			cfg.registry = promclient.NewRegistry()
		}
		shutdown, err := newPrometheusMetricsExporter(prometheus.WithRegisterer(cfg.registry))
		if err != nil {
			return nil, err
		}
		return &MetricsExporter{typ: typ, shutdown: shutdown, registry: cfg.registry}, nil
	default:
	}
	return nil, ErrUnknownExporter
}

// Serves for test/dev environment.
func newConsoleMetricsExporter(interval, timeout time.Duration, opts ...stdoutmetric.Option) (func(ctx context.Context) error, error) {
	exporter, err := stdoutmetric.New(opts...)
	if err != nil {
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(metric.NewPeriodicReader(
		exporter,
		metric.WithInterval(interval),
		metric.WithTimeout(timeout),
	)))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}

// Serves for the product environment and fetch stats metrics by HTTP.
func newPrometheusMetricsExporter(opts ...prometheus.Option) (func(ctx context.Context) error, error) {
	exporter, err := prometheus.New(opts...)
	if err != nil {
		return nil, err
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	return mp.Shutdown, nil
}
