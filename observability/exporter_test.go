package observability

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/benz9527/xtree/lib/tree"
)

func fillStatsTree(t *testing.T, name string) {
	t.Helper()
	rbtree := tree.NewOrderedRBTree[int, int](tree.WithRBTreeStats[int, int](name))
	for i := 0; i < 32; i++ {
		_, err := rbtree.Add(i, i)
		require.NoError(t, err)
	}
	require.True(t, rbtree.Erase(7))
}

func TestExporterType(t *testing.T) {
	for _, typ := range []ExporterType{ConsoleExporter, PrometheusExporter} {
		parsed, err := ParseExporterType(typ.String())
		require.NoError(t, err)
		require.Equal(t, typ, parsed)
	}
	_, err := ParseExporterType("otlp")
	require.ErrorIs(t, err, ErrUnknownExporter)
	require.Equal(t, "unknown", _exporterMax.String())

	_, err = InitMetricsExporter(_exporterMax)
	require.ErrorIs(t, err, ErrUnknownExporter)
}

func TestConsoleMetricsExporter(t *testing.T) {
	buf := &bytes.Buffer{}
	exporter, err := InitMetricsExporter(ConsoleExporter,
		WithConsoleWriter(buf),
		WithConsoleInterval(time.Hour, time.Second),
	)
	require.NoError(t, err)
	require.Equal(t, ConsoleExporter, exporter.Type())

	fillStatsTree(t, "console")
	// Shutdown flushes the periodic reader.
	require.NoError(t, exporter.Shutdown(context.Background()))
	require.Contains(t, buf.String(), "xtree.rbtree.insert.count")
	require.Contains(t, buf.String(), "console")

	rec := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var nilExporter *MetricsExporter
	require.NoError(t, nilExporter.Shutdown(context.Background()))
}

func TestPrometheusMetricsExporter(t *testing.T) {
	reg := promclient.NewRegistry()
	exporter, err := InitMetricsExporter(PrometheusExporter, WithPrometheusRegistry(reg))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, exporter.Shutdown(context.Background()))
	}()

	fillStatsTree(t, "prometheus")

	srv := httptest.NewServer(exporter.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "xtree_rbtree_insert_count")
	require.Contains(t, string(body), `xtree_rbtree_name="prometheus"`)
}
