package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestHTTPMetrics_NilPassThrough(t *testing.T) {
	t.Parallel()

	var metrics *HTTPMetrics
	called := false
	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, called)
	require.Equal(t, http.StatusTeapot, rec.Code)
}

func TestHTTPMetrics_Middleware(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewHTTPMetrics(mp)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/api/connector/sync/{jobID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/connector/sync/"+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	found := collect(t, reader, HTTPMetricsMeterName)
	total, ok := found["hubgraph_http_requests_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, total.DataPoints, 1, "route pattern should collapse path parameters")
	require.Equal(t, int64(2), total.DataPoints[0].Value)

	route, ok := total.DataPoints[0].Attributes.Value("route")
	require.True(t, ok)
	require.Equal(t, "/api/connector/sync/{jobID}", route.AsString())
}

func TestPrometheusProvider_Handler(t *testing.T) {
	t.Parallel()

	provider, err := NewPrometheusProvider()
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(context.Background()) }()

	metrics, err := NewSyncMetrics(provider)
	require.NoError(t, err)
	metrics.RecordItemsSynced(context.Background(), "contacts", 7)

	rec := httptest.NewRecorder()
	provider.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, "hubgraph_sync_items_total"), "expected sync counter in exposition")
	require.Contains(t, body, "go_goroutines")
}
