package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/orgdir/backend/internal/infrastructure/telemetry"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})
	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetricByName(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func newMetricsRouter(t *testing.T) (*gin.Engine, *sdkmetric.ManualReader) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), nil))
	router.GET("/api/v1/buildings/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.POST("/api/v1/buildings", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})
	router.GET("/fail", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})
	return router, reader
}

func TestHTTPMetrics_DisabledProviderPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for name, cfg := range map[string]HTTPMetricsConfig{
		"nil provider":      {},
		"disabled provider": {MeterProvider: &telemetry.MeterProvider{}},
	} {
		t.Run(name, func(t *testing.T) {
			router := gin.New()
			router.Use(HTTPMetrics(cfg))
			router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestHTTPMetricsWithMeter_RecordsRequests(t *testing.T) {
	router, reader := newMetricsRouter(t)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/buildings/"+string(rune('1'+i)), nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	rm := collectMetrics(t, reader)

	total := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, total)
	sum, ok := total.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1, "route pattern keeps a single series per route")

	dp := sum.DataPoints[0]
	assert.Equal(t, int64(3), dp.Value)
	route, _ := dp.Attributes.Value(telemetry.AttrHTTPRoute)
	assert.Equal(t, "/api/v1/buildings/:id", route.AsString())
	class, _ := dp.Attributes.Value(AttrHTTPStatusClass)
	assert.Equal(t, "2xx", class.AsString())

	assert.NotNil(t, findMetricByName(rm, "http_server_request_duration_seconds"))
	assert.NotNil(t, findMetricByName(rm, "http_server_response_size_bytes"))
	assert.NotNil(t, findMetricByName(rm, "http_server_active_requests"))
}

func TestHTTPMetricsWithMeter_StatusAndMethodSeries(t *testing.T) {
	router, reader := newMetricsRouter(t)

	requests := []*http.Request{
		httptest.NewRequest(http.MethodPost, "/api/v1/buildings", strings.NewReader(`{"address":"x"}`)),
		httptest.NewRequest(http.MethodGet, "/fail", nil),
		httptest.NewRequest(http.MethodGet, "/missing", nil),
	}
	for _, req := range requests {
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	rm := collectMetrics(t, reader)
	total := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, total)
	sum := total.Data.(metricdata.Sum[int64])

	seen := map[string]string{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(telemetry.AttrHTTPRoute)
		class, _ := dp.Attributes.Value(AttrHTTPStatusClass)
		seen[route.AsString()] = class.AsString()
	}
	assert.Equal(t, "2xx", seen["/api/v1/buildings"])
	assert.Equal(t, "5xx", seen["/fail"])
	assert.Equal(t, "4xx", seen["unknown"])

	reqSize := findMetricByName(rm, "http_server_request_size_bytes")
	require.NotNil(t, reqSize)
	hist := reqSize.Data.(metricdata.Histogram[float64])
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestHTTPMetricsWithMeter_ActiveRequestsReturnToZero(t *testing.T) {
	router, reader := newMetricsRouter(t)
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/buildings/1", nil))

	rm := collectMetrics(t, reader)
	active := findMetricByName(rm, "http_server_active_requests")
	require.NotNil(t, active)
	sum := active.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(0), sum.DataPoints[0].Value)
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{
		200: "2xx",
		204: "2xx",
		301: "3xx",
		400: "4xx",
		404: "4xx",
		500: "5xx",
		503: "5xx",
		101: "other",
	}
	for code, want := range tests {
		assert.Equal(t, want, StatusClass(code), "status %d", code)
	}
}
