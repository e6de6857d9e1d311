package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriscan_backend/internal/platform/metrics"
)

func counterValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metricLoop:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metricLoop
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(metrics.Middleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	before := counterValue(t, "agriscan_http_requests_total", map[string]string{"method": "GET", "path": "/items/:id", "code": "418"})
	unmatchedBefore := counterValue(t, "agriscan_http_requests_total", map[string]string{"method": "GET", "path": "unmatched", "code": "404"})

	for _, target := range []string{"/items/1", "/items/2", "/nope"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	}

	assert.Equal(t, before+2, counterValue(t, "agriscan_http_requests_total", map[string]string{"method": "GET", "path": "/items/:id", "code": "418"}))
	assert.Equal(t, unmatchedBefore+1, counterValue(t, "agriscan_http_requests_total", map[string]string{"method": "GET", "path": "unmatched", "code": "404"}))
}

func TestPipelineCollectors(t *testing.T) {
	require.NotPanics(t, func() {
		metrics.ModelLoadsTotal(metrics.StatusOK)
		metrics.DetectionsTotal("Late_blight")
		metrics.InferenceDuration(metrics.StatusError, 0)
	})

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["agriscan_model_loads_total"])
	assert.True(t, names["agriscan_detections_total"])
	assert.True(t, names["agriscan_inference_duration_seconds"])
	assert.GreaterOrEqual(t, counterValue(t, "agriscan_detections_total", map[string]string{"class": "Late_blight"}), 1.0)
}
