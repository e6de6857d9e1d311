// Package metrics はHTTP層と推論パイプライン向けのPrometheusコレクターを提供します。
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// status ラベルの値
const (
	StatusOK    = "ok"
	StatusError = "error"

	// OtherClass はカタログにないクラスをまとめる detections_total のラベル値です。
	OtherClass = "other"
)

var (
	namespace = "agriscan"

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	inferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Model inference duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)

	modelLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_loads_total",
			Help:      "Number of model construction attempts",
		},
		[]string{"status"},
	)

	detectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Number of detections returned, by class",
		},
		[]string{"class"},
	)
)

// HTTPRequestsTotal はリクエスト数を method, path, code ごとに加算します。
func HTTPRequestsTotal(method, path, code string) {
	httpRequestsTotal.With(prometheus.Labels{
		"method": method,
		"path":   path,
		"code":   code,
	}).Inc()
}

func HTTPRequestDuration(method, path string, duration time.Duration) {
	httpRequestDuration.With(prometheus.Labels{
		"method": method,
		"path":   path,
	}).Observe(duration.Seconds())
}

func InferenceDuration(status string, duration time.Duration) {
	inferenceDuration.With(prometheus.Labels{"status": status}).Observe(duration.Seconds())
}

func ModelLoadsTotal(status string) {
	modelLoadsTotal.With(prometheus.Labels{"status": status}).Inc()
}

// DetectionsTotal は返した検出数を加算します。class は呼び出し側で有限の集合に丸めてください。
func DetectionsTotal(class string) {
	detectionsTotal.With(prometheus.Labels{"class": class}).Inc()
}

// Middleware はルートテンプレートごとにリクエスト数とレイテンシを記録します。
// どのルートにも一致しないリクエストは "unmatched" にまとめます。
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal(c.Request.Method, path, strconv.Itoa(c.Writer.Status()))
		HTTPRequestDuration(c.Request.Method, path, time.Since(start))
	}
}
