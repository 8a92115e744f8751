// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordAuthAttempt(method, result string)
	RecordTaskOperation(operation string)
	RecordImageUpload(sizeBytes int64)
	RecordImageCleanupFailure()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
	authAttempts    *prometheus.CounterVec
	taskOperations  *prometheus.CounterVec
	imageUploadSize prometheus.Histogram
	imageCleanup    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskman_request_latency_seconds",
			Help:    "リクエスト処理のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskman_auth_attempts_total",
			Help: "認証方式・結果別の認証試行数",
		}, []string{"method", "result"}),
		taskOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskman_task_operations_total",
			Help: "操作種別ごとのタスク操作数",
		}, []string{"operation"}),
		imageUploadSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskman_image_upload_bytes",
			Help:    "アップロードされた画像のサイズ（バイト）",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		}),
		imageCleanup: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskman_image_cleanup_failures_total",
			Help: "画像ファイル削除失敗の合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.authAttempts,
		c.taskOperations,
		c.imageUploadSize,
		c.imageCleanup,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理のレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordAuthAttempt は認証試行を方式・結果別に記録する。
func (c *Collector) RecordAuthAttempt(method, result string) {
	c.authAttempts.WithLabelValues(method, result).Inc()
}

// RecordTaskOperation はタスク操作を記録する。
func (c *Collector) RecordTaskOperation(operation string) {
	c.taskOperations.WithLabelValues(operation).Inc()
}

// RecordImageUpload はアップロードされた画像のサイズを記録する。
func (c *Collector) RecordImageUpload(sizeBytes int64) {
	c.imageUploadSize.Observe(float64(sizeBytes))
}

// RecordImageCleanupFailure は画像ファイルの削除失敗を記録する。
func (c *Collector) RecordImageCleanupFailure() {
	c.imageCleanup.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
