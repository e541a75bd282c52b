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
// 認証サービスやフィードバック生成から利用する。
type MetricsCollector interface {
	RecordFeedbackGenerated()
	RecordFeedbackFailure(kind string)
	RecordGenerationLatency(duration time.Duration)
	RecordAuthAttempt(action, outcome string)
	RecordSessionVerification(valid bool)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	feedbackGenerated   prometheus.Counter
	feedbackFailed      *prometheus.CounterVec
	generationLatency   prometheus.Histogram
	authAttempts        *prometheus.CounterVec
	sessionVerification *prometheus.CounterVec
	httpStatus          *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		feedbackGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prepwise_feedback_generated_total",
			Help: "フィードバック生成成功の合計数",
		}),
		feedbackFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prepwise_feedback_failed_total",
			Help: "原因種別ごとのフィードバック生成失敗数",
		}, []string{"kind"}),
		generationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "prepwise_feedback_generation_seconds",
			Help:    "生成モデル呼び出しを含むフィードバック生成の所要時間（秒）",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prepwise_auth_attempts_total",
			Help: "サインアップ/サインインの試行数",
		}, []string{"action", "outcome"}),
		sessionVerification: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prepwise_session_verifications_total",
			Help: "セッショントークン検証の結果別件数",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prepwise_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.feedbackGenerated,
		c.feedbackFailed,
		c.generationLatency,
		c.authAttempts,
		c.sessionVerification,
		c.httpStatus,
	)

	return c
}

// RecordFeedbackGenerated はフィードバック生成成功を記録する。
func (c *Collector) RecordFeedbackGenerated() {
	c.feedbackGenerated.Inc()
}

// RecordFeedbackFailure はフィードバック生成失敗を原因種別付きで記録する。
func (c *Collector) RecordFeedbackFailure(kind string) {
	c.feedbackFailed.WithLabelValues(kind).Inc()
}

// RecordGenerationLatency はフィードバック生成の所要時間を記録する。
func (c *Collector) RecordGenerationLatency(duration time.Duration) {
	c.generationLatency.Observe(duration.Seconds())
}

// RecordAuthAttempt は認証操作の結果を記録する。
func (c *Collector) RecordAuthAttempt(action, outcome string) {
	c.authAttempts.WithLabelValues(action, outcome).Inc()
}

// RecordSessionVerification はセッション検証の結果を記録する。
func (c *Collector) RecordSessionVerification(valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	c.sessionVerification.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないMetricsCollector。メトリクスを使わないテストで使用する。
type Nop struct{}

func (Nop) RecordFeedbackGenerated()              {}
func (Nop) RecordFeedbackFailure(string)          {}
func (Nop) RecordGenerationLatency(time.Duration) {}
func (Nop) RecordAuthAttempt(string, string)      {}
func (Nop) RecordSessionVerification(bool)        {}
func (Nop) RecordHTTPStatus(int)                  {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
