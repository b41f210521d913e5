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
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordInviteValidation(result string)
	RecordInviteRedemption(outcome string)
	RecordAuthCallback(outcome string)
	RecordHTTPStatus(statusCode int)
	RecordExportLatency(duration time.Duration)
	RecordSessionsCleaned(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	inviteValidations *prometheus.CounterVec
	inviteRedemptions *prometheus.CounterVec
	authCallbacks     *prometheus.CounterVec
	httpStatus        *prometheus.CounterVec
	exportLatency     prometheus.Histogram
	sessionsCleaned   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		inviteValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifelog_invite_validations_total",
			Help: "招待コード検証の結果別の合計数",
		}, []string{"result"}),
		inviteRedemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifelog_invite_redemptions_total",
			Help: "招待コード消費の結果別の合計数",
		}, []string{"outcome"}),
		authCallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifelog_auth_callbacks_total",
			Help: "OAuthコールバックの結果別の合計数",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lifelog_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		exportLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lifelog_export_latency_seconds",
			Help:    "データエクスポートのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lifelog_sessions_cleaned_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.inviteValidations,
		c.inviteRedemptions,
		c.authCallbacks,
		c.httpStatus,
		c.exportLatency,
		c.sessionsCleaned,
	)

	return c
}

// RecordInviteValidation は招待コード検証の結果を記録する。
func (c *Collector) RecordInviteValidation(result string) {
	c.inviteValidations.WithLabelValues(result).Inc()
}

// RecordInviteRedemption は招待コード消費の結果を記録する。
func (c *Collector) RecordInviteRedemption(outcome string) {
	c.inviteRedemptions.WithLabelValues(outcome).Inc()
}

// RecordAuthCallback はOAuthコールバックの結果を記録する。
func (c *Collector) RecordAuthCallback(outcome string) {
	c.authCallbacks.WithLabelValues(outcome).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordExportLatency はエクスポートのレイテンシを記録する。
func (c *Collector) RecordExportLatency(duration time.Duration) {
	c.exportLatency.Observe(duration.Seconds())
}

// RecordSessionsCleaned は削除されたセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
}

// Nop は何も記録しないMetricsCollector。メトリクス不要な経路とテストで使用する。
type Nop struct{}

func (Nop) RecordInviteValidation(string)     {}
func (Nop) RecordInviteRedemption(string)     {}
func (Nop) RecordAuthCallback(string)         {}
func (Nop) RecordHTTPStatus(int)              {}
func (Nop) RecordExportLatency(time.Duration) {}
func (Nop) RecordSessionsCleaned(int64)       {}

// compile-time interface check
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
