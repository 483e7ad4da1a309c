// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/dermaassist/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// セッションストア、ルートガード、HTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordSignIn(role model.Role)
	RecordSignUp(role model.Role)
	RecordSignOut()
	RecordAuthFailure(reason string)
	RecordRestore(outcome string)
	RecordGuardDecision(kind, reason string)
	RecordHTTPStatus(statusCode int)
	RecordDiagnosisLatency(duration time.Duration)
	RecordCheckout(totalItems int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	signIns          *prometheus.CounterVec
	signUps          *prometheus.CounterVec
	signOuts         prometheus.Counter
	authFailures     *prometheus.CounterVec
	restores         *prometheus.CounterVec
	guardDecisions   *prometheus.CounterVec
	httpStatus       *prometheus.CounterVec
	diagnosisLatency prometheus.Histogram
	checkoutItems    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dermaassist_sign_in_total",
			Help: "ロール別のサインイン成功数",
		}, []string{"role"}),
		signUps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dermaassist_sign_up_total",
			Help: "ロール別のサインアップ成功数",
		}, []string{"role"}),
		signOuts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dermaassist_sign_out_total",
			Help: "サインアウトの合計数",
		}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dermaassist_auth_failure_total",
			Help: "理由別のサインイン・サインアップ失敗数",
		}, []string{"reason"}),
		restores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dermaassist_session_restore_total",
			Help: "起動時のセッション復元結果",
		}, []string{"outcome"}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dermaassist_guard_decision_total",
			Help: "ルートガードの判定結果",
		}, []string{"kind", "reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dermaassist_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		diagnosisLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dermaassist_diagnosis_latency_seconds",
			Help:    "画像診断リクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		checkoutItems: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dermaassist_checkout_items_total",
			Help: "チェックアウトされた商品の合計数",
		}),
	}

	reg.MustRegister(
		c.signIns,
		c.signUps,
		c.signOuts,
		c.authFailures,
		c.restores,
		c.guardDecisions,
		c.httpStatus,
		c.diagnosisLatency,
		c.checkoutItems,
	)

	return c
}

// RecordSignIn はサインイン成功を記録する。
func (c *Collector) RecordSignIn(role model.Role) {
	c.signIns.WithLabelValues(string(role)).Inc()
}

// RecordSignUp はサインアップ成功を記録する。
func (c *Collector) RecordSignUp(role model.Role) {
	c.signUps.WithLabelValues(string(role)).Inc()
}

// RecordSignOut はサインアウトを記録する。
func (c *Collector) RecordSignOut() {
	c.signOuts.Inc()
}

// RecordAuthFailure はサインイン・サインアップの失敗を記録する。
func (c *Collector) RecordAuthFailure(reason string) {
	c.authFailures.WithLabelValues(reason).Inc()
}

// RecordRestore は起動時のセッション復元結果を記録する。
func (c *Collector) RecordRestore(outcome string) {
	c.restores.WithLabelValues(outcome).Inc()
}

// RecordGuardDecision はルートガードの判定を記録する。
func (c *Collector) RecordGuardDecision(kind, reason string) {
	c.guardDecisions.WithLabelValues(kind, reason).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordDiagnosisLatency は画像診断の処理時間を記録する。
func (c *Collector) RecordDiagnosisLatency(duration time.Duration) {
	c.diagnosisLatency.Observe(duration.Seconds())
}

// RecordCheckout はチェックアウトされた商品数を記録する。0以下の値は無視する。
func (c *Collector) RecordCheckout(totalItems int) {
	if totalItems <= 0 {
		return
	}
	c.checkoutItems.Add(float64(totalItems))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type Nop struct{}

func (Nop) RecordSignIn(model.Role) {}
func (Nop) RecordSignUp(model.Role) {}
func (Nop) RecordSignOut() {}
func (Nop) RecordAuthFailure(string) {}
func (Nop) RecordRestore(string) {}
func (Nop) RecordGuardDecision(string, string) {}
func (Nop) RecordHTTPStatus(int) {}
func (Nop) RecordDiagnosisLatency(time.Duration) {}
func (Nop) RecordCheckout(int) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
