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
// サービス層、ハンドラー、ワーカーから利用する。
type MetricsCollector interface {
	RecordPlanGenerated(saved bool)
	RecordForecast(saved bool)
	RecordSafetyResult(level string)
	RecordCommunityPost(kind string)
	RecordToast(kind string)
	RealtimeConnected()
	RealtimeDisconnected()
	RecordHTTPStatus(statusCode int)
	RecordReminderRun(duration time.Duration, sent int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	plans          *prometheus.CounterVec
	forecasts      *prometheus.CounterVec
	safetyResults  *prometheus.CounterVec
	communityPosts *prometheus.CounterVec
	toasts         *prometheus.CounterVec
	realtimeConns  prometheus.Gauge
	httpStatus     *prometheus.CounterVec
	reminderRun    prometheus.Histogram
	remindersSent  prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "youngeru_plans_generated_total",
			Help: "生成されたプランの合計数（保存有無別）",
		}, []string{"saved"}),
		forecasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "youngeru_forecasts_total",
			Help: "計算されたフォーキャストの合計数（保存有無別）",
		}, []string{"saved"}),
		safetyResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "youngeru_safety_results_total",
			Help: "セーフティチェック判定の合計数（レベル別）",
		}, []string{"level"}),
		communityPosts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "youngeru_community_posts_total",
			Help: "コミュニティ投稿の合計数（質問/回答別）",
		}, []string{"kind"}),
		toasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "youngeru_toasts_total",
			Help: "キューに積まれたトースト通知の合計数（種別別）",
		}, []string{"kind"}),
		realtimeConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "youngeru_realtime_connections",
			Help: "接続中のリアルタイムクライアント数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "youngeru_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		reminderRun: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "youngeru_reminder_run_seconds",
			Help:    "リマインダー1サイクルの所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		remindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "youngeru_reminders_sent_total",
			Help: "送信されたリマインダーの合計数",
		}),
	}

	reg.MustRegister(
		c.plans,
		c.forecasts,
		c.safetyResults,
		c.communityPosts,
		c.toasts,
		c.realtimeConns,
		c.httpStatus,
		c.reminderRun,
		c.remindersSent,
	)

	return c
}

// RecordPlanGenerated はプラン生成を記録する。
func (c *Collector) RecordPlanGenerated(saved bool) {
	c.plans.WithLabelValues(strconv.FormatBool(saved)).Inc()
}

// RecordForecast はフォーキャスト計算を記録する。
func (c *Collector) RecordForecast(saved bool) {
	c.forecasts.WithLabelValues(strconv.FormatBool(saved)).Inc()
}

// RecordSafetyResult はセーフティチェック判定1件を記録する。
func (c *Collector) RecordSafetyResult(level string) {
	c.safetyResults.WithLabelValues(level).Inc()
}

// RecordCommunityPost はコミュニティ投稿を記録する。kind は "question" または "answer"。
func (c *Collector) RecordCommunityPost(kind string) {
	c.communityPosts.WithLabelValues(kind).Inc()
}

// RecordToast はトースト通知のキュー投入を記録する。
func (c *Collector) RecordToast(kind string) {
	c.toasts.WithLabelValues(kind).Inc()
}

// RealtimeConnected はリアルタイム接続数を1増やす。
func (c *Collector) RealtimeConnected() {
	c.realtimeConns.Inc()
}

// RealtimeDisconnected はリアルタイム接続数を1減らす。
func (c *Collector) RealtimeDisconnected() {
	c.realtimeConns.Dec()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordReminderRun はリマインダー1サイクルの所要時間と送信数を記録する。
func (c *Collector) RecordReminderRun(duration time.Duration, sent int) {
	c.reminderRun.Observe(duration.Seconds())
	c.remindersSent.Add(float64(sent))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないMetricsCollector。
type Nop struct{}

func (Nop) RecordPlanGenerated(bool)             {}
func (Nop) RecordForecast(bool)                  {}
func (Nop) RecordSafetyResult(string)            {}
func (Nop) RecordCommunityPost(string)           {}
func (Nop) RecordToast(string)                   {}
func (Nop) RealtimeConnected()                   {}
func (Nop) RealtimeDisconnected()                {}
func (Nop) RecordHTTPStatus(int)                 {}
func (Nop) RecordReminderRun(time.Duration, int) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)
