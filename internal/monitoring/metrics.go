package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 邮箱指标
	MailboxesProvisioned prometheus.Counter
	PasswordRotations    prometheus.Counter

	// 登录指标
	LoginsTotal *prometheus.CounterVec

	// 邮件指标
	EmailsIngested  prometheus.Counter
	EmailsDiscarded prometheus.Counter

	// SMTP 指标
	SMTPConnections      prometheus.Gauge
	SMTPMessagesReceived prometheus.Counter
	SMTPParseFailures    prometheus.Counter

	// WebSocket 指标
	WebSocketClients prometheus.Gauge

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codemail_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "codemail_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		MailboxesProvisioned: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "codemail_mailboxes_provisioned_total",
				Help: "Total number of mailboxes provisioned",
			},
		),

		PasswordRotations: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "codemail_password_rotations_total",
				Help: "Total number of successful password rotations",
			},
		),

		LoginsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codemail_logins_total",
				Help: "Total number of login attempts",
			},
			[]string{"result"},
		),

		EmailsIngested: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "codemail_emails_ingested_total",
				Help: "Total number of emails stored",
			},
		),

		EmailsDiscarded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "codemail_emails_discarded_total",
				Help: "Total number of emails silently discarded",
			},
		),

		SMTPConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "codemail_smtp_connections",
				Help: "Number of active SMTP connections",
			},
		),

		SMTPMessagesReceived: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "codemail_smtp_messages_received_total",
				Help: "Total number of messages accepted over SMTP",
			},
		),

		SMTPParseFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "codemail_smtp_parse_failures_total",
				Help: "Total number of messages that failed MIME parsing",
			},
		),

		WebSocketClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "codemail_websocket_clients",
				Help: "Number of connected WebSocket clients",
			},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "codemail_errors_total",
				Help: "Total number of errors",
			},
			[]string{"type", "component"},
		),

		PanicsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "codemail_panics_total",
				Help: "Total number of panics",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordMailboxProvisioned 记录邮箱开通
func (m *Metrics) RecordMailboxProvisioned() {
	m.MailboxesProvisioned.Inc()
}

// RecordPasswordRotation 记录口令轮换成功
func (m *Metrics) RecordPasswordRotation() {
	m.PasswordRotations.Inc()
}

// RecordLogin 记录一次登录尝试，result 为 success 或 failure
func (m *Metrics) RecordLogin(result string) {
	m.LoginsTotal.WithLabelValues(result).Inc()
}

// RecordEmailIngested 记录邮件落库
func (m *Metrics) RecordEmailIngested() {
	m.EmailsIngested.Inc()
}

// RecordEmailDiscarded 记录邮件静默丢弃
func (m *Metrics) RecordEmailDiscarded() {
	m.EmailsDiscarded.Inc()
}

// RecordError 记录错误
func (m *Metrics) RecordError(errorType, component string) {
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
