package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 公告生命周期相关指标，nil 接收者上的方法均为空操作
type Metrics struct {
	Transitions      *prometheus.CounterVec
	RateLimited      *prometheus.CounterVec
	FanoutRequested  prometheus.Counter
	FanoutCreated    prometheus.Counter
	FanoutDuration   prometheus.Histogram
	PartialDelivery  prometheus.Counter
	AuditFailures    prometheus.Counter
	HookPanics       *prometheus.CounterVec
	ScheduledPublish *prometheus.CounterVec
}

// New 在 reg 上注册指标，reg 为 nil 时使用默认注册表
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "noticeboard_announcement_transitions_total",
			Help: "Announcement lifecycle transitions by action and result",
		}, []string{"action", "result"}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Name: "noticeboard_ratelimit_denied_total",
			Help: "Gated actions denied by the rate limiter",
		}, []string{"action"}),
		FanoutRequested: f.NewCounter(prometheus.CounterOpts{
			Name: "noticeboard_fanout_recipients_total",
			Help: "Recipients resolved for notification fan-out",
		}),
		FanoutCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "noticeboard_fanout_notifications_created_total",
			Help: "Notification rows created by fan-out",
		}),
		FanoutDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "noticeboard_fanout_duration_seconds",
			Help:    "Time spent writing one fan-out batch",
			Buckets: prometheus.DefBuckets,
		}),
		PartialDelivery: f.NewCounter(prometheus.CounterOpts{
			Name: "noticeboard_fanout_partial_delivery_total",
			Help: "Fan-out batches that created fewer notifications than requested",
		}),
		AuditFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "noticeboard_audit_failures_total",
			Help: "Audit records that could not be written",
		}),
		HookPanics: f.NewCounterVec(prometheus.CounterOpts{
			Name: "noticeboard_post_commit_hook_panics_total",
			Help: "Recovered panics in post-commit hooks",
		}, []string{"hook"}),
		ScheduledPublish: f.NewCounterVec(prometheus.CounterOpts{
			Name: "noticeboard_scheduled_publish_total",
			Help: "Scheduled announcements picked up by the publisher job",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveTransition(action, result string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(action, result).Inc()
}

func (m *Metrics) IncrementRateLimited(action string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(action).Inc()
}

func (m *Metrics) ObserveFanout(requested, created int64, seconds float64) {
	if m == nil {
		return
	}
	m.FanoutRequested.Add(float64(requested))
	m.FanoutCreated.Add(float64(created))
	m.FanoutDuration.Observe(seconds)
	if created < requested {
		m.PartialDelivery.Inc()
	}
}

func (m *Metrics) IncrementAuditFailures() {
	if m == nil {
		return
	}
	m.AuditFailures.Inc()
}

func (m *Metrics) IncrementHookPanics(hook string) {
	if m == nil {
		return
	}
	m.HookPanics.WithLabelValues(hook).Inc()
}

func (m *Metrics) ObserveScheduledPublish(result string) {
	if m == nil {
		return
	}
	m.ScheduledPublish.WithLabelValues(result).Inc()
}
