package metrics

import (
	"time"

	"homestock_notifier/internal/domain/notification"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "homestock_notifier"

// ExpiryMetrics records expiry check runs and channel deliveries.
type ExpiryMetrics struct {
	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	channelSends  *prometheus.CounterVec
	recordsMarked prometheus.Counter
}

// NewExpiryMetrics registers the notifier metrics on the provided registerer.
func NewExpiryMetrics(reg prometheus.Registerer) *ExpiryMetrics {
	if reg == nil {
		return &ExpiryMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "expiry_runs_total",
		Help:      "Expiry check runs by result.",
	}, []string{"result"})
	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "expiry_run_duration_seconds",
		Help:      "Duration of expiry check runs in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"})
	channelSends := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "channel_sends_total",
		Help:      "Notification channel attempts by channel and outcome.",
	}, []string{"channel", "outcome"})
	recordsMarked := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_marked_total",
		Help:      "Groceries flagged as notified.",
	})
	reg.MustRegister(runs, runDuration, channelSends, recordsMarked)
	return &ExpiryMetrics{
		runs:          runs,
		runDuration:   runDuration,
		channelSends:  channelSends,
		recordsMarked: recordsMarked,
	}
}

// ObserveRun counts a run and records its duration.
func (m *ExpiryMetrics) ObserveRun(result string, duration time.Duration) {
	if m == nil || m.runs == nil {
		return
	}
	result = normalizeLabel(result)
	m.runs.WithLabelValues(result).Inc()
	m.runDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// IncChannelSend counts one channel attempt.
func (m *ExpiryMetrics) IncChannelSend(channel notification.Channel, outcome notification.Outcome) {
	if m == nil || m.channelSends == nil {
		return
	}
	m.channelSends.WithLabelValues(normalizeLabel(string(channel)), normalizeLabel(string(outcome))).Inc()
}

// AddRecordsMarked adds n flagged groceries.
func (m *ExpiryMetrics) AddRecordsMarked(n int) {
	if m == nil || m.recordsMarked == nil || n <= 0 {
		return
	}
	m.recordsMarked.Add(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
