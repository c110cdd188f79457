package metrics

import (
	"testing"
	"time"

	"homestock_notifier/internal/domain/notification"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiryMetricsRecordsRunsAndSends(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewExpiryMetrics(reg)

	m.ObserveRun("success", 2*time.Second)
	m.ObserveRun("", time.Second)
	m.IncChannelSend(notification.ChannelEmail, notification.OutcomeDelivered)
	m.IncChannelSend(notification.ChannelEmail, notification.OutcomeDelivered)
	m.IncChannelSend(notification.ChannelChat, notification.OutcomeSkipped)
	m.AddRecordsMarked(3)
	m.AddRecordsMarked(0)

	families, err := reg.Gather()
	require.NoError(t, err)

	runs := findFamily(t, families, "homestock_notifier_expiry_runs_total")
	assert.Equal(t, 1.0, counterValue(t, runs, map[string]string{"result": "success"}))
	assert.Equal(t, 1.0, counterValue(t, runs, map[string]string{"result": "unknown"}))

	sends := findFamily(t, families, "homestock_notifier_channel_sends_total")
	assert.Equal(t, 2.0, counterValue(t, sends, map[string]string{"channel": "email", "outcome": "delivered"}))
	assert.Equal(t, 1.0, counterValue(t, sends, map[string]string{"channel": "chat", "outcome": "skipped"}))

	marked := findFamily(t, families, "homestock_notifier_records_marked_total")
	require.Len(t, marked.GetMetric(), 1)
	assert.Equal(t, 3.0, marked.GetMetric()[0].GetCounter().GetValue())

	duration := findFamily(t, families, "homestock_notifier_expiry_run_duration_seconds")
	assert.Len(t, duration.GetMetric(), 2)
}

func TestExpiryMetricsWithoutRegistryIsNoop(t *testing.T) {
	m := NewExpiryMetrics(nil)
	assert.NotPanics(t, func() {
		m.ObserveRun("success", time.Second)
		m.IncChannelSend(notification.ChannelText, notification.OutcomeFailed)
		m.AddRecordsMarked(1)
	})
}

func findFamily(t *testing.T, families []*dto.MetricFamily, name string) *dto.MetricFamily {
	t.Helper()
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric family %s not found", name)
	return nil
}

func counterValue(t *testing.T, family *dto.MetricFamily, labels map[string]string) float64 {
	t.Helper()
	for _, metric := range family.GetMetric() {
		if labelsMatch(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("no %s sample with labels %v", family.GetName(), labels)
	return 0
}

func labelsMatch(pairs []*dto.LabelPair, want map[string]string) bool {
	if len(pairs) != len(want) {
		return false
	}
	for _, p := range pairs {
		if want[p.GetName()] != p.GetValue() {
			return false
		}
	}
	return true
}
