package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltgrid/billnotify/internal/eventbus"
	"github.com/voltgrid/billnotify/internal/metrics"
)

// gatherCounts flattens the registry into metric-name/label → value.
func gatherCounts(t *testing.T, registry *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			key := fam.GetName()
			for _, l := range m.GetLabel() {
				key += "/" + l.GetValue()
			}
			counts[key] = m.GetCounter().GetValue()
		}
	}
	return counts
}

func TestRecorderCountsBillingEvents(t *testing.T) {
	registry := prometheus.NewRegistry()
	listener := metrics.NewRecorder(registry).Listener()

	listener(eventbus.Event{Type: eventbus.EventPaymentSucceeded})
	listener(eventbus.Event{Type: eventbus.EventPaymentFailed})
	listener(eventbus.Event{Type: eventbus.EventPaymentFailed})
	listener(eventbus.Event{Type: eventbus.EventNotificationSent})
	listener(eventbus.Event{Type: eventbus.EventNotificationSkipped})
	listener(eventbus.Event{Type: "unrelated.event"})

	counts := gatherCounts(t, registry)
	assert.Equal(t, float64(1), counts["billnotify_payments_total/succeeded"])
	assert.Equal(t, float64(2), counts["billnotify_payments_total/failed"])
	assert.Equal(t, float64(1), counts["billnotify_notifications_total/sent"])
	assert.Equal(t, float64(1), counts["billnotify_notifications_total/skipped"])
}
