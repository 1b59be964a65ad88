// Package metrics exposes Prometheus counters for billing outcomes, fed by
// an event-bus listener.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/voltgrid/billnotify/internal/eventbus"
)

// Recorder owns the billing counters.
type Recorder struct {
	payments      *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewRecorder creates a Recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billnotify_payments_total",
			Help: "Payment attempts by result.",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billnotify_notifications_total",
			Help: "Failure notifications by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(r.payments, r.notifications)
	return r
}

// Listener returns an event-bus listener that increments the counters for
// billing lifecycle events. Unknown event types are ignored.
func (r *Recorder) Listener() eventbus.Listener {
	return func(e eventbus.Event) {
		switch e.Type {
		case eventbus.EventPaymentSucceeded:
			r.payments.WithLabelValues("succeeded").Inc()
		case eventbus.EventPaymentFailed:
			r.payments.WithLabelValues("failed").Inc()
		case eventbus.EventNotificationSent:
			r.notifications.WithLabelValues("sent").Inc()
		case eventbus.EventNotificationFailed:
			r.notifications.WithLabelValues("failed").Inc()
		case eventbus.EventNotificationSkipped:
			r.notifications.WithLabelValues("skipped").Inc()
		}
	}
}
