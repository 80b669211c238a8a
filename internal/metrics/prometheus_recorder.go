package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "laundrybot"

// PrometheusRecorder implements Recorder using Prometheus counters.
type PrometheusRecorder struct {
	readings      *prom.CounterVec
	transitions   *prom.CounterVec
	loadEvents    *prom.CounterVec
	buttons       *prom.CounterVec
	retries       prom.Counter
	violations    prom.Counter
	notifications *prom.CounterVec
}

// NewPrometheusRecorder constructs the counters and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		readings: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "readings_total",
			Help:      "Accepted power readings per appliance",
		}, []string{"appliance"}),
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Threshold classifications per appliance and kind",
		}, []string{"appliance", "kind"}),
		loadEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "load_events_total",
			Help:      "Load ledger events by type",
		}, []string{"type"}),
		buttons: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "button_presses_total",
			Help:      "Button presses by outcome",
		}, []string{"outcome"}),
		retries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "storage_retries_total",
			Help:      "Transactions retried after a transient conflict",
		}),
		violations: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "consistency_violations_total",
			Help:      "Ledger mutations refused because an invariant would break",
		}),
		notifications: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Finished-load notifications by result",
		}, []string{"result"}),
	}
	reg.MustRegister(pr.readings, pr.transitions, pr.loadEvents, pr.buttons, pr.retries, pr.violations, pr.notifications)
	return pr
}

func (p *PrometheusRecorder) IncReading(appliance string) {
	if p == nil || p.readings == nil {
		return
	}
	p.readings.WithLabelValues(appliance).Inc()
}

func (p *PrometheusRecorder) IncTransition(appliance, kind string) {
	if p == nil || p.transitions == nil {
		return
	}
	p.transitions.WithLabelValues(appliance, kind).Inc()
}

func (p *PrometheusRecorder) IncLoadEvent(eventType string) {
	if p == nil || p.loadEvents == nil {
		return
	}
	p.loadEvents.WithLabelValues(eventType).Inc()
}

func (p *PrometheusRecorder) IncButton(outcome string) {
	if p == nil || p.buttons == nil {
		return
	}
	p.buttons.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncStorageRetry() {
	if p == nil || p.retries == nil {
		return
	}
	p.retries.Inc()
}

func (p *PrometheusRecorder) IncConsistencyViolation() {
	if p == nil || p.violations == nil {
		return
	}
	p.violations.Inc()
}

func (p *PrometheusRecorder) IncNotification(success bool) {
	if p == nil || p.notifications == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.notifications.WithLabelValues(res).Inc()
}

// HTTPHandler serves the metrics gathered by reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
