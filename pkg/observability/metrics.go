package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parley"

// Metrics holds the engine collectors.
type Metrics struct {
	TurnsTotal           *prometheus.CounterVec
	TurnDuration         *prometheus.HistogramVec
	TurnsInFlight        prometheus.Gauge
	ClassificationErrors *prometheus.CounterVec
	HandlerDuration      *prometheus.HistogramVec
	HandlerFailures      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		TurnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Turns processed, by dispatch route.",
		}, []string{"route"}),
		TurnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time of a turn, including waiting on the session gate.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		TurnsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "turns_in_flight",
			Help:      "Turns currently being processed.",
		}),
		ClassificationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classification_errors_total",
			Help:      "Rule source failures, by source.",
		}, []string{"source"}),
		HandlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handler_duration_seconds",
			Help:      "Handler execution time, by intent.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"intent"}),
		HandlerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_failures_total",
			Help:      "Handlers that failed or timed out, by intent and reason.",
		}, []string{"intent", "reason"}),
	}

	for _, c := range []prometheus.Collector{
		m.TurnsTotal, m.TurnDuration, m.TurnsInFlight,
		m.ClassificationErrors, m.HandlerDuration, m.HandlerFailures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(_ context.Context, _ *domain.TurnEvent) {
			m.TurnsInFlight.Inc()
		},
		OnTurnEnd: func(_ context.Context, e *domain.TurnEvent) {
			m.TurnsInFlight.Dec()
			route := string(e.Route)
			if route == "" {
				route = "none"
			}
			m.TurnsTotal.WithLabelValues(route).Inc()
			m.TurnDuration.WithLabelValues(route).Observe(e.Duration.Seconds())
		},
		OnClassificationError: func(_ context.Context, e *domain.ClassificationEvent) {
			m.ClassificationErrors.WithLabelValues(e.Source).Inc()
		},
		OnHandlerDone: func(_ context.Context, e *domain.HandlerEvent) {
			m.HandlerDuration.WithLabelValues(e.Intent).Observe(e.Duration.Seconds())
			switch {
			case e.TimedOut:
				m.HandlerFailures.WithLabelValues(e.Intent, "timeout").Inc()
			case e.IsError:
				m.HandlerFailures.WithLabelValues(e.Intent, "error").Inc()
			}
		},
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
