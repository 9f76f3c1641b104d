// Package observability exports engine activity as Prometheus metrics.
// The Collector turns lifecycle hooks into counters and histograms; hosts
// that tick instances themselves feed ObserveTick for frame timing.
package observability

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/espalier/pkg/domain"
)

// Collector holds the engine's metric families. Register it once and
// share the resulting hooks across every instance.
type Collector struct {
	stateEnters   *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	transitionDur *prometheus.HistogramVec
	ticks         prometheus.Counter
	tickDur       prometheus.Histogram
	activeStates  prometheus.Gauge
}

// NewCollector creates the metric families and registers them with reg.
// Pass prometheus.DefaultRegisterer for the common case.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		stateEnters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_state_enters_total",
				Help: "Total number of state activations",
			},
			[]string{"layer", "state"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espalier_transitions_total",
				Help: "Total number of started crossfades",
			},
			[]string{"layer"},
		),
		transitionDur: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "espalier_transition_duration_seconds",
				Help:    "Authored duration of started crossfades",
				Buckets: []float64{0.05, 0.1, 0.2, 0.35, 0.5, 1},
			},
			[]string{"layer"},
		),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "espalier_ticks_total",
			Help: "Total number of instance ticks",
		}),
		tickDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "espalier_tick_duration_seconds",
			Help:    "Wall time spent per instance tick",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		activeStates: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "espalier_active_states",
			Help: "Active states summed over all instances and layers",
		}),
	}
	reg.MustRegister(c.stateEnters, c.transitions, c.transitionDur, c.ticks, c.tickDur, c.activeStates)
	return c
}

// Hooks returns lifecycle hooks that record into the collector. Compose
// with other hooks by hand if logging and metrics are both wanted.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			c.stateEnters.WithLabelValues(strconv.Itoa(e.Layer), e.StatePath).Inc()
		},
		OnTransitionStart: func(ctx context.Context, e *domain.TransitionEvent) {
			layer := strconv.Itoa(e.Layer)
			c.transitions.WithLabelValues(layer).Inc()
			c.transitionDur.WithLabelValues(layer).Observe(e.Duration)
		},
	}
}

// ObserveTick records one instance tick and its wall time in seconds.
func (c *Collector) ObserveTick(seconds float64) {
	c.ticks.Inc()
	c.tickDur.Observe(seconds)
}

// SetActiveStates updates the active-state population gauge. Hosts call
// it after each world step with the current total.
func (c *Collector) SetActiveStates(n int) {
	c.activeStates.Set(float64(n))
}
