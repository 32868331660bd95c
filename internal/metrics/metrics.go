// Package metrics exposes orchestrator activity as Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wallpaper/internal/domain"
)

const namespace = "wallpaper"

// Collector records generation cycles and the observable state.
type Collector struct {
	cycles    *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  prometheus.Histogram
	countdown prometheus.Gauge
	history   prometheus.Gauge
	paused    prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_started_total",
			Help:      "Generation cycles started, by trigger.",
		}, []string{"trigger"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycle_failures_total",
			Help:      "Failed generation cycles, by error kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of generation cycles.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		countdown: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "countdown_seconds",
			Help:      "Seconds until the next automatic cycle.",
		}),
		history: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_entries",
			Help:      "Entries held in the history ledger.",
		}),
		paused: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "paused",
			Help:      "1 when the automatic cycle is paused.",
		}),
	}
	for _, col := range []prometheus.Collector{c.cycles, c.failures, c.duration, c.countdown, c.history, c.paused} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) CycleStarted(trigger string) {
	c.cycles.WithLabelValues(trigger).Inc()
}

func (c *Collector) CycleFinished(kind domain.ErrorKind, elapsed time.Duration) {
	c.duration.Observe(elapsed.Seconds())
	if kind != domain.KindNone {
		c.failures.WithLabelValues(string(kind)).Inc()
	}
}

func (c *Collector) StateObserved(countdown int, paused bool, historyLen int) {
	c.countdown.Set(float64(countdown))
	c.history.Set(float64(historyLen))
	if paused {
		c.paused.Set(1)
	} else {
		c.paused.Set(0)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
