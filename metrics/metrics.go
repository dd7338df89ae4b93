package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcus-crane/lure/playback"
)

const namespace = "lure"

// Metrics counts what the relay has been doing. Each instance has its own
// registry so that several can exist side by side.
type Metrics struct {
	registry *prometheus.Registry

	pollsTotal         *prometheus.CounterVec
	statusUpdatesTotal *prometheus.CounterVec
	rateLimitedTotal   prometheus.Counter
	rateLimitWaitTotal prometheus.Counter
	lastUpdate         prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		pollsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Polls of the listening service by outcome",
		}, []string{"outcome"}),
		statusUpdatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_updates_total",
			Help:      "Status changes accepted by Revolt by kind (playing, idle, revert)",
		}, []string{"kind"}),
		rateLimitedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests to Revolt that were rate limited",
		}),
		rateLimitWaitTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_wait_seconds_total",
			Help:      "Time spent waiting for Revolt rate limits to reset",
		}),
		lastUpdate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_status_update_timestamp_seconds",
			Help:      "Unix time of the last accepted status change",
		}),
	}
}

func (m *Metrics) PollCompleted(outcome string) {
	m.pollsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StatusChanged(_ *string, cause playback.Message) {
	kind := playback.Kind(cause)
	if _, ok := cause.(playback.Shutdown); ok {
		kind = "revert"
	}
	m.statusUpdatesTotal.WithLabelValues(kind).Inc()
	m.lastUpdate.SetToCurrentTime()
}

func (m *Metrics) RateLimited(wait time.Duration) {
	m.rateLimitedTotal.Inc()
	m.rateLimitWaitTotal.Add(wait.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
