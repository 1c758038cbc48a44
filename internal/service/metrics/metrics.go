package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/kapu/creator-activity-engine/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the engine's Prometheus metrics on a private registry
type Collector struct {
	registry *prometheus.Registry

	refreshRuns     *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	sourceFailures  *prometheus.CounterVec
	feedsBuilt      *prometheus.CounterVec
	activityItems   *prometheus.CounterVec
	trackedAccounts prometheus.Gauge
}

func NewCollector(namespace string) *Collector {
	ns := strings.ReplaceAll(namespace, "-", "_")

	c := &Collector{
		registry: prometheus.NewRegistry(),
		refreshRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "refresh_runs_total",
				Help:      "Completed refresh cycles by kind and status",
			},
			[]string{"kind", "status"},
		),
		refreshDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Name:      "refresh_duration_seconds",
				Help:      "Refresh cycle duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		sourceFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "source_failures_total",
				Help:      "Failed reads or publishes by component",
			},
			[]string{"component"},
		),
		feedsBuilt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "feeds_built_total",
				Help:      "Activity feeds built by policy branch",
			},
			[]string{"feed_kind"},
		),
		activityItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Name:      "activity_items_total",
				Help:      "Activity items emitted by type",
			},
			[]string{"type"},
		),
		trackedAccounts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: ns,
				Name:      "tracked_accounts",
				Help:      "Accounts in the refresh set",
			},
		),
	}

	c.registry.MustRegister(
		c.refreshRuns,
		c.refreshDuration,
		c.sourceFailures,
		c.feedsBuilt,
		c.activityItems,
		c.trackedAccounts,
		collectors.NewGoCollector(),
	)

	return c
}

func (c *Collector) SourceFailure(component string) {
	c.sourceFailures.WithLabelValues(component).Inc()
}

func (c *Collector) FeedBuilt(kind domain.FeedKind, items []domain.ActivityItem) {
	c.feedsBuilt.WithLabelValues(string(kind)).Inc()
	for _, item := range items {
		c.activityItems.WithLabelValues(string(item.Type)).Inc()
	}
}

func (c *Collector) RefreshCompleted(kind, status string, duration time.Duration) {
	c.refreshRuns.WithLabelValues(kind, status).Inc()
	c.refreshDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (c *Collector) SetTrackedAccounts(n int) {
	c.trackedAccounts.Set(float64(n))
}

// Handler exposes the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
