package web

import (
	"context"

	"github.com/PancyStudios/ChannelGuardGo/internal/moderation"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts moderation actions and samples the engine state for
// Prometheus. It is a moderation.ActionSink.
type Metrics struct {
	registry *prometheus.Registry
	actions  *prometheus.CounterVec
}

// NewMetrics creates a registry with the moderation metrics. stats may be
// nil when there is no engine to sample.
func NewMetrics(stats func() moderation.Stats) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "channelguard_actions_total",
			Help: "Moderation actions decided by the engine, by kind",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.actions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if stats != nil {
		m.registry.MustRegister(&statsCollector{stats: stats})
	}
	return m
}

// Apply implements moderation.ActionSink
func (m *Metrics) Apply(_ context.Context, action moderation.Action) error {
	m.actions.WithLabelValues(action.Kind()).Inc()
	return nil
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

var (
	trackedLinksDesc = prometheus.NewDesc(
		"channelguard_tracked_links",
		"Links currently tracked, by last known status",
		[]string{"status"}, nil,
	)
	warnedMembersDesc = prometheus.NewDesc(
		"channelguard_warned_members",
		"Members with at least one warning",
		nil, nil,
	)
	lastTickDesc = prometheus.NewDesc(
		"channelguard_last_tick_timestamp_seconds",
		"Unix time of the last completed link check",
		nil, nil,
	)
)

// statsCollector turns an engine snapshot into gauges at scrape time
type statsCollector struct {
	stats func() moderation.Stats
}

func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- trackedLinksDesc
	ch <- warnedMembersDesc
	ch <- lastTickDesc
}

func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()

	ch <- prometheus.MustNewConstMetric(trackedLinksDesc, prometheus.GaugeValue, float64(s.Reachable), "reachable")
	ch <- prometheus.MustNewConstMetric(trackedLinksDesc, prometheus.GaugeValue, float64(s.Unreachable), "unreachable")
	ch <- prometheus.MustNewConstMetric(trackedLinksDesc, prometheus.GaugeValue, float64(s.Unknown), "unknown")
	ch <- prometheus.MustNewConstMetric(warnedMembersDesc, prometheus.GaugeValue, float64(s.WarnedMembers))

	var lastTick float64
	if !s.LastTick.IsZero() {
		lastTick = float64(s.LastTick.Unix())
	}
	ch <- prometheus.MustNewConstMetric(lastTickDesc, prometheus.GaugeValue, lastTick)
}
