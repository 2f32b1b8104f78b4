package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"maidchan/pkg/bus"
)

const namespace = "maidchan"

// Collector turns bus events into prometheus counters on a private registry.
type Collector struct {
	registry *prometheus.Registry

	received    *prometheus.CounterVec
	replies     *prometheus.CounterVec
	noReply     *prometheus.CounterVec
	failures    *prometheus.CounterVec
	rateLimited *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Inbound messages handed to the assistant.",
		}, []string{"channel"}),
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Replies produced, by rule and scope.",
		}, []string{"rule", "scope"}),
		noReply: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "no_reply_total",
			Help:      "Messages that produced no reply. Rule is empty when nothing matched.",
		}, []string{"rule"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_failures_total",
			Help:      "Matched rules that failed while running.",
		}, []string{"rule", "scope"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Inbound messages dropped by the per-sender rate limit.",
		}, []string{"channel"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.received,
		c.replies,
		c.noReply,
		c.failures,
		c.rateLimited,
	)

	return c
}

// Observe records one event.
func (c *Collector) Observe(event bus.Event) {
	switch event.Type {
	case bus.EventMessageReceived:
		c.received.WithLabelValues(event.Channel).Inc()
	case bus.EventReplySent:
		c.replies.WithLabelValues(event.Rule, event.Scope).Inc()
	case bus.EventNoReply:
		c.noReply.WithLabelValues(event.Rule).Inc()
	case bus.EventRuleFailed:
		c.failures.WithLabelValues(event.Rule, event.Scope).Inc()
	case bus.EventRateLimited:
		c.rateLimited.WithLabelValues(event.Channel).Inc()
	}
}

// Run observes events until the subscription closes. Events still buffered
// when it closes are counted before Run returns.
func (c *Collector) Run(events <-chan bus.Event) {
	for event := range events {
		c.Observe(event)
	}
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
