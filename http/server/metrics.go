package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	metricNamespace = "go_bpmn_diagram"

	outcomeConverted = "converted"
	outcomeFailed    = "failed"
)

// metrics holds the server's Prometheus collectors, registered on a dedicated registry.
type metrics struct {
	registry *prometheus.Registry

	conversions *prometheus.CounterVec
	warnings    prometheus.Counter
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	conversions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricNamespace,
		Name:      "conversions_total",
		Help:      "Number of conversions, partitioned by outcome.",
	}, []string{"outcome"})
	registry.MustRegister(conversions)

	warnings := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricNamespace,
		Name:      "conversion_warnings_total",
		Help:      "Number of warnings, collected during conversions.",
	})
	registry.MustRegister(warnings)

	return &metrics{
		registry: registry,

		conversions: conversions,
		warnings:    warnings,
	}
}
