package tenantpool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pooledEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mentorhub",
		Subsystem: "tenantpool",
		Name:      "entries",
		Help:      "Number of live per-tenant database handles.",
	})

	acquiresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mentorhub",
		Subsystem: "tenantpool",
		Name:      "acquires_total",
		Help:      "Handle acquisitions by outcome (hit or miss).",
	}, []string{"outcome"})

	acquireFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mentorhub",
		Subsystem: "tenantpool",
		Name:      "acquire_failures_total",
		Help:      "Failed handle constructions by reason (timeout or connect).",
	}, []string{"reason"})

	evictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mentorhub",
		Subsystem: "tenantpool",
		Name:      "evictions_total",
		Help:      "Handles removed from the pool by cause (idle, explicit or shutdown).",
	}, []string{"cause"})
)
