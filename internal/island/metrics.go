// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package island

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Allocation result labels.
const (
	AllocationSuccess   = "success"
	AllocationExhausted = "exhausted"
	AllocationError     = "error"
)

const (
	lookupSourceCache = "cache"
	lookupSourceStore = "store"
)

// Allocations counts allocation requests by result.
// Use RegisterMetrics to register this with a Prometheus registry.
var Allocations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "skyblock_island_allocations_total",
		Help: "Total number of island allocation requests by result",
	},
	[]string{"result"},
)

// AllocationAttempts observes how many candidate cells an allocation tried.
var AllocationAttempts = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "skyblock_island_allocation_attempts",
		Help:    "Number of candidate cells examined per allocation",
		Buckets: prometheus.ExponentialBuckets(1, 2, 16),
	},
)

// AllocationConflicts counts lost insert races that were retried.
var AllocationConflicts = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "skyblock_island_allocation_conflicts_total",
		Help: "Total number of cell claims lost to a concurrent allocation",
	},
)

// RegistryLookups counts registry reads by source and whether a record was found.
var RegistryLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "skyblock_registry_lookups_total",
		Help: "Total number of island registry lookups by source and outcome",
	},
	[]string{"source", "found"},
)

// CachedIslands reports how many island records are held in memory.
var CachedIslands = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "skyblock_registry_cached_islands",
		Help: "Number of island records cached in memory",
	},
)

// RegisterMetrics registers island package metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Allocations)
	reg.MustRegister(AllocationAttempts)
	reg.MustRegister(AllocationConflicts)
	reg.MustRegister(RegistryLookups)
	reg.MustRegister(CachedIslands)
}

func recordAllocation(result string, attempts int) {
	Allocations.WithLabelValues(result).Inc()
	if attempts > 0 {
		AllocationAttempts.Observe(float64(attempts))
	}
}

func recordLookup(source string, found bool) {
	label := "false"
	if found {
		label = "true"
	}
	RegistryLookups.WithLabelValues(source, label).Inc()
}

func updateCachedGauge(n int) {
	CachedIslands.Set(float64(n))
}
