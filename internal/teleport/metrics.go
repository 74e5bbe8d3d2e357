// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package teleport

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/skyblock/internal/island"
)

// Requests counts coordinator operations by operation and outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var Requests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "skyblock_teleport_requests_total",
		Help: "Total number of coordinator operations by operation and outcome",
	},
	[]string{"operation", "outcome"},
)

// PendingRejections counts requests refused because the actor already had
// one in flight.
var PendingRejections = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "skyblock_teleport_pending_rejections_total",
		Help: "Total number of requests rejected while another was in flight for the same actor",
	},
)

// ActiveSessions reports how many actor sessions are tracked.
var ActiveSessions = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "skyblock_teleport_active_sessions",
		Help: "Number of actor sessions currently tracked",
	},
)

// RegisterMetrics registers teleport metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Requests)
	reg.MustRegister(PendingRejections)
	reg.MustRegister(ActiveSessions)
}

func recordRequest(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(island.KindOf(err))
	}
	Requests.WithLabelValues(operation, outcome).Inc()
}
