// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package access

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/skyblock/internal/island"
)

const (
	decisionGranted = "granted"
	decisionDenied  = "denied"

	reasonOperator  = "operator"
	reasonUnmanaged = "unmanaged_world"
	reasonNoIsland  = "no_island"
	reasonUnclaimed = "unclaimed"
	reasonOwner     = "owner"
	reasonMember    = "member"
	reasonNotMember = "not_member"
	reasonError     = "error"
)

// Checks counts CanAccess decisions by outcome and the rule that decided them.
// Use RegisterMetrics to register this with a Prometheus registry.
var Checks = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "skyblock_access_checks_total",
		Help: "Total number of island access checks by decision and reason",
	},
	[]string{"decision", "reason"},
)

// Kicks counts CanKick validations by outcome.
var Kicks = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "skyblock_access_kick_checks_total",
		Help: "Total number of kick validations by outcome",
	},
	[]string{"outcome"},
)

// RegisterMetrics registers access metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Checks)
	reg.MustRegister(Kicks)
}

func recordCheck(decision, reason string) {
	Checks.WithLabelValues(decision, reason).Inc()
}

func recordKick(err error) {
	outcome := "allowed"
	if err != nil {
		outcome = string(island.KindOf(err))
	}
	Kicks.WithLabelValues(outcome).Inc()
}
