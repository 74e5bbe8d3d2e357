// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/skyblock/internal/island"
	"github.com/holomush/skyblock/pkg/errutil"
)

// Outcome labels that do not come from island.ErrorKind.
const (
	OutcomeSuccess          = "success"
	OutcomeUnknownCommand   = "unknown_command"
	OutcomePermissionDenied = "permission_denied"
	OutcomeRateLimited      = "rate_limited"
	OutcomeInvalidArgs      = "invalid_args"
)

// Executions counts dispatched subcommands by command and outcome.
var Executions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "skyblock_command_executions_total",
		Help: "Total number of island command executions",
	},
	[]string{"command", "outcome"},
)

// Duration observes handler run time.
var Duration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "skyblock_command_duration_seconds",
		Help:    "Island command execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"command"},
)

// RegisterMetrics registers command metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Executions)
	reg.MustRegister(Duration)
}

func recordExecution(command string, err error, elapsed time.Duration) {
	Executions.WithLabelValues(command, outcomeOf(err)).Inc()
	Duration.WithLabelValues(command).Observe(elapsed.Seconds())
}

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	switch errutil.Code(err) {
	case CodeInvalidArgs:
		return OutcomeInvalidArgs
	case CodePermissionDenied:
		return OutcomePermissionDenied
	}
	return string(island.KindOf(err))
}
