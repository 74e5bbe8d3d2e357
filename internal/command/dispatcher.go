// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/skyblock/internal/access"
)

var tracer = otel.Tracer("skyblock/command")

// Dispatcher parses input, applies rate limits and permission checks, and
// runs the matching handler.
type Dispatcher struct {
	registry    *Registry
	permissions PermissionChecker
	limiter     *RateLimiter // optional
}

// DispatcherOption configures a Dispatcher during construction.
type DispatcherOption func(*Dispatcher)

// WithRateLimiter enables per-actor rate limiting.
func WithRateLimiter(rl *RateLimiter) DispatcherOption {
	return func(d *Dispatcher) {
		d.limiter = rl
	}
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, permissions PermissionChecker, opts ...DispatcherOption) (*Dispatcher, error) {
	if registry == nil {
		return nil, oops.Errorf("command registry is required")
	}
	if permissions == nil {
		return nil, oops.Errorf("permission checker is required")
	}
	d := &Dispatcher{registry: registry, permissions: permissions}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch runs one line of input for exec.Actor. exec.Args and
// exec.InvokedAs are filled from the parsed input.
func (d *Dispatcher) Dispatch(ctx context.Context, input string, exec *Execution) (err error) {
	if exec.Actor.Compare(ulid.ULID{}) == 0 {
		return oops.Code(CodeInvalidArgs).Errorf("command has no actor")
	}

	parsed, err := Parse(input)
	if err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "command.execute",
		trace.WithAttributes(
			attribute.String("command.name", parsed.Name),
			attribute.String("actor.id", exec.Actor.String()),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if d.limiter != nil && !d.permissions.HasPermission(ctx, exec.Actor, access.PermBypass) {
		if allowed, cooldownMs := d.limiter.Allow(exec.Actor); !allowed {
			span.SetAttributes(attribute.Int64("command.cooldown_ms", cooldownMs))
			Executions.WithLabelValues(parsed.Name, OutcomeRateLimited).Inc()
			return ErrRateLimited(cooldownMs)
		}
	}

	entry, ok := d.registry.Get(parsed.Name)
	if !ok {
		Executions.WithLabelValues("unknown", OutcomeUnknownCommand).Inc()
		return ErrUnknownCommand(parsed.Name)
	}

	start := time.Now()
	defer func() { recordExecution(entry.Name, err, time.Since(start)) }()

	if entry.Permission != "" && !d.permissions.HasPermission(ctx, exec.Actor, entry.Permission) {
		return ErrPermissionDenied(entry.Name, entry.Permission)
	}

	exec.Args = parsed.Args
	exec.InvokedAs = parsed.Name
	if err = entry.Handler(ctx, exec); err != nil {
		slog.DebugContext(ctx, "island command failed",
			"command", entry.Name,
			"actor_id", exec.Actor.String(),
			"kind", outcomeOf(err),
			"error", err)
	}
	return err
}
