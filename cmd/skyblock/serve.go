// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/skyblock/internal/access"
	"github.com/holomush/skyblock/internal/command"
	"github.com/holomush/skyblock/internal/island"
	"github.com/holomush/skyblock/internal/observability"
	"github.com/holomush/skyblock/internal/teleport"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(deps *Deps, load configLoader) *cobra.Command {
	var operators []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine with its metrics and health endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opened, err := deps.StoreOpener(ctx, cfg)
			if err != nil {
				return err
			}
			defer opened.Close()

			eng, err := newEngine(cfg, opened.Store, newHeadlessHost())
			if err != nil {
				return err
			}
			defer eng.close()
			for _, raw := range operators {
				id, err := ulid.ParseStrict(raw)
				if err != nil {
					return oops.Code("INVALID_ACTOR_ID").With("actor_id", raw).Wrap(err)
				}
				if err := eng.privileges.Assign(id, access.RoleOperator); err != nil {
					return err
				}
			}

			return serve(ctx, cmd, deps, cfg.Metrics.Addr, opened)
		},
	}
	cmd.Flags().StringSliceVar(&operators, "operator", nil, "actor id granted the operator role (repeatable)")
	return cmd
}

// serve runs the observability server until ctx is done or the server fails.
func serve(ctx context.Context, cmd *cobra.Command, deps *Deps, metricsAddr string, opened *OpenStore) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var obs ObservabilityServer
	if metricsAddr != "" {
		ready := func() bool { return true }
		if opened.Ping != nil {
			ready = observability.PingReadiness(opened.Ping, 2*time.Second)
		}
		obs = deps.ObservabilityServerFactory(metricsAddr, ready,
			island.RegisterMetrics,
			access.RegisterMetrics,
			teleport.RegisterMetrics,
			command.RegisterMetrics,
		)
		errCh, err := obs.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").With("addr", metricsAddr).Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, errCh, "observability")
	}

	cmd.Println("skyblock engine started")
	slog.Info("engine ready", "metrics_addr", metricsAddr)

	<-ctx.Done()
	slog.Info("shutting down")

	if obs != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := obs.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}
	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors cancels ctx when the server reports a failure.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown", "server", serverName, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
