// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package store manages the PostgreSQL connection pool and schema migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// ConnectOptions tunes pool creation.
type ConnectOptions struct {
	MaxConns       int32
	ConnectRetries uint64
	RetryBase      time.Duration
}

// DefaultConnectOptions returns the options used when none are configured.
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{MaxConns: 8, ConnectRetries: 5, RetryBase: 250 * time.Millisecond}
}

// pinger is the part of *pgxpool.Pool Connect waits on.
type pinger interface {
	Ping(ctx context.Context) error
}

// Connect opens a pool for dsn and waits until the database answers,
// backing off exponentially between attempts.
func Connect(ctx context.Context, dsn string, opts ConnectOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}
	if err := waitReady(ctx, pool, opts); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func waitReady(ctx context.Context, db pinger, opts ConnectOptions) error {
	base := opts.RetryBase
	if base <= 0 {
		base = DefaultConnectOptions().RetryBase
	}
	backoff := retry.WithMaxRetries(opts.ConnectRetries, retry.NewExponential(base))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := db.Ping(ctx); err != nil {
			slog.Warn("database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("attempts", attempt).Wrap(err)
	}
	return nil
}
