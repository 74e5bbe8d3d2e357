// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"

	"github.com/holomush/skyblock/internal/config"
	"github.com/holomush/skyblock/internal/island"
	islandpg "github.com/holomush/skyblock/internal/island/postgres"
	"github.com/holomush/skyblock/internal/observability"
	"github.com/holomush/skyblock/internal/store"
)

// Deps contains injectable dependencies for the CLI.
// All fields with nil values use their default implementations.
type Deps struct {
	// StoreOpener connects the island store.
	// Default: openPostgresStore
	StoreOpener func(ctx context.Context, cfg *config.Config) (*OpenStore, error)

	// MigratorFactory creates a schema migrator.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ObservabilityServerFactory creates the metrics/health server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, registrars ...observability.Registrar) ObservabilityServer
}

// OpenStore is a connected island store.
type OpenStore struct {
	Store island.Store
	Ping  func(ctx context.Context) error
	Close func()
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Status() (store.Status, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.StoreOpener == nil {
		out.StoreOpener = openPostgresStore
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(url string) (Migrator, error) {
			return store.NewMigrator(url)
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, registrars ...observability.Registrar) ObservabilityServer {
			return observability.NewServer(addr, ready, registrars...)
		}
	}
	return &out
}

func openPostgresStore(ctx context.Context, cfg *config.Config) (*OpenStore, error) {
	if cfg.Database.URL == "" {
		return nil, errDatabaseURLRequired()
	}
	pool, err := store.Connect(ctx, cfg.Database.URL, store.DefaultConnectOptions())
	if err != nil {
		return nil, err
	}
	return &OpenStore{
		Store: islandpg.NewStore(pool),
		Ping:  pool.Ping,
		Close: pool.Close,
	}, nil
}
