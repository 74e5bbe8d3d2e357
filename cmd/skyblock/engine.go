// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/holomush/skyblock/internal/access"
	"github.com/holomush/skyblock/internal/command"
	"github.com/holomush/skyblock/internal/config"
	"github.com/holomush/skyblock/internal/island"
	"github.com/holomush/skyblock/internal/teleport"
)

// engine bundles the wired components.
type engine struct {
	registry    *island.Registry
	privileges  *access.StaticPrivileges
	coordinator *teleport.Coordinator
	commands    *command.Dispatcher
	limiter     *command.RateLimiter
}

// hostAdapter is what a game server provides to the coordinator.
type hostAdapter interface {
	teleport.LocationMover
	teleport.Locator
	teleport.RegionClearer
}

func newEngine(cfg *config.Config, st island.Store, host hostAdapter) (*engine, error) {
	worlds, err := access.NewWorldMatcher(cfg.ManagedWorlds()...)
	if err != nil {
		return nil, err
	}
	privileges := access.NewDefaultPrivileges()

	registry := island.NewRegistry(st, cfg.Island.Size)
	planner := island.NewPlanner(registry, nil, island.NewRandomOffsets(cfg.Allocation.Seed), cfg.PlannerConfig())
	controller := access.NewController(registry, privileges, worlds)

	coordinator := teleport.NewCoordinator(teleport.Deps{
		Registry:   registry,
		Planner:    planner,
		Access:     controller,
		Privileges: privileges,
		Mover:      host,
		Locator:    host,
		Clearer:    host,
	}, teleport.Config{
		Spawn:           cfg.SpawnLocation(),
		RespawnOnIsland: cfg.RespawnOnIsland,
	})

	cmds := command.NewRegistry()
	if err := command.RegisterIslandCommands(cmds, coordinator, privileges); err != nil {
		return nil, err
	}
	limiter := command.NewRateLimiter(command.RateLimiterConfig{}, nil)
	dispatcher, err := command.NewDispatcher(cmds, privileges, command.WithRateLimiter(limiter))
	if err != nil {
		limiter.Close()
		return nil, err
	}

	return &engine{
		registry:    registry,
		privileges:  privileges,
		coordinator: coordinator,
		commands:    dispatcher,
		limiter:     limiter,
	}, nil
}

// close stops background work owned by the engine.
func (e *engine) close() {
	e.limiter.Close()
}
