// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/skyblock/internal/grid"
	"github.com/holomush/skyblock/internal/island"
)

// headlessHost stands in for a game server when the engine runs on its own.
// Moves update a position table and clears are only logged.
type headlessHost struct {
	mu        sync.Mutex
	positions map[ulid.ULID]island.Location
}

func newHeadlessHost() *headlessHost {
	return &headlessHost{positions: make(map[ulid.ULID]island.Location)}
}

func (h *headlessHost) MoveActor(_ context.Context, actor ulid.ULID, loc island.Location) error {
	h.mu.Lock()
	h.positions[actor] = loc
	h.mu.Unlock()
	slog.Info("actor moved", "actor_id", actor.String(), "world", loc.World, "x", loc.X, "y", loc.Y, "z", loc.Z)
	return nil
}

func (h *headlessHost) LocateActor(_ context.Context, actor ulid.ULID) (island.Location, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	loc, ok := h.positions[actor]
	return loc, ok
}

func (h *headlessHost) Clear(_ context.Context, world string, bounds grid.Bounds) error {
	slog.Info("region cleared", "world", world, "min", bounds.Min, "max", bounds.Max, "blocks", bounds.Volume())
	return nil
}

// place puts actor at loc without logging a move.
func (h *headlessHost) place(actor ulid.ULID, loc island.Location) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.positions[actor] = loc
}
