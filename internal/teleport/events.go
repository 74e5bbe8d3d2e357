// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package teleport

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/holomush/skyblock/internal/island"
)

// OnJoin opens the actor's session and warms their island cache.
// A failed warm-up only delays the first lookup.
func (c *Coordinator) OnJoin(ctx context.Context, actor ulid.ULID) {
	c.sessions.Connect(actor)
	if _, err := c.registry.LookupByOwner(ctx, actor); err != nil {
		slog.Warn("island cache warm-up failed", "actor_id", actor.String(), "error", err)
	}
}

// OnQuit closes the actor's session and drops their cached islands.
func (c *Coordinator) OnQuit(actor ulid.ULID) {
	c.sessions.Disconnect(actor)
	c.registry.EvictOwner(actor)
}

// OnDeath remembers that the actor should respawn on their island.
func (c *Coordinator) OnDeath(ctx context.Context, actor ulid.ULID, loc island.Location) {
	if !c.cfg.RespawnOnIsland || !c.access.Manages(loc) {
		return
	}
	n, err := c.registry.CountByOwner(ctx, actor)
	if err != nil {
		slog.Warn("respawn check failed", "actor_id", actor.String(), "error", err)
		return
	}
	if n > 0 {
		c.sessions.SetRespawnPending(actor, true)
	}
}

// OnRespawn returns where the actor should respawn. The flag set by
// OnDeath is consumed; false means the default spawn applies.
func (c *Coordinator) OnRespawn(ctx context.Context, actor ulid.ULID) (island.Location, bool) {
	if !c.sessions.TakeRespawnPending(actor) {
		return island.Location{}, false
	}
	islands, err := c.registry.LookupByOwner(ctx, actor)
	if err != nil || len(islands) == 0 {
		if err != nil {
			slog.Warn("respawn lookup failed", "actor_id", actor.String(), "error", err)
		}
		return island.Location{}, false
	}
	return islands[0].Home(), true
}

// OnInteract reports whether actor may break, place or use something at
// loc. The host calls it for every interaction and cancels the event on
// false.
func (c *Coordinator) OnInteract(ctx context.Context, actor ulid.ULID, loc island.Location) bool {
	return c.access.CanAccess(ctx, actor, c.privileges.IsPrivileged(ctx, actor), loc)
}
