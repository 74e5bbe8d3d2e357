// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package teleport services player-facing island operations: creating,
// claiming, resetting and visiting islands, and kicking actors off them.
//
// Every operation that moves an actor runs under that actor's teleport
// intent. A second request for the same actor while one is in flight is
// rejected with island.ErrTeleportPending; the intent is released on every
// exit path.
package teleport

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/skyblock/internal/access"
	"github.com/holomush/skyblock/internal/grid"
	"github.com/holomush/skyblock/internal/island"
)

var tracer = otel.Tracer("skyblock/teleport")

// LocationMover relocates an actor. It returns once the move is done.
type LocationMover interface {
	MoveActor(ctx context.Context, actor ulid.ULID, loc island.Location) error
}

// Locator reports where an online actor currently stands.
type Locator interface {
	LocateActor(ctx context.Context, actor ulid.ULID) (island.Location, bool)
}

// RegionClearer empties a volume of the world.
type RegionClearer interface {
	Clear(ctx context.Context, world string, bounds grid.Bounds) error
}

// Deps holds the coordinator's collaborators.
type Deps struct {
	Registry   *island.Registry
	Planner    *island.Planner
	Access     *access.Controller
	Privileges access.PrivilegeOracle
	Mover      LocationMover
	Locator    Locator
	Clearer    RegionClearer
	Sessions   *Sessions // nil creates a fresh table
}

// Config tunes coordinator behavior.
type Config struct {
	Spawn           island.Location // where kicked actors are sent
	RespawnOnIsland bool
	InviteTTL       time.Duration
}

// CreateOptions customizes a new island.
type CreateOptions struct {
	Template string
	Silent   bool
}

// Coordinator composes the planner and access controller into the
// operations exposed to the command and event layers.
type Coordinator struct {
	registry   *island.Registry
	planner    *island.Planner
	access     *access.Controller
	privileges access.PrivilegeOracle
	mover      LocationMover
	locator    Locator
	clearer    RegionClearer
	sessions   *Sessions
	invites    *invitations
	cfg        Config
}

// NewCoordinator creates a coordinator.
func NewCoordinator(deps Deps, cfg Config) *Coordinator {
	sessions := deps.Sessions
	if sessions == nil {
		sessions = NewSessions()
	}
	return &Coordinator{
		registry:   deps.Registry,
		planner:    deps.Planner,
		access:     deps.Access,
		privileges: deps.Privileges,
		mover:      deps.Mover,
		locator:    deps.Locator,
		clearer:    deps.Clearer,
		sessions:   sessions,
		invites:    newInvitations(),
		cfg:        cfg,
	}
}

// Sessions returns the session table.
func (c *Coordinator) Sessions() *Sessions {
	return c.sessions
}

// CreateIsland allocates a new island for actor and moves the actor there.
// A failed move is logged; the island stands.
func (c *Coordinator) CreateIsland(ctx context.Context, actor ulid.ULID, opts CreateOptions) (*island.Island, error) {
	var isl *island.Island
	err := c.run(ctx, "create", actor, func(ctx context.Context) error {
		var err error
		isl, err = c.planner.Allocate(ctx, island.AllocationRequest{
			Actor:    actor,
			Template: opts.Template,
			Silent:   opts.Silent,
		})
		if err != nil {
			return err
		}
		c.moveBestEffort(ctx, actor, isl.Home())
		return nil
	})
	return isl, err
}

// Claim takes the cell under loc for actor without moving anyone.
// An occupied cell returns island.ErrConflict.
func (c *Coordinator) Claim(ctx context.Context, actor ulid.ULID, loc island.Location) (*island.Island, error) {
	var isl *island.Island
	err := c.run(ctx, "claim", actor, func(ctx context.Context) error {
		var err error
		isl, err = c.planner.Claim(ctx, actor, loc)
		return err
	})
	return isl, err
}

// Home moves actor to their island number homeIndex (1-based). When
// homeIndex is the actor's lowest unused number that island is created first.
func (c *Coordinator) Home(ctx context.Context, actor ulid.ULID, homeIndex int) (*island.Island, error) {
	homeIndex = max(homeIndex, 1)
	var isl *island.Island
	err := c.run(ctx, "home", actor, func(ctx context.Context) error {
		found, next, err := c.islandBySequence(ctx, actor, homeIndex)
		if err != nil {
			return err
		}
		if found == nil {
			if homeIndex != next {
				return oops.Code(island.CodeNoIsland).
					With("actor_id", actor.String()).
					With("home", homeIndex).
					Wrap(island.ErrNoIsland)
			}
			found, err = c.planner.Allocate(ctx, island.AllocationRequest{Actor: actor, Sequence: homeIndex})
			if err != nil {
				return err
			}
		}
		if err := c.move(ctx, actor, found.Home()); err != nil {
			return err
		}
		isl = found
		return nil
	})
	return isl, err
}

// Reset clears the footprint of actor's island homeIndex, drops the record
// and allocates a replacement with the same island number. An actor with no
// such island gets island.ErrNotFound and the world is left alone.
func (c *Coordinator) Reset(ctx context.Context, actor ulid.ULID, homeIndex int) (*island.Island, error) {
	homeIndex = max(homeIndex, 1)
	var fresh *island.Island
	err := c.run(ctx, "reset", actor, func(ctx context.Context) error {
		old, _, err := c.islandBySequence(ctx, actor, homeIndex)
		if err != nil {
			return err
		}
		if old == nil {
			return oops.Code(island.CodeNotFound).
				With("actor_id", actor.String()).
				With("home", homeIndex).
				Wrap(island.ErrNotFound)
		}

		bounds := old.Footprint()
		slog.Info("resetting island",
			"actor_id", actor.String(),
			"world", old.World,
			"cell_id", old.CellID,
			"min", bounds.Min,
			"max", bounds.Max)
		if err := c.clearer.Clear(ctx, old.World, bounds); err != nil {
			return oops.Code("REGION_CLEAR_FAILED").
				With("cell_id", old.CellID).
				Wrap(err)
		}
		if err := c.registry.Delete(ctx, old.World, old.CellID); err != nil {
			return err
		}

		fresh, err = c.planner.Allocate(ctx, island.AllocationRequest{Actor: actor, Sequence: old.Sequence})
		if err != nil {
			slog.Error("reset removed island but could not allocate a replacement",
				"actor_id", actor.String(),
				"sequence", old.Sequence,
				"error", err)
			return err
		}
		c.moveBestEffort(ctx, actor, fresh.Home())
		return nil
	})
	return fresh, err
}

// Visit moves actor to targetOwner's first island. Locked islands admit
// only their owner, members and privileged actors.
func (c *Coordinator) Visit(ctx context.Context, actor, targetOwner ulid.ULID) (*island.Island, error) {
	var isl *island.Island
	err := c.run(ctx, "visit", actor, func(ctx context.Context) error {
		islands, err := c.registry.LookupByOwner(ctx, targetOwner)
		if err != nil {
			return err
		}
		if len(islands) == 0 || !islands[0].Ownership.Claimed() {
			return oops.Code(island.CodeNoIsland).
				With("target_id", targetOwner.String()).
				Wrap(island.ErrNoIsland)
		}
		target := islands[0]
		if target.Locked > 0 && !target.CanEnter(actor) && !c.privileges.IsPrivileged(ctx, actor) {
			return oops.Code(island.CodeIslandLocked).
				With("actor_id", actor.String()).
				With("cell_id", target.CellID).
				Wrap(island.ErrIslandLocked)
		}
		if err := c.move(ctx, actor, target.Home()); err != nil {
			return err
		}
		isl = target
		return nil
	})
	return isl, err
}

// Kick sends victim to spawn after access.Controller.CanKick approves.
// The victim's intent is held so the kick never overlaps the victim's own
// teleport.
func (c *Coordinator) Kick(ctx context.Context, owner, victim ulid.ULID) error {
	return c.run(ctx, "kick", victim, func(ctx context.Context) error {
		ownerLoc, ok := c.locator.LocateActor(ctx, owner)
		if !ok {
			return oops.Code(island.CodeNotOwner).With("actor_id", owner.String()).Wrap(island.ErrNotOwner)
		}
		victimLoc, ok := c.locator.LocateActor(ctx, victim)
		if !ok {
			return oops.Code(island.CodeNotPresent).With("victim_id", victim.String()).Wrap(island.ErrNotPresent)
		}

		isl, err := c.access.CanKick(ctx, access.KickRequest{
			Owner:          owner,
			OwnerLocation:  ownerLoc,
			Victim:         victim,
			VictimLocation: victimLoc,
		})
		if err != nil {
			return err
		}

		slog.Info("island kick",
			"actor_id", owner.String(),
			"victim_id", victim.String(),
			"cell_id", isl.CellID)
		return c.move(ctx, victim, c.cfg.Spawn)
	})
}

// KickByAdmin sends victim to spawn if they stand in a managed world.
func (c *Coordinator) KickByAdmin(ctx context.Context, victim ulid.ULID) error {
	return c.run(ctx, "admin_kick", victim, func(ctx context.Context) error {
		loc, ok := c.locator.LocateActor(ctx, victim)
		if !ok {
			return oops.Code(island.CodeNotPresent).With("victim_id", victim.String()).Wrap(island.ErrNotPresent)
		}
		if !c.access.Manages(loc) {
			return oops.Code(island.CodeNotManagedWorld).With("world", loc.World).Wrap(island.ErrNotManagedWorld)
		}
		return c.move(ctx, victim, c.cfg.Spawn)
	})
}

// Info returns the island at loc.
func (c *Coordinator) Info(ctx context.Context, loc island.Location) (*island.Island, error) {
	if !c.access.Manages(loc) {
		return nil, oops.Code(island.CodeNotManagedWorld).With("world", loc.World).Wrap(island.ErrNotManagedWorld)
	}
	isl, err := c.registry.LookupByLocation(ctx, loc.World, loc.X, loc.Z)
	if errors.Is(err, island.ErrNotFound) {
		return nil, oops.Code(island.CodeNoIsland).
			With("world", loc.World).
			With("x", loc.X).
			With("z", loc.Z).
			Wrap(island.ErrNoIsland)
	}
	return isl, err
}

// RemoveMember revokes member's access to every island owner has.
func (c *Coordinator) RemoveMember(ctx context.Context, owner, member ulid.ULID) error {
	islands, err := c.registry.LookupByOwner(ctx, owner)
	if err != nil {
		return err
	}
	if len(islands) == 0 {
		return oops.Code(island.CodeNoIsland).With("actor_id", owner.String()).Wrap(island.ErrNoIsland)
	}

	removed := false
	for _, isl := range islands {
		if !isl.RemoveMember(member) {
			continue
		}
		if err := c.registry.Update(ctx, isl); err != nil {
			return err
		}
		removed = true
	}
	if !removed {
		return oops.Code(island.CodeNotMember).
			With("actor_id", owner.String()).
			With("member_id", member.String()).
			Wrap(island.ErrNotMember)
	}
	return nil
}

// run executes fn under actor's teleport intent, inside a span.
func (c *Coordinator) run(ctx context.Context, op string, actor ulid.ULID, fn func(ctx context.Context) error) (err error) {
	ctx, span := tracer.Start(ctx, "teleport."+op,
		trace.WithAttributes(attribute.String("actor.id", actor.String())))
	defer func() {
		recordRequest(op, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	release, err := c.sessions.begin(actor)
	if err != nil {
		return err
	}
	defer release()

	return fn(ctx)
}

// islandBySequence returns actor's island with the given number, or nil,
// along with the actor's lowest unused island number.
func (c *Coordinator) islandBySequence(ctx context.Context, actor ulid.ULID, seq int) (*island.Island, int, error) {
	islands, err := c.registry.LookupByOwner(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	next := island.FirstFreeSequence(islands)
	for _, isl := range islands {
		if isl.Sequence == seq {
			return isl, next, nil
		}
	}
	return nil, next, nil
}

func (c *Coordinator) move(ctx context.Context, actor ulid.ULID, loc island.Location) error {
	if err := c.mover.MoveActor(ctx, actor, loc); err != nil {
		return oops.Code("TELEPORT_FAILED").
			With("actor_id", actor.String()).
			With("world", loc.World).
			Wrap(err)
	}
	return nil
}

func (c *Coordinator) moveBestEffort(ctx context.Context, actor ulid.ULID, loc island.Location) {
	if err := c.move(ctx, actor, loc); err != nil {
		slog.Warn("could not move actor to island",
			"actor_id", actor.String(),
			"world", loc.World,
			"error", err)
	}
}
