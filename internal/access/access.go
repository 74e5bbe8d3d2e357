// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package access decides whether an actor may interact with the island at a
// location and whether an island owner may kick another actor.
//
// Checks run on every interaction, so they are read-only: one registry
// lookup plus a membership test. Anything outside the managed worlds is
// not governed by islands and is always allowed.
package access

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/skyblock/internal/grid"
	"github.com/holomush/skyblock/internal/island"
)

// PrivilegeOracle reports whether an actor is an operator exempt from
// island restrictions.
type PrivilegeOracle interface {
	IsPrivileged(ctx context.Context, actor ulid.ULID) bool
}

// IslandResolver finds the island whose cell contains a point.
// *island.Registry satisfies it.
type IslandResolver interface {
	LookupByLocation(ctx context.Context, world string, x, z int) (*island.Island, error)
}

// Controller answers access and kick questions.
type Controller struct {
	islands    IslandResolver
	privileges PrivilegeOracle
	worlds     *WorldMatcher
}

// NewController creates a controller over the given collaborators.
func NewController(islands IslandResolver, privileges PrivilegeOracle, worlds *WorldMatcher) *Controller {
	return &Controller{islands: islands, privileges: privileges, worlds: worlds}
}

// Manages reports whether loc lies in a world governed by islands.
func (c *Controller) Manages(loc island.Location) bool {
	return c.worlds.Match(loc.World)
}

// CanAccess reports whether actor may interact at loc. isOp short-circuits
// for callers that already know the actor is an operator.
//
// Registry failures deny and are logged.
func (c *Controller) CanAccess(ctx context.Context, actor ulid.ULID, isOp bool, loc island.Location) bool {
	if isOp {
		recordCheck(decisionGranted, reasonOperator)
		return true
	}
	if !c.Manages(loc) {
		recordCheck(decisionGranted, reasonUnmanaged)
		return true
	}

	isl, err := c.islands.LookupByLocation(ctx, loc.World, loc.X, loc.Z)
	switch {
	case errors.Is(err, island.ErrNotFound):
		recordCheck(decisionDenied, reasonNoIsland)
		return false
	case err != nil:
		slog.Error("access check failed, denying",
			"actor_id", actor.String(),
			"world", loc.World,
			"x", loc.X,
			"z", loc.Z,
			"error", err)
		recordCheck(decisionDenied, reasonError)
		return false
	}

	switch {
	case !isl.Ownership.Claimed():
		recordCheck(decisionDenied, reasonUnclaimed)
		return false
	case isl.IsOwnedBy(actor):
		recordCheck(decisionGranted, reasonOwner)
		return true
	case isl.HasMember(actor):
		recordCheck(decisionGranted, reasonMember)
		return true
	}
	recordCheck(decisionDenied, reasonNotMember)
	return false
}

// KickRequest describes an owner asking to remove a victim from the island
// the owner is standing on.
type KickRequest struct {
	Owner          ulid.ULID
	OwnerLocation  island.Location
	Victim         ulid.ULID
	VictimLocation island.Location
}

// CanKick validates a kick without side effects. On success it returns the
// island the victim is being removed from.
//
// Errors match island.ErrNotOwner, island.ErrSelfTarget,
// island.ErrPrivilegeViolation or island.ErrNotPresent, checked in that order.
func (c *Controller) CanKick(ctx context.Context, req KickRequest) (*island.Island, error) {
	isl, err := c.ownedIslandAt(ctx, req.Owner, req.OwnerLocation)
	if err != nil {
		recordKick(err)
		return nil, err
	}

	if req.Victim == req.Owner {
		err = oops.Code(island.CodeSelfTarget).With("actor_id", req.Owner.String()).Wrap(island.ErrSelfTarget)
		recordKick(err)
		return nil, err
	}

	if c.privileges.IsPrivileged(ctx, req.Victim) && !c.privileges.IsPrivileged(ctx, req.Owner) {
		err = oops.Code(island.CodePrivilegeViolation).
			With("actor_id", req.Owner.String()).
			With("victim_id", req.Victim.String()).
			Wrap(island.ErrPrivilegeViolation)
		recordKick(err)
		return nil, err
	}

	if !sameCell(isl, req.VictimLocation) {
		err = oops.Code(island.CodeNotPresent).
			With("victim_id", req.Victim.String()).
			With("cell_id", isl.CellID).
			Wrap(island.ErrNotPresent)
		recordKick(err)
		return nil, err
	}

	recordKick(nil)
	return isl, nil
}

// ownedIslandAt returns the island under loc if actor owns it.
func (c *Controller) ownedIslandAt(ctx context.Context, actor ulid.ULID, loc island.Location) (*island.Island, error) {
	notOwner := func() error {
		return oops.Code(island.CodeNotOwner).
			With("actor_id", actor.String()).
			With("world", loc.World).
			Wrap(island.ErrNotOwner)
	}
	if !c.Manages(loc) {
		return nil, notOwner()
	}

	isl, err := c.islands.LookupByLocation(ctx, loc.World, loc.X, loc.Z)
	if errors.Is(err, island.ErrNotFound) {
		return nil, notOwner()
	}
	if err != nil {
		return nil, err
	}
	if !isl.IsOwnedBy(actor) {
		return nil, notOwner()
	}
	return isl, nil
}

// sameCell reports whether loc resolves to the cell of isl.
func sameCell(isl *island.Island, loc island.Location) bool {
	return strings.EqualFold(loc.World, isl.World) && grid.CellID(loc.X, loc.Z, isl.Size) == isl.CellID
}
