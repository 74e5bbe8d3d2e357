// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package teleport

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/skyblock/internal/island"
)

// DefaultInviteTTL is how long an invitation stays acceptable.
const DefaultInviteTTL = 5 * time.Minute

// Invitation offers membership of one island to one actor.
type Invitation struct {
	ID        ulid.ULID
	Owner     ulid.ULID
	Invitee   ulid.ULID
	Island    island.CellKey
	ExpiresAt time.Time
}

// invitations holds at most one pending invitation per invitee.
type invitations struct {
	mu      sync.Mutex
	pending map[ulid.ULID]Invitation
	now     func() time.Time
}

func newInvitations() *invitations {
	return &invitations{pending: make(map[ulid.ULID]Invitation), now: time.Now}
}

func (iv *invitations) put(inv Invitation) {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	iv.pending[inv.Invitee] = inv
}

// take removes and returns the invitee's invitation if it has not expired.
func (iv *invitations) take(invitee ulid.ULID) (Invitation, bool) {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	inv, ok := iv.pending[invitee]
	if !ok {
		return Invitation{}, false
	}
	delete(iv.pending, invitee)
	if !iv.now().Before(inv.ExpiresAt) {
		return Invitation{}, false
	}
	return inv, true
}

func (iv *invitations) get(invitee ulid.ULID) (Invitation, bool) {
	iv.mu.Lock()
	defer iv.mu.Unlock()
	inv, ok := iv.pending[invitee]
	if !ok || !iv.now().Before(inv.ExpiresAt) {
		return Invitation{}, false
	}
	return inv, true
}

// Invite offers invitee membership of owner's first island. A newer
// invitation replaces any older one the invitee holds.
func (c *Coordinator) Invite(ctx context.Context, owner, invitee ulid.ULID) (Invitation, error) {
	if owner == invitee {
		return Invitation{}, oops.Code(island.CodeSelfTarget).With("actor_id", owner.String()).Wrap(island.ErrSelfTarget)
	}
	islands, err := c.registry.LookupByOwner(ctx, owner)
	if err != nil {
		return Invitation{}, err
	}
	if len(islands) == 0 {
		return Invitation{}, oops.Code(island.CodeNoIsland).With("actor_id", owner.String()).Wrap(island.ErrNoIsland)
	}
	target := islands[0]
	if target.HasMember(invitee) {
		return Invitation{}, oops.Code(island.CodeAlreadyMember).
			With("actor_id", owner.String()).
			With("invitee_id", invitee.String()).
			Wrap(island.ErrAlreadyMember)
	}

	ttl := c.cfg.InviteTTL
	if ttl <= 0 {
		ttl = DefaultInviteTTL
	}
	inv := Invitation{
		ID:        ulid.Make(),
		Owner:     owner,
		Invitee:   invitee,
		Island:    target.Key(),
		ExpiresAt: c.invites.now().Add(ttl),
	}
	c.invites.put(inv)
	slog.Info("island invitation sent",
		"invitation_id", inv.ID.String(),
		"actor_id", owner.String(),
		"invitee_id", invitee.String(),
		"cell_id", target.CellID)
	return inv, nil
}

// PendingInvitation returns the invitee's unexpired invitation.
func (c *Coordinator) PendingInvitation(invitee ulid.ULID) (Invitation, bool) {
	return c.invites.get(invitee)
}

// Accept adds invitee to the invited island's members.
func (c *Coordinator) Accept(ctx context.Context, invitee ulid.ULID) (*island.Island, error) {
	inv, ok := c.invites.take(invitee)
	if !ok {
		return nil, oops.Code(island.CodeNoPendingInvitation).
			With("actor_id", invitee.String()).
			Wrap(island.ErrNoPendingInvitation)
	}

	isl, err := c.registry.LookupByCell(ctx, inv.Island.World, inv.Island.CellID)
	if errors.Is(err, island.ErrNotFound) || (err == nil && !isl.IsOwnedBy(inv.Owner)) {
		// The island was reset or changed hands after the invitation went out.
		return nil, oops.Code(island.CodeNoPendingInvitation).
			With("actor_id", invitee.String()).
			With("cell_id", inv.Island.CellID).
			Wrap(island.ErrNoPendingInvitation)
	}
	if err != nil {
		return nil, err
	}

	if !isl.AddMember(invitee) {
		return nil, oops.Code(island.CodeAlreadyMember).
			With("actor_id", invitee.String()).
			Wrap(island.ErrAlreadyMember)
	}
	if err := c.registry.Update(ctx, isl); err != nil {
		return nil, err
	}
	slog.Info("island invitation accepted",
		"invitation_id", inv.ID.String(),
		"actor_id", invitee.String(),
		"cell_id", isl.CellID)
	return isl, nil
}

// Deny discards the invitee's pending invitation.
func (c *Coordinator) Deny(invitee ulid.ULID) error {
	if _, ok := c.invites.take(invitee); !ok {
		return oops.Code(island.CodeNoPendingInvitation).
			With("actor_id", invitee.String()).
			Wrap(island.ErrNoPendingInvitation)
	}
	return nil
}
